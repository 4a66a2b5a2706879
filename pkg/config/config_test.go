package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.True(t, cfg.Enrollment.AllowReenroll)
	assert.Equal(t, 32, cfg.Enrollment.CapacityMaxRetries)
	assert.False(t, cfg.Sessions.StrictCancel)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.Zero(t, cfg.Search.MaxRadius)
	assert.Equal(t, 15*time.Minute, cfg.Uploads.URLTTL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("ENROLLMENT_ALLOW_REENROLL", "false")
	t.Setenv("SESSION_CANCEL_STRICT", "true")
	t.Setenv("SEARCH_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.False(t, cfg.Enrollment.AllowReenroll)
	assert.True(t, cfg.Sessions.StrictCancel)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
