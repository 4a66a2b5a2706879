package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type brokenCacheRepo struct {
	gets   int
	purges int
}

func (b *brokenCacheRepo) Get(context.Context, string, interface{}) error {
	b.gets++
	return errors.New("connection refused")
}

func (b *brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (b *brokenCacheRepo) Purge(context.Context, string) error {
	b.purges++
	return nil
}

func (b *brokenCacheRepo) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func (b *brokenCacheRepo) BumpGeneration(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestCacheServiceBypassesAfterRepeatedFailures(t *testing.T) {
	repo := &brokenCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	var dest map[string]string

	for i := 0; i < defaultCacheFailureThreshold; i++ {
		assert.False(t, svc.Get(ctx, "search:k", &dest))
	}
	assert.Equal(t, defaultCacheFailureThreshold, repo.gets)

	assert.False(t, svc.Get(ctx, "search:k", &dest))
	assert.Equal(t, defaultCacheFailureThreshold, repo.gets, "backend must not be called while bypassed")

	svc.InvalidateSearch(ctx)
	assert.Equal(t, 1, repo.purges)

	now = now.Add(defaultCacheCooldown)
	assert.False(t, svc.Get(ctx, "search:k", &dest))
	assert.Equal(t, defaultCacheFailureThreshold+1, repo.gets)
}

func TestCacheServiceMissResetsFailureCount(t *testing.T) {
	repo := newMapCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), 0, nil, true)
	ctx := context.Background()

	var dest []string
	assert.False(t, svc.Get(ctx, "search:a", &dest))
	svc.Set(ctx, "search:a", []string{"x"}, 0)
	assert.True(t, svc.Get(ctx, "search:a", &dest))
	assert.Equal(t, []string{"x"}, dest)

	svc.InvalidateSearch(ctx)
	assert.False(t, svc.Get(ctx, "search:a", &dest))
}

func TestCacheServiceSearchKeyFollowsGeneration(t *testing.T) {
	repo := newMapCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	key, ok := svc.SearchKey(ctx, "10001:25::")
	assert.True(t, ok)
	assert.Equal(t, "search:g0:10001:25::", key)

	svc.InvalidateSearch(ctx)
	key, ok = svc.SearchKey(ctx, "10001:25::")
	assert.True(t, ok)
	assert.Equal(t, "search:g1:10001:25::", key)

	broken := NewCacheService(&brokenCacheRepo{}, nil, time.Minute, nil, true)
	_, ok = broken.SearchKey(ctx, "10001:25::")
	assert.False(t, ok)

	var nilSvc *CacheService
	_, ok = nilSvc.SearchKey(ctx, "10001:25::")
	assert.False(t, ok)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, nilSvc.Get(context.Background(), "k", nil))
	assert.NotPanics(t, func() { nilSvc.InvalidateSearch(context.Background()) })

	svc := NewCacheService(newMapCacheRepo(), nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())
}
