package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/internal/service"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/logger"
	"github.com/noah-isme/class-booking-api/pkg/middleware/requestid"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*models.Principal, error) {
	if token == "good" {
		return &models.Principal{Subject: "user-1"}, nil
	}
	return nil, appErrors.Wrap(errors.New("signature is invalid"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

func newJWTRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(stubVerifier{}), func(c *gin.Context) {
		principal := c.MustGet(ContextPrincipalKey).(*models.Principal)
		c.JSON(http.StatusOK, gin.H{"sub": principal.Subject, "log": c.GetString(logger.SubjectKey)})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := newJWTRouter()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"rejected", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"sub":"user-1","log":"user-1"}`, w.Body.String())
			}
		})
	}
}

func TestResponseMetaAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(requestid.Middleware(), Metrics(metrics, "/metrics"), WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/classes/:id", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes/abc", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.Equal(t, w.Header().Get(requestid.HeaderKey), meta["request_id"])

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

type routeRecorder struct {
	routes []string
}

func (r *routeRecorder) ObserveHTTPRequest(_, route string, _ int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := &routeRecorder{}
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/classes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/classes/a", "/classes/b", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []string{"/classes/:id", "/classes/:id", unmatchedRoute}, rec.routes)
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetCacheHit(c, false)
	assert.Nil(t, ExtractMeta(c))
}
