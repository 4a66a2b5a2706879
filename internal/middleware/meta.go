package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"

	// CacheHeader reports HIT or MISS for responses served through the search cache.
	CacheHeader = "X-Cache"
)

// ResponseMeta is collected while a request is handled and rendered into the envelope's meta block.
type ResponseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta attaches a ResponseMeta to every request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &ResponseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from the cache and mirrors it in CacheHeader.
func SetCacheHit(c *gin.Context, hit bool) {
	meta := metaFrom(c)
	if meta == nil {
		return
	}
	meta.cacheHit = &hit
	if hit {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
}

// ExtractMeta renders the metadata collected so far. It returns nil when the request
// was not routed through WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFrom(c)
	if meta == nil {
		return nil
	}
	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.started).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func metaFrom(c *gin.Context) *ResponseMeta {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, _ := value.(*ResponseMeta)
	return meta
}
