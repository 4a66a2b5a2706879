package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/middleware"
	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

func principalFromContext(c *gin.Context) *models.Principal {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

// requireSubject writes a 401 and returns false when no principal is attached.
func requireSubject(c *gin.Context) (string, bool) {
	principal := principalFromContext(c)
	if principal == nil || principal.Subject == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return principal.Subject, true
}

func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{"cache_hit": hit}
	}
	return meta
}
