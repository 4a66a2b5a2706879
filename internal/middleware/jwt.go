package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-booking-api/internal/models"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
	"github.com/noah-isme/class-booking-api/pkg/logger"
	"github.com/noah-isme/class-booking-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated principal.
const ContextPrincipalKey = "currentPrincipal"

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (*models.Principal, error)
}

// JWT protects routes by requiring a valid identity-provider access token.
func JWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed bearer token"))
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.SubjectKey, principal.Subject)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
