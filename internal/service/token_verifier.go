package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/pkg/config"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

// TokenVerifier validates identity-provider access tokens and yields the caller's subject.
// Tokens are issued elsewhere; this service never mints them.
type TokenVerifier struct {
	secret  []byte
	options []jwt.ParserOption
}

// NewTokenVerifier builds a verifier for HS256 tokens, checking issuer and audience when configured.
func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), options: options}
}

// Verify parses the token and returns the authenticated principal.
func (v *TokenVerifier) Verify(tokenString string) (*models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, v.options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	name := claims.Name
	if name == "" {
		name = claims.Username
	}
	return &models.Principal{Subject: claims.Subject, Name: name, Email: claims.Email}, nil
}
