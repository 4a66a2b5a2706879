package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-booking-api/internal/models"
	"github.com/noah-isme/class-booking-api/pkg/config"
	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims models.IdentityClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func identityClaims(subject string, ttl time.Duration) models.IdentityClaims {
	return models.IdentityClaims{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "https://idp.example",
			Audience:  jwt.ClaimStrings{"booking"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestTokenVerifierVerify(t *testing.T) {
	verifier := NewTokenVerifier(config.JWTConfig{Secret: "secret", Issuer: "https://idp.example", Audience: "booking"})

	principal, err := verifier.Verify(signToken(t, "secret", jwt.SigningMethodHS256, identityClaims("user-1", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.Subject)
	assert.Equal(t, "jdoe", principal.Name)
	assert.Equal(t, "jdoe@example.com", principal.Email)
}

func TestTokenVerifierRejects(t *testing.T) {
	verifier := NewTokenVerifier(config.JWTConfig{Secret: "secret", Issuer: "https://idp.example"})

	wrongIssuer := identityClaims("user-1", time.Hour)
	wrongIssuer.Issuer = "https://other.example"

	cases := map[string]string{
		"expired":      signToken(t, "secret", jwt.SigningMethodHS256, identityClaims("user-1", -time.Minute)),
		"bad secret":   signToken(t, "other", jwt.SigningMethodHS256, identityClaims("user-1", time.Hour)),
		"wrong method": signToken(t, "secret", jwt.SigningMethodHS512, identityClaims("user-1", time.Hour)),
		"no subject":   signToken(t, "secret", jwt.SigningMethodHS256, identityClaims("", time.Hour)),
		"wrong issuer": signToken(t, "secret", jwt.SigningMethodHS256, wrongIssuer),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized), "got %v", err)
		})
	}
}
