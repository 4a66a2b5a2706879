package models

import "github.com/golang-jwt/jwt/v5"

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

// IdentityClaims is the subset of identity-provider token claims the API reads.
type IdentityClaims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"cognito:username,omitempty"`
	jwt.RegisteredClaims
}
