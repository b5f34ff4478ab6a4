package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the subset of the storefront api access token the BFF reads.
type AccessTokenClaims struct {
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}
