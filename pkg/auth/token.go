package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// InspectAccessToken decodes the claims of an upstream access token without
// verifying its signature. The BFF never trusts these claims for authorization;
// they only drive proactive refresh.
func InspectAccessToken(tokenString string) (*AccessTokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	claims := &AccessTokenClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decoding access token: %w", err)
	}
	return claims, nil
}

// ExpiresWithin reports whether the token expires before now+window. Tokens
// without an exp claim, or that cannot be decoded, are treated as not expiring
// so the upstream stays the authority via its 401.
func ExpiresWithin(tokenString string, now time.Time, window time.Duration) bool {
	claims, err := InspectAccessToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now.Add(window))
}
