package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim
var ErrNoExpiry = errors.New("token has no expiry claim")

// TokenExpiry extracts the expiry time from the backend's JWT cookie
// without verifying the signature. Verification is the backend's job; the
// client only wants to know whether a call is doomed before making it.
func TokenExpiry(raw string) (time.Time, error) {
	parser := jwt.NewParser()

	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}

	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether the token's expiry has passed. Tokens that
// cannot be parsed or carry no expiry are treated as expired so the caller
// re-authenticates rather than issuing failing requests.
func IsExpired(raw string, now time.Time) bool {
	if raw == "" {
		return true
	}

	expiry, err := TokenExpiry(raw)
	if err != nil {
		return true
	}

	return now.After(expiry)
}
