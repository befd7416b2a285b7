package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry means the access token carries no exp claim.
var ErrNoExpiry = errors.New("access token has no expiry claim")

// TokenSource supplies the gateway access token. Consumers call it again
// shortly before the current token's expiry, read via TokenExpiry.
type TokenSource func(ctx context.Context) (string, error)

// TokenExpiry reads the exp claim from an access token without verifying
// the signature. Verification is the server's job; the client only needs
// the expiry to schedule a refresh.
func TokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// RefreshIn returns how long to wait before refreshing the token, leaving
// the given margin before expiry. An already expired or nearly expired
// token refreshes immediately.
func RefreshIn(token string, margin time.Duration) (time.Duration, error) {
	expiry, err := TokenExpiry(token)
	if err != nil {
		return 0, err
	}
	wait := time.Until(expiry) - margin
	if wait < 0 {
		wait = 0
	}
	return wait, nil
}
