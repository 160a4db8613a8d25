// Package limiter throttles credential login attempts at the access layer.
// The registry itself is exact-match only; lockouts live here.
package limiter

import (
	"context"
	"time"
)

// Limiter controls login attempts and temporary lockouts per (login id, ip).
type Limiter interface {
	// Allow reports whether a login attempt is currently allowed and an
	// optional retry-after duration.
	Allow(ctx context.Context, loginID string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful authentication.
	Success(ctx context.Context, loginID string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, loginID string, ipHash []byte) (bool, time.Duration, error)
}
