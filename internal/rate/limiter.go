// Package rate implements fixed-window request limiters. The redis limiter
// is shared across instances; the memory limiter backs single-node and test
// setups.
package rate

import (
	"context"
	"time"
)

// Result describes the outcome of a limiter check.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter is the contract consumed by the HTTP middleware.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
