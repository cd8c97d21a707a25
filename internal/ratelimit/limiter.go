package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the oldest request counted in the window expires.
	ResetAt time.Time
}

// RetryAfter returns how long to wait until the next request may pass, at least one second.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r == nil {
		return time.Second
	}
	wait := r.ResetAt.Sub(now)
	if wait < time.Second {
		return time.Second
	}
	return wait
}

// Limiter describes a rate-limiting strategy interface. A rejected request is reported through
// Result.Allowed; the error is reserved for backend failures.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")
