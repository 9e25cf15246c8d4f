package ratelimit

import (
	"context"
	"time"
)

// Backend names reported in logs and metrics for rate limit decisions.
const (
	// BackendLocal identifies decisions made by the in-process limiter.
	BackendLocal = "local"

	// BackendRedis identifies decisions made against the shared cache.
	BackendRedis = "redis"
)

// Decision is the outcome of a rate limit check for a single request.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured request budget for the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	// Zero when the request was rejected.
	Remaining int

	// RetryAfter is how long the caller should wait before retrying.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by a key (typically the
// user ID) is allowed to proceed.
//
// Implementations must be safe for concurrent use. A Limiter never
// returns an error for an over-limit request; rejection is expressed
// through Decision.Allowed. Errors indicate the limiter itself failed
// in a way that could not be absorbed.
type Limiter interface {
	// Allow records one request for key and reports whether it fits
	// the configured budget.
	Allow(ctx context.Context, key string) (Decision, error)

	// Close releases limiter resources such as background goroutines
	// and persistent storage handles.
	Close() error
}
