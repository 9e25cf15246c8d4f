package storage

import (
	"context"
	"time"
)

// Bucket is one time-aligned slot of a persisted window.
type Bucket struct {
	// Start is the bucket's aligned start time.
	Start time.Time `json:"start"`

	// Count is the number of requests recorded in the bucket.
	Count int64 `json:"count"`
}

// WindowState is the persisted counter state for one rate limit key.
type WindowState struct {
	// Key identifies the limited subject (typically a user ID).
	Key string

	// Buckets holds the window's non-empty slots.
	Buckets []Bucket

	// UpdatedAt is when the state was last written.
	UpdatedAt time.Time

	// CreatedAt is when the key was first seen.
	CreatedAt time.Time
}

// Backend persists local limiter window counters so that restarting the
// process does not reset everyone's budget.
type Backend interface {
	// Save upserts the window state for a key.
	Save(ctx context.Context, state *WindowState) error

	// Load returns the state for a key, or nil if the key is unknown.
	Load(ctx context.Context, key string) (*WindowState, error)

	// LoadAll returns every persisted state.
	LoadAll(ctx context.Context) ([]*WindowState, error)

	// Cleanup removes states not updated since the given time and returns
	// how many were removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the backend.
	Close() error
}
