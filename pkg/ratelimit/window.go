package ratelimit

import (
	"sync"
	"time"

	"mercator-hq/callisto/pkg/ratelimit/storage"
)

// slidingWindow is a sliding window counter for a single key.
//
// The window tracks requests over a rolling time period. Old entries
// outside the window are automatically pruned, which avoids the
// "reset spike" problem of fixed windows: a caller cannot double its
// budget by straddling a window boundary.
//
// # Algorithm
//
//  1. Prune buckets older than the window duration
//  2. Sum all remaining buckets to get current usage
//  3. If usage is below the limit, add one to the current bucket
//
// All three steps happen under one lock so a burst of concurrent
// requests cannot overshoot the limit.
//
// # Memory Efficiency
//
// Uses a circular buffer with fixed granularity to limit memory usage.
// A 1-minute window with 1-second buckets uses 60 buckets.
type slidingWindow struct {
	window      time.Duration // Window duration (e.g., 1 minute)
	granularity time.Duration // Granularity of each bucket (e.g., 1 second)
	buckets     []swBucket    // Circular buffer of buckets
	head        int           // Current write position
	mu          sync.Mutex

	now func() time.Time
}

// swBucket represents a single time-stamped counter bucket.
// A zero start time marks an empty slot.
type swBucket struct {
	start time.Time
	count int64
}

// newSlidingWindow creates a sliding window counter. The number of
// buckets is window/granularity.
func newSlidingWindow(window, granularity time.Duration) *slidingWindow {
	numBuckets := int(window / granularity)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &slidingWindow{
		window:      window,
		granularity: granularity,
		buckets:     make([]swBucket, numBuckets),
		head:        0,
		now:         time.Now,
	}
}

// take records one request if the window has capacity for it.
//
// It returns whether the request was admitted, how many requests remain
// in the window after this one, and, on rejection, how long the caller
// should wait before the oldest counted request leaves the window.
func (w *slidingWindow) take(limit int) (allowed bool, remaining int, retryAfter time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.pruneLocked(now)

	var sum int64
	for i := 0; i < len(w.buckets); i++ {
		if !w.buckets[i].start.IsZero() {
			sum += w.buckets[i].count
		}
	}

	if sum >= int64(limit) {
		return false, 0, w.retryAfterLocked(now)
	}

	current := w.findOrCreateBucketLocked(now)
	current.count++

	return true, limit - int(sum) - 1, 0
}

// sum returns the total count across all buckets in the window after
// pruning expired ones.
func (w *slidingWindow) sum() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())

	var sum int64
	for i := 0; i < len(w.buckets); i++ {
		if !w.buckets[i].start.IsZero() {
			sum += w.buckets[i].count
		}
	}

	return sum
}

// snapshot returns the occupied buckets for persistence.
func (w *slidingWindow) snapshot() []storage.Bucket {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(w.now())

	out := make([]storage.Bucket, 0, len(w.buckets))
	for i := 0; i < len(w.buckets); i++ {
		if !w.buckets[i].start.IsZero() {
			out = append(out, storage.Bucket{
				Start: w.buckets[i].start,
				Count: w.buckets[i].count,
			})
		}
	}

	return out
}

// restore merges persisted buckets into the window, dropping any that
// have already expired. Used to rebuild limiter state after a restart.
func (w *slidingWindow) restore(buckets []storage.Bucket) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	for _, b := range buckets {
		if b.Count <= 0 || b.Start.Before(cutoff) {
			continue
		}
		slot := w.findOrCreateBucketLocked(b.Start)
		slot.count += b.Count
	}
}

// retryAfterLocked computes how long until the oldest occupied bucket
// falls out of the window. Caller must hold the lock.
func (w *slidingWindow) retryAfterLocked(now time.Time) time.Duration {
	var oldest time.Time
	for i := 0; i < len(w.buckets); i++ {
		if w.buckets[i].start.IsZero() {
			continue
		}
		if oldest.IsZero() || w.buckets[i].start.Before(oldest) {
			oldest = w.buckets[i].start
		}
	}

	if oldest.IsZero() {
		// Nothing in the window; only reachable with a zero limit.
		return w.granularity
	}

	retry := oldest.Add(w.window).Sub(now)
	if retry <= 0 {
		retry = w.granularity
	}

	return retry
}

// pruneLocked removes buckets older than the window.
// Caller must hold the lock.
func (w *slidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.window)

	for i := 0; i < len(w.buckets); i++ {
		if !w.buckets[i].start.IsZero() && w.buckets[i].start.Before(cutoff) {
			w.buckets[i] = swBucket{} // Clear expired bucket
		}
	}
}

// findOrCreateBucketLocked finds the bucket for the given time or
// claims a slot for it. Caller must hold the lock.
func (w *slidingWindow) findOrCreateBucketLocked(now time.Time) *swBucket {
	// Round timestamp to bucket boundary
	bucketTime := now.Truncate(w.granularity)

	// Check if current head bucket matches this time
	if w.buckets[w.head].start.Equal(bucketTime) {
		return &w.buckets[w.head]
	}

	// Search for existing bucket with this timestamp
	for i := 0; i < len(w.buckets); i++ {
		if w.buckets[i].start.Equal(bucketTime) {
			return &w.buckets[i]
		}
	}

	// No existing bucket found. Prefer an empty slot, then evict the
	// oldest bucket.
	targetIdx := -1

	for i := 0; i < len(w.buckets); i++ {
		if w.buckets[i].start.IsZero() {
			targetIdx = i
			break
		}
	}

	if targetIdx == -1 {
		oldestIdx := 0
		oldestTime := w.buckets[0].start

		for i := 1; i < len(w.buckets); i++ {
			if w.buckets[i].start.Before(oldestTime) {
				oldestIdx = i
				oldestTime = w.buckets[i].start
			}
		}

		targetIdx = oldestIdx
	}

	w.buckets[targetIdx] = swBucket{
		start: bucketTime,
		count: 0,
	}
	w.head = targetIdx

	return &w.buckets[targetIdx]
}
