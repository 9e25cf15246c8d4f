package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/ratelimit/storage"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

const (
	// windowDuration is the rolling window each key is measured over.
	windowDuration = time.Minute

	// windowGranularity is the bucket size inside the window.
	windowGranularity = time.Second

	// idleWindowTTL is how long an untouched key keeps its window
	// before the cleanup loop drops it.
	idleWindowTTL = 10 * time.Minute

	// cleanupInterval is how often idle windows are swept.
	cleanupInterval = time.Minute

	// storageTimeout bounds backend calls made outside a request
	// context (restore and cleanup).
	storageTimeout = 5 * time.Second
)

// LocalLimiter enforces per-key sliding window limits in process
// memory.
//
// Each key gets its own sliding window counter, created lazily on
// first use and dropped again once the key has been idle for
// idleWindowTTL. Window state is mirrored to a storage.Backend after
// every decision so a restart does not hand every caller a fresh
// budget; with the memory backend this mirror is a no-op across
// restarts, with the sqlite backend it survives them.
//
// Storage failures never fail a request. Limiting continues from the
// in-memory state and the error is logged.
type LocalLimiter struct {
	limit     int
	backend   storage.Backend
	logger    *logging.Logger
	collector *metrics.Collector

	mu      sync.RWMutex
	windows map[string]*timedWindow

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup

	now func() time.Time
}

// timedWindow pairs a sliding window with its last-used timestamp so
// the cleanup loop can drop idle keys without taking the window lock.
type timedWindow struct {
	win      *slidingWindow
	lastUsed atomic.Int64 // unix nanoseconds
}

// NewLocalLimiter creates an in-process limiter allowing
// requestsPerMinute requests per key over a rolling one minute window.
//
// The backend must be non-nil; callers that do not want persistence
// pass storage.NewMemoryBackend(). Any state the backend already holds
// is restored before the limiter starts serving decisions.
func NewLocalLimiter(requestsPerMinute int, backend storage.Backend, logger *logging.Logger, collector *metrics.Collector) *LocalLimiter {
	if logger == nil {
		logger = logging.Discard()
	}

	l := &LocalLimiter{
		limit:     requestsPerMinute,
		backend:   backend,
		logger:    logger,
		collector: collector,
		windows:   make(map[string]*timedWindow),
		done:      make(chan struct{}),
		now:       time.Now,
	}

	l.restoreState()

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Allow records one request for key and reports whether it fits the
// per-minute budget.
func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, fmt.Errorf("rate limit key is empty")
	}

	w := l.getOrCreate(key)
	w.lastUsed.Store(l.now().UnixNano())

	allowed, remaining, retryAfter := w.win.take(l.limit)

	decision := Decision{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}

	if l.collector != nil {
		l.collector.RecordRateLimitDecision(BackendLocal, allowed)
	}
	if !allowed {
		l.logger.Debug("rate limit exceeded",
			"key", key,
			"limit", l.limit,
			"retry_after", retryAfter)
	}

	l.persist(ctx, key, w)

	return decision, nil
}

// Close stops the cleanup loop and closes the storage backend.
func (l *LocalLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
		l.closeErr = l.backend.Close()
	})
	return l.closeErr
}

// getOrCreate returns the window for key, creating it on first use.
func (l *LocalLimiter) getOrCreate(key string) *timedWindow {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.windows[key]; ok {
		return w
	}

	w = &timedWindow{win: newSlidingWindow(windowDuration, windowGranularity)}
	w.lastUsed.Store(l.now().UnixNano())
	l.windows[key] = w

	return w
}

// persist mirrors the window for key into the backend. Failures are
// logged and swallowed; the in-memory window remains authoritative.
func (l *LocalLimiter) persist(ctx context.Context, key string, w *timedWindow) {
	state := &storage.WindowState{
		Key:       key,
		Buckets:   w.win.snapshot(),
		UpdatedAt: l.now(),
	}
	if err := l.backend.Save(ctx, state); err != nil {
		l.logger.Debug("failed to persist rate limit state",
			"key", key,
			"error", err)
	}
}

// restoreState rebuilds windows from whatever the backend persisted.
func (l *LocalLimiter) restoreState() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	states, err := l.backend.LoadAll(ctx)
	if err != nil {
		l.logger.Warn("failed to restore rate limit state", "error", err)
		return
	}

	for _, state := range states {
		w := l.getOrCreate(state.Key)
		w.win.restore(state.Buckets)
	}

	if len(states) > 0 {
		l.logger.Info("restored rate limit state", "keys", len(states))
	}
}

// cleanupLoop periodically drops windows that have been idle past
// idleWindowTTL, in memory and in the backend.
func (l *LocalLimiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.removeIdle()
		}
	}
}

func (l *LocalLimiter) removeIdle() {
	cutoff := l.now().Add(-idleWindowTTL)

	l.mu.Lock()
	removed := 0
	for key, w := range l.windows {
		if time.Unix(0, w.lastUsed.Load()).Before(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	stored, err := l.backend.Cleanup(ctx, cutoff)
	if err != nil {
		l.logger.Debug("rate limit storage cleanup failed", "error", err)
		return
	}

	if removed > 0 || stored > 0 {
		l.logger.Debug("removed idle rate limit windows",
			"windows", removed,
			"stored", stored)
	}
}

// tracked returns the number of live windows.
func (l *LocalLimiter) tracked() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}
