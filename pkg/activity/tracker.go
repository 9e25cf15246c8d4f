package activity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// Archiver receives completed requests for persistence. The tracker calls
// it after a request leaves the in-memory state; archive failures are
// logged and never propagated to the caller of End.
type Archiver interface {
	// ArchiveCompletion persists one completed request for the given user.
	ArchiveCompletion(ctx context.Context, userID string, req ActiveRequest, completed CompletedRequest) error
}

// userState holds one user's activity. Its mutex guards the active map and
// the last completion; the tracker's global lock is never acquired while a
// userState mutex is held.
type userState struct {
	mu     sync.Mutex
	active map[string]ActiveRequest
	last   *CompletedRequest
}

func newUserState() *userState {
	return &userState{
		active: make(map[string]ActiveRequest),
	}
}

// Tracker maintains the in-flight requests and last completions for all
// users in the process. Request IDs are unique across users: Begin rejects
// an ID that is active anywhere, no matter which user owns it.
//
// Locking is two-level. A global RWMutex guards the user map and the
// request-ID index and is held only for map lookups and inserts. Each
// user's entries are guarded by that user's own mutex, so operations for
// different users do not serialize behind one another, and Snapshot copies
// per-user state without holding the global lock.
//
// All state is in memory and lost on restart. The optional Archiver hook
// persists completions as they happen.
//
// # Example
//
//	tracker := activity.New(cfg.Activity, store, logger, collector)
//
//	if err := tracker.Begin("alice", reqID, activity.Metadata{Path: "/v1/query"}); err != nil {
//		// errors.Is(err, activity.ErrDuplicateRequestID)
//	}
//	defer tracker.End(ctx, reqID, activity.OutcomeSuccess)
type Tracker struct {
	mu    sync.RWMutex
	users map[string]*userState
	index map[string]string // request ID -> owning user ID

	archiver  Archiver
	logger    *logging.Logger
	collector *metrics.Collector

	maxAge time.Duration

	activeTotal atomic.Int64

	// now is replaced in tests.
	now func() time.Time
}

// New creates a request activity tracker. The archiver may be nil, in
// which case completions are not persisted. The collector may be nil when
// metrics are disabled; the logger may be nil, in which case logs are
// discarded.
func New(cfg config.ActivityConfig, archiver Archiver, logger *logging.Logger, collector *metrics.Collector) *Tracker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracker{
		users:     make(map[string]*userState),
		index:     make(map[string]string),
		archiver:  archiver,
		logger:    logger,
		collector: collector,
		maxAge:    cfg.MaxAge,
		now:       time.Now,
	}
}

// Begin registers an in-flight request for the given user. The request ID
// must be unique across all users: if it is already active anywhere, Begin
// returns ErrDuplicateRequestID and leaves all state unchanged. A user
// entry is created on first use.
func (t *Tracker) Begin(userID, requestID string, meta Metadata) error {
	if userID == "" {
		return errors.New("user id must not be empty")
	}
	if requestID == "" {
		return errors.New("request id must not be empty")
	}

	startedAt := t.now()

	t.mu.Lock()
	if _, exists := t.index[requestID]; exists {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateRequestID, requestID)
	}
	user, ok := t.users[userID]
	trackedUsers := len(t.users)
	if !ok {
		user = newUserState()
		t.users[userID] = user
		trackedUsers++
	}
	t.index[requestID] = userID
	t.mu.Unlock()

	user.mu.Lock()
	user.active[requestID] = ActiveRequest{
		RequestID: requestID,
		Metadata:  meta,
		StartedAt: startedAt,
	}
	user.mu.Unlock()

	active := t.activeTotal.Add(1)
	if t.collector != nil {
		t.collector.RecordRequestBegin(userID)
		t.collector.UpdateActiveRequests(int(active))
		t.collector.UpdateTrackedUsers(trackedUsers)
	}

	t.logger.Debug("request began",
		"user", userID,
		"request_id", requestID,
		"active_total", active)

	return nil
}

// End removes an active request and records it as the owning user's last
// request. The entry is identified by request ID alone. If no active
// request matches, End returns ErrUnknownRequestID; an outcome outside the
// known set returns ErrInvalidOutcome.
//
// When an archiver is configured the completion is forwarded to it after
// the in-memory state has been updated. Archive failures are logged and do
// not affect the returned error.
func (t *Tracker) End(ctx context.Context, requestID string, outcome Outcome) error {
	if requestID == "" {
		return errors.New("request id must not be empty")
	}
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}

	t.mu.RLock()
	userID, ok := t.index[requestID]
	var user *userState
	if ok {
		user = t.users[userID]
	}
	t.mu.RUnlock()
	if user == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRequestID, requestID)
	}

	completedAt := t.now()

	user.mu.Lock()
	req, ok := user.active[requestID]
	if !ok {
		user.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRequestID, requestID)
	}
	delete(user.active, requestID)
	completed := CompletedRequest{
		RequestID:   requestID,
		Outcome:     outcome,
		CompletedAt: completedAt,
	}
	user.last = &completed
	user.mu.Unlock()

	// The index entry is removed only after the request left the user's
	// active set, so a duplicate-ID check never passes while the entry is
	// still visible anywhere.
	t.mu.Lock()
	delete(t.index, requestID)
	t.mu.Unlock()

	active := t.activeTotal.Add(-1)
	duration := completedAt.Sub(req.StartedAt)
	if t.collector != nil {
		t.collector.RecordRequestCompletion(userID, outcome.String(), duration)
		t.collector.UpdateActiveRequests(int(active))
	}

	t.logger.Debug("request completed",
		"user", userID,
		"request_id", requestID,
		"outcome", outcome.String(),
		"duration", duration.String(),
		"active_total", active)

	if t.archiver != nil {
		if err := t.archiver.ArchiveCompletion(ctx, userID, req, completed); err != nil {
			t.logger.Warn("failed to archive completed request",
				"user", userID,
				"request_id", requestID,
				"outcome", outcome.String(),
				"error", err)
		}
	}

	return nil
}

// Snapshot returns the current activity of every user that has at least
// one active request or a recorded last request. Users are ordered by user
// ID ascending; each user's active requests are ordered by start time,
// oldest first. The returned slices and structs are copies and safe to
// retain.
func (t *Tracker) Snapshot() []UserStatus {
	type userEntry struct {
		id    string
		state *userState
	}

	t.mu.RLock()
	entries := make([]userEntry, 0, len(t.users))
	for id, state := range t.users {
		entries = append(entries, userEntry{id: id, state: state})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].id < entries[j].id
	})

	statuses := make([]UserStatus, 0, len(entries))
	for _, e := range entries {
		e.state.mu.Lock()
		if len(e.state.active) == 0 && e.state.last == nil {
			e.state.mu.Unlock()
			continue
		}
		reqs := make([]ActiveRequest, 0, len(e.state.active))
		for _, req := range e.state.active {
			reqs = append(reqs, req)
		}
		var last *CompletedRequest
		if e.state.last != nil {
			c := *e.state.last
			last = &c
		}
		e.state.mu.Unlock()

		sort.Slice(reqs, func(i, j int) bool {
			if reqs[i].StartedAt.Equal(reqs[j].StartedAt) {
				return reqs[i].RequestID < reqs[j].RequestID
			}
			return reqs[i].StartedAt.Before(reqs[j].StartedAt)
		})

		statuses = append(statuses, UserStatus{
			UserID:         e.id,
			ActiveCount:    len(reqs),
			ActiveRequests: reqs,
			LastRequest:    last,
		})
	}

	return statuses
}

// UserActive reports whether the given request ID is currently active and,
// if so, which user owns it.
func (t *Tracker) UserActive(requestID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	userID, ok := t.index[requestID]
	return userID, ok
}

// ActiveCount returns the number of in-flight requests across all users.
func (t *Tracker) ActiveCount() int {
	return int(t.activeTotal.Load())
}

// UserCount returns the number of users the tracker has seen since start.
func (t *Tracker) UserCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.users)
}

// staleEntry identifies one request selected for removal by Sweep.
type staleEntry struct {
	requestID string
	userID    string
	startedAt time.Time
}

// Sweep force-completes every active request older than the configured
// maximum age, recording it with a timed-out outcome exactly as if End had
// been called. It returns the number of requests removed. A non-positive
// maximum age disables sweeping.
//
// Sweep holds no lock while completing entries, so requests that finish
// normally while a sweep runs are simply skipped.
func (t *Tracker) Sweep(ctx context.Context) int {
	if t.maxAge <= 0 {
		return 0
	}
	cutoff := t.now().Add(-t.maxAge)

	t.mu.RLock()
	users := make(map[string]*userState, len(t.users))
	for id, state := range t.users {
		users[id] = state
	}
	t.mu.RUnlock()

	var stale []staleEntry
	for userID, state := range users {
		state.mu.Lock()
		for requestID, req := range state.active {
			if req.StartedAt.Before(cutoff) {
				stale = append(stale, staleEntry{
					requestID: requestID,
					userID:    userID,
					startedAt: req.StartedAt,
				})
			}
		}
		state.mu.Unlock()
	}

	removed := 0
	for _, entry := range stale {
		if err := t.End(ctx, entry.requestID, OutcomeTimedOut); err != nil {
			// Completed normally between collection and removal.
			if errors.Is(err, ErrUnknownRequestID) {
				continue
			}
			t.logger.Warn("failed to sweep stale request",
				"user", entry.userID,
				"request_id", entry.requestID,
				"error", err)
			continue
		}
		removed++
		t.logger.Warn("stale request forcibly completed",
			"user", entry.userID,
			"request_id", entry.requestID,
			"age", t.now().Sub(entry.startedAt).String(),
			"max_age", t.maxAge.String())
	}

	if t.collector != nil {
		t.collector.RecordSweepRemovals(removed)
	}
	if removed > 0 {
		t.logger.Info("activity sweep removed stale requests",
			"removed", removed,
			"max_age", t.maxAge.String())
	}

	return removed
}
