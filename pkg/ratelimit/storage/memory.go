package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryBackend implements Backend with in-memory storage. It is the
// default backend: fast, thread-safe, and lost on process exit.
type MemoryBackend struct {
	mu     sync.RWMutex
	states map[string]*WindowState
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		states: make(map[string]*WindowState),
	}
}

// Save upserts the window state for a key.
func (m *MemoryBackend) Save(_ context.Context, state *WindowState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}
	if state.Key == "" {
		return errors.New("key cannot be empty")
	}

	stored := copyState(state)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.states[state.Key]; ok && !existing.CreatedAt.IsZero() {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}
	m.states[state.Key] = stored
	return nil
}

// Load returns the state for a key, or nil if the key is unknown.
func (m *MemoryBackend) Load(_ context.Context, key string) (*WindowState, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	return copyState(state), nil
}

// LoadAll returns every persisted state.
func (m *MemoryBackend) LoadAll(_ context.Context) ([]*WindowState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*WindowState, 0, len(m.states))
	for _, state := range m.states {
		out = append(out, copyState(state))
	}
	return out, nil
}

// Cleanup removes states not updated since the given time.
func (m *MemoryBackend) Cleanup(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, state := range m.states {
		if state.UpdatedAt.Before(olderThan) {
			delete(m.states, key)
			removed++
		}
	}
	return removed, nil
}

// Close releases the backend. It is a no-op for the memory backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// Len returns the number of stored states.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

func copyState(state *WindowState) *WindowState {
	out := &WindowState{
		Key:       state.Key,
		UpdatedAt: state.UpdatedAt,
		CreatedAt: state.CreatedAt,
	}
	if len(state.Buckets) > 0 {
		out.Buckets = make([]Bucket, len(state.Buckets))
		copy(out.Buckets, state.Buckets)
	}
	return out
}
