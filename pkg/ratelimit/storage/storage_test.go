package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// backendFactory builds a fresh backend per test so both implementations
// run the same suite.
type backendFactory func(t *testing.T) Backend

func memoryFactory(t *testing.T) Backend {
	t.Helper()
	backend := NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })
	return backend
}

func sqliteFactory(t *testing.T) Backend {
	t.Helper()
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "ratelimit.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": memoryFactory,
		"sqlite": sqliteFactory,
	}
}

func testState(key string, updatedAt time.Time) *WindowState {
	return &WindowState{
		Key: key,
		Buckets: []Bucket{
			{Start: updatedAt.Truncate(time.Second), Count: 3},
			{Start: updatedAt.Truncate(time.Second).Add(-time.Second), Count: 1},
		},
		UpdatedAt: updatedAt,
		CreatedAt: updatedAt,
	}
}

func TestBackend_SaveAndLoad(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			now := time.Now().Truncate(time.Second)
			if err := backend.Save(ctx, testState("alice", now)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			state, err := backend.Load(ctx, "alice")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if state == nil {
				t.Fatal("Load() = nil for saved key")
			}
			if state.Key != "alice" {
				t.Errorf("Key = %q, want alice", state.Key)
			}
			if len(state.Buckets) != 2 {
				t.Fatalf("len(Buckets) = %d, want 2", len(state.Buckets))
			}
			if state.Buckets[0].Count != 3 || state.Buckets[1].Count != 1 {
				t.Errorf("bucket counts = %d, %d, want 3, 1", state.Buckets[0].Count, state.Buckets[1].Count)
			}
		})
	}
}

func TestBackend_LoadUnknownKey(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)

			state, err := backend.Load(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if state != nil {
				t.Errorf("Load() = %+v for unknown key, want nil", state)
			}
		})
	}
}

func TestBackend_SaveOverwrites(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			now := time.Now().Truncate(time.Second)
			if err := backend.Save(ctx, testState("alice", now)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			updated := &WindowState{
				Key:       "alice",
				Buckets:   []Bucket{{Start: now, Count: 9}},
				UpdatedAt: now.Add(time.Minute),
			}
			if err := backend.Save(ctx, updated); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}

			state, err := backend.Load(ctx, "alice")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(state.Buckets) != 1 || state.Buckets[0].Count != 9 {
				t.Errorf("Buckets = %+v, want single bucket with count 9", state.Buckets)
			}
		})
	}
}

func TestBackend_SavePreservesCreatedAt(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			created := time.Now().Truncate(time.Second).Add(-time.Hour)
			if err := backend.Save(ctx, testState("alice", created)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			later := testState("alice", created.Add(time.Hour))
			later.CreatedAt = time.Time{}
			if err := backend.Save(ctx, later); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}

			state, err := backend.Load(ctx, "alice")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !state.CreatedAt.Equal(created) {
				t.Errorf("CreatedAt = %v, want original %v", state.CreatedAt, created)
			}
		})
	}
}

func TestBackend_SaveValidation(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			if err := backend.Save(ctx, nil); err == nil {
				t.Error("Save(nil) should fail")
			}
			if err := backend.Save(ctx, &WindowState{}); err == nil {
				t.Error("Save() with empty key should fail")
			}
		})
	}
}

func TestBackend_LoadAll(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			now := time.Now().Truncate(time.Second)
			for _, key := range []string{"alice", "bob", "carol"} {
				if err := backend.Save(ctx, testState(key, now)); err != nil {
					t.Fatalf("Save(%s) error = %v", key, err)
				}
			}

			states, err := backend.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll() error = %v", err)
			}
			if len(states) != 3 {
				t.Errorf("LoadAll() returned %d states, want 3", len(states))
			}
			seen := map[string]bool{}
			for _, state := range states {
				seen[state.Key] = true
			}
			for _, key := range []string{"alice", "bob", "carol"} {
				if !seen[key] {
					t.Errorf("LoadAll() missing key %q", key)
				}
			}
		})
	}
}

func TestBackend_Cleanup(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			backend := factory(t)
			ctx := context.Background()

			now := time.Now().Truncate(time.Second)
			if err := backend.Save(ctx, testState("stale", now.Add(-time.Hour))); err != nil {
				t.Fatalf("Save(stale) error = %v", err)
			}
			if err := backend.Save(ctx, testState("fresh", now)); err != nil {
				t.Fatalf("Save(fresh) error = %v", err)
			}

			removed, err := backend.Cleanup(ctx, now.Add(-time.Minute))
			if err != nil {
				t.Fatalf("Cleanup() error = %v", err)
			}
			if removed != 1 {
				t.Errorf("Cleanup() removed %d, want 1", removed)
			}

			if state, _ := backend.Load(ctx, "stale"); state != nil {
				t.Error("stale state survived cleanup")
			}
			if state, _ := backend.Load(ctx, "fresh"); state == nil {
				t.Error("fresh state was removed by cleanup")
			}
		})
	}
}

func TestMemoryBackend_Len(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	if backend.Len() != 0 {
		t.Errorf("Len() = %d for empty backend, want 0", backend.Len())
	}

	now := time.Now()
	for _, key := range []string{"alice", "bob"} {
		if err := backend.Save(ctx, testState(key, now)); err != nil {
			t.Fatalf("Save(%s) error = %v", key, err)
		}
	}
	if backend.Len() != 2 {
		t.Errorf("Len() = %d, want 2", backend.Len())
	}
}

func TestMemoryBackend_LoadReturnsCopy(t *testing.T) {
	backend := NewMemoryBackend()
	ctx := context.Background()

	now := time.Now()
	if err := backend.Save(ctx, testState("alice", now)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	first, err := backend.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first.Buckets[0].Count = 999

	second, err := backend.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.Buckets[0].Count == 999 {
		t.Error("mutating a loaded state leaked back into the backend")
	}
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimit.db")
	ctx := context.Background()

	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	now := time.Now().Truncate(time.Second)
	if err := backend.Save(ctx, testState("alice", now)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	state, err := reopened.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() after reopen error = %v", err)
	}
	if state == nil || len(state.Buckets) != 2 {
		t.Errorf("state after reopen = %+v, want persisted buckets", state)
	}
}

func TestSQLiteBackend_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteBackend(""); err == nil {
		t.Fatal("NewSQLiteBackend(\"\") should fail")
	}
}

func TestSQLiteBackend_CloseIdempotent(t *testing.T) {
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "ratelimit.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
