package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
)

// ============================================================================
// Test Helpers
// ============================================================================

const testUsersYAML = `
users:
  - id: alice
    name: Alice Anderson
  - id: bob
    name: Bob Burton
  - id: carol
    name: Carol Chen
`

func writeUsersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRegistry(t *testing.T, content string) *Registry {
	t.Helper()
	r, err := New(config.RegistryConfig{Path: writeUsersFile(t, content)}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// ============================================================================
// Loading
// ============================================================================

func TestRegistry_LoadAndLookup(t *testing.T) {
	r := testRegistry(t, testUsersYAML)

	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}

	user, ok := r.Lookup("alice")
	if !ok {
		t.Fatal("Lookup(alice) ok = false, want true")
	}
	if user.Name != "Alice Anderson" {
		t.Errorf("Name = %q, want %q", user.Name, "Alice Anderson")
	}
	if user.ID != "alice" {
		t.Errorf("ID = %q, want alice", user.ID)
	}
}

func TestRegistry_LookupUnknownFallsBackToID(t *testing.T) {
	r := testRegistry(t, testUsersYAML)

	user, ok := r.Lookup("mallory")
	if ok {
		t.Error("Lookup(mallory) ok = true, want false")
	}
	if user.ID != "mallory" || user.Name != "mallory" {
		t.Errorf("fallback user = %+v, want ID and Name both %q", user, "mallory")
	}
}

func TestRegistry_MissingFileStartsEmpty(t *testing.T) {
	cfg := config.RegistryConfig{Path: filepath.Join(t.TempDir(), "absent.yaml")}

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() with missing file error = %v, want nil", err)
	}
	defer r.Close()

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
	if _, ok := r.Lookup("alice"); ok {
		t.Error("Lookup on empty registry ok = true, want false")
	}
}

func TestRegistry_MalformedFileFails(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "users: [{{"},
		{"missing id", "users:\n  - name: No ID"},
		{"duplicate id", "users:\n  - id: alice\n    name: A\n  - id: alice\n    name: B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.RegistryConfig{Path: writeUsersFile(t, tt.content)}
			if _, err := New(cfg, nil); err == nil {
				t.Error("New() error = nil, want load failure")
			}
		})
	}
}

func TestRegistry_NameDefaultsToID(t *testing.T) {
	r := testRegistry(t, "users:\n  - id: dave")

	user, ok := r.Lookup("dave")
	if !ok {
		t.Fatal("Lookup(dave) ok = false")
	}
	if user.Name != "dave" {
		t.Errorf("Name = %q, want id fallback %q", user.Name, "dave")
	}
}

func TestRegistry_UsersSorted(t *testing.T) {
	r := testRegistry(t, testUsersYAML)

	users := r.Users()
	if len(users) != 3 {
		t.Fatalf("len(Users()) = %d, want 3", len(users))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if users[i].ID != want {
			t.Errorf("Users()[%d].ID = %q, want %q", i, users[i].ID, want)
		}
	}
}

// ============================================================================
// Reload
// ============================================================================

func TestRegistry_ReloadReplacesDirectory(t *testing.T) {
	path := writeUsersFile(t, testUsersYAML)
	r, err := New(config.RegistryConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(path, []byte("users:\n  - id: dave\n    name: Dave"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if r.Count() != 1 {
		t.Errorf("Count() after reload = %d, want 1", r.Count())
	}
	if _, ok := r.Lookup("alice"); ok {
		t.Error("alice survived the reload")
	}
	if _, ok := r.Lookup("dave"); !ok {
		t.Error("dave missing after reload")
	}
}

func TestRegistry_FailedReloadKeepsPrevious(t *testing.T) {
	path := writeUsersFile(t, testUsersYAML)
	r, err := New(config.RegistryConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(path, []byte("users: [{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("Reload() of malformed file error = nil, want error")
	}

	// The previous directory still serves lookups.
	if r.Count() != 3 {
		t.Errorf("Count() after failed reload = %d, want 3", r.Count())
	}
	if _, ok := r.Lookup("alice"); !ok {
		t.Error("alice lost after failed reload")
	}
}

// ============================================================================
// Watching
// ============================================================================

func TestRegistry_WatchReloadsOnChange(t *testing.T) {
	path := writeUsersFile(t, testUsersYAML)
	cfg := config.RegistryConfig{
		Path:             path,
		Watch:            true,
		DebounceInterval: 50 * time.Millisecond,
	}

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Watch(ctx)

	// Give the watcher time to register before changing the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("users:\n  - id: dave\n    name: Dave"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		if _, ok := r.Lookup("dave"); ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("registry did not reload after file change")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestRegistry_WatchDisabledIsNoOp(t *testing.T) {
	r := testRegistry(t, testUsersYAML)

	// Watch without cfg.Watch must not panic or spawn anything.
	r.Watch(context.Background())

	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
}

func TestRegistry_CloseIdempotent(t *testing.T) {
	path := writeUsersFile(t, testUsersYAML)
	cfg := config.RegistryConfig{Path: path, Watch: true}

	r, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
