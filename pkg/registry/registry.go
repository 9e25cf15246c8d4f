package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// User is one entry in the user directory.
type User struct {
	// ID is the stable user identifier requests are tracked under.
	ID string `yaml:"id" json:"id"`

	// Name is the display name shown in status responses.
	Name string `yaml:"name" json:"name"`
}

// Resolver resolves user IDs to directory entries.
type Resolver interface {
	// Lookup returns the directory entry for userID. When the user is
	// not in the directory it returns a synthesized entry whose Name
	// is the bare userID, with ok false. Callers can always use the
	// returned User.
	Lookup(userID string) (User, bool)
}

// Registry is a file-backed user directory with atomic hot reload.
//
// The YAML file holds a list of users:
//
//	users:
//	  - id: alice
//	    name: Alice Anderson
//	  - id: bob
//	    name: Bob Burton
//
// Lookups are served from an in-memory map that is replaced wholesale
// on reload, so readers never observe a partially loaded directory.
type Registry struct {
	path   string
	logger *logging.Logger

	mu       sync.RWMutex
	users    map[string]User
	loadedAt time.Time

	watcher *fileWatcher
}

// userFile is the on-disk document shape.
type userFile struct {
	Users []User `yaml:"users"`
}

// New creates a registry from cfg and performs the initial load.
//
// A file that does not exist yields an empty registry and a warning;
// a file that exists but cannot be parsed is an error.
func New(cfg config.RegistryConfig, logger *logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	r := &Registry{
		path:   cfg.Path,
		logger: logger,
		users:  make(map[string]User),
	}

	if cfg.Watch {
		watcher, err := newFileWatcher(cfg.Path, cfg.DebounceInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("registry watcher: %w", err)
		}
		r.watcher = watcher
	}

	if err := r.Reload(); err != nil {
		if r.watcher != nil {
			r.watcher.stop()
		}
		return nil, err
	}

	return r, nil
}

// Lookup returns the directory entry for userID.
func (r *Registry) Lookup(userID string) (User, bool) {
	r.mu.RLock()
	user, ok := r.users[userID]
	r.mu.RUnlock()

	if ok {
		return user, true
	}
	return User{ID: userID, Name: userID}, false
}

// Reload re-reads the registry file and atomically replaces the
// directory. On failure the previous directory stays in place.
func (r *Registry) Reload() error {
	users, err := loadUserFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("user registry file not found, starting empty",
				"path", r.path)
			r.replace(make(map[string]User))
			return nil
		}
		return fmt.Errorf("load user registry: %w", err)
	}

	r.replace(users)
	r.logger.Info("user registry loaded",
		"path", r.path,
		"users", len(users))

	return nil
}

// Watch starts reloading the registry when its file changes. It is a
// no-op when watching was not enabled in the configuration. The
// watcher stops when ctx is cancelled or Close is called.
func (r *Registry) Watch(ctx context.Context) {
	if r.watcher == nil {
		return
	}

	go func() {
		if err := r.watcher.watch(ctx, r.Reload); err != nil {
			r.logger.Error("registry watcher exited", "error", err)
		}
	}()
}

// Close stops the file watcher if one is running.
func (r *Registry) Close() error {
	if r.watcher != nil {
		r.watcher.stop()
	}
	return nil
}

// Count returns the number of users in the directory.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Users returns all directory entries sorted by ID.
func (r *Registry) Users() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users
}

// LoadedAt returns when the directory was last replaced.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

func (r *Registry) replace(users map[string]User) {
	r.mu.Lock()
	r.users = users
	r.loadedAt = time.Now()
	r.mu.Unlock()
}

// loadUserFile reads and validates the YAML user directory at path.
func loadUserFile(path string) (map[string]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: invalid UTF-8", path)
	}

	var doc userFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	users := make(map[string]User, len(doc.Users))
	for i, user := range doc.Users {
		if user.ID == "" {
			return nil, fmt.Errorf("%s: user %d has no id", path, i)
		}
		if _, dup := users[user.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate user id %q", path, user.ID)
		}
		if user.Name == "" {
			user.Name = user.ID
		}
		users[user.ID] = user
	}

	return users, nil
}
