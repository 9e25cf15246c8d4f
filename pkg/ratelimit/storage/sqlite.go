package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence. It keeps
// local window counters across restarts and is suitable for
// single-instance deployments.
//
// The backend opens the database in WAL mode and checkpoints it
// periodically to balance write performance with durability.
type SQLiteBackend struct {
	db               *sql.DB
	dbPath           string
	snapshotInterval time.Duration
	done             chan struct{}
	mu               sync.RWMutex
	closeOnce        sync.Once

	saveStmt    *sql.Stmt
	loadStmt    *sql.Stmt
	loadAllStmt *sql.Stmt
	cleanupStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the SQLite database file.
	Path string

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	SnapshotInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a SQLite backend at the given path with default
// settings.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteBackendWithConfig creates a SQLite backend with custom
// configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteConfig) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:               db,
		dbPath:           cfg.Path,
		snapshotInterval: cfg.SnapshotInterval,
		done:             make(chan struct{}),
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go backend.checkpointLoop()

	return backend, nil
}

func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_windows (
		identifier TEXT PRIMARY KEY,
		buckets TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rate_windows_updated ON rate_windows(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteBackend) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO rate_windows (identifier, buckets, updated_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (identifier) DO UPDATE SET
			buckets = excluded.buckets,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT identifier, buckets, updated_at, created_at
		FROM rate_windows
		WHERE identifier = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.loadAllStmt, err = s.db.Prepare(`
		SELECT identifier, buckets, updated_at, created_at
		FROM rate_windows
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load-all statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM rate_windows
		WHERE updated_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Save upserts the window state for a key.
func (s *SQLiteBackend) Save(ctx context.Context, state *WindowState) error {
	if state == nil {
		return errors.New("state cannot be nil")
	}
	if state.Key == "" {
		return errors.New("key cannot be empty")
	}

	bucketsJSON, err := json.Marshal(state.Buckets)
	if err != nil {
		return fmt.Errorf("failed to marshal buckets: %w", err)
	}

	now := time.Now()
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	createdAt := state.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		state.Key,
		string(bucketsJSON),
		updatedAt.Unix(),
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Load returns the state for a key, or nil if the key is unknown.
func (s *SQLiteBackend) Load(ctx context.Context, key string) (*WindowState, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := scanWindowRow(s.loadStmt.QueryRowContext(ctx, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return state, nil
}

// LoadAll returns every persisted state.
func (s *SQLiteBackend) LoadAll(ctx context.Context) ([]*WindowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.loadAllStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load states: %w", err)
	}
	defer rows.Close()

	var states []*WindowState
	for rows.Next() {
		state, err := scanWindowRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return states, nil
}

// Cleanup removes states not updated since the given time.
func (s *SQLiteBackend) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases any resources held by the backend.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteBackend) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.loadStmt != nil {
			s.loadStmt.Close()
		}
		if s.loadAllStmt != nil {
			s.loadAllStmt.Close()
		}
		if s.cleanupStmt != nil {
			s.cleanupStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteBackend) checkpointLoop() {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWindowRow(row rowScanner) (*WindowState, error) {
	var (
		key         string
		bucketsJSON string
		updatedAt   int64
		createdAt   int64
	)
	if err := row.Scan(&key, &bucketsJSON, &updatedAt, &createdAt); err != nil {
		return nil, err
	}

	state := &WindowState{
		Key:       key,
		UpdatedAt: time.Unix(updatedAt, 0),
		CreatedAt: time.Unix(createdAt, 0),
	}
	if bucketsJSON != "" {
		if err := json.Unmarshal([]byte(bucketsJSON), &state.Buckets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal buckets: %w", err)
		}
	}
	return state, nil
}
