package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Store is the application database. It holds the persisted request
// history and the schema migration state, backed by a single SQLite file.
type Store struct {
	db     *sql.DB
	cfg    config.DatabaseConfig
	logger *logging.Logger

	// stmts caches prepared statements by query text.
	mu    sync.RWMutex
	stmts map[string]*sql.Stmt

	closeOnce sync.Once
	closeErr  error
}

// Open opens the application database and applies the connection pragmas.
// It does not run migrations; see RunMigrations. The logger may be nil, in
// which case logs are discarded.
func Open(cfg config.DatabaseConfig, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Path == "" {
		return nil, newError("open", errors.New("database path cannot be empty"))
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, newError("open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stmts:  make(map[string]*sql.Stmt),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("application storage opened",
		"path", cfg.Path,
		"max_open_conns", cfg.MaxOpenConns)

	return s, nil
}

// initialize applies the connection pragmas and ensures the migration
// bookkeeping table exists.
func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return newError("enable_wal", err)
	}

	busyTimeoutMs := s.cfg.BusyTimeout.Milliseconds()
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = 5000
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return newError("set_busy_timeout", err)
	}

	if _, err := s.db.Exec(createMigrationsTable); err != nil {
		return newError("create_migrations_table", err)
	}

	return nil
}

// Probe verifies that the database is reachable and answers queries. The
// caller bounds the probe with the context deadline.
func (s *Store) Probe(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return newError("probe", err)
	}
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1;").Scan(&one); err != nil {
		return newError("probe", err)
	}
	return nil
}

// getStmt returns a prepared statement for the query, preparing and
// caching it on first use.
func (s *Store) getStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	s.mu.RLock()
	stmt, ok := s.stmts[query]
	s.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stmt, ok := s.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, newError("prepare", err)
	}
	s.stmts[query] = stmt
	return stmt, nil
}

// Close releases the prepared statements and the database connection. It
// is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for _, stmt := range s.stmts {
			stmt.Close()
		}
		s.stmts = make(map[string]*sql.Stmt)
		s.mu.Unlock()

		if err := s.db.Close(); err != nil {
			s.closeErr = newError("close", err)
			return
		}
		s.logger.Info("application storage closed")
	})
	return s.closeErr
}
