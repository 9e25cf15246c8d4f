package storage

import (
	"context"
	"fmt"
)

// Migration is one versioned schema change.
type Migration struct {
	// Version orders the migration; applied versions are recorded in the
	// schema_migrations table.
	Version int

	// Description is a short human-readable summary.
	Description string

	// SQL is the migration body. It runs inside a transaction together
	// with the version bookkeeping.
	SQL string
}

// Migrations returns the full ordered migration list.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// SchemaVersion returns the highest applied migration version, or 0 for a
// fresh database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return 0, newError("get_schema_version", err)
	}
	return version, nil
}

// Pending returns the migrations that have not been applied yet.
func (s *Store) Pending(ctx context.Context) ([]Migration, error) {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RunMigrations applies all pending migrations in version order and
// returns how many were applied. Each migration runs in its own
// transaction together with its version record, so a failure leaves the
// database at the last fully applied version.
func (s *Store) RunMigrations(ctx context.Context) (int, error) {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return applied, err
		}
		applied++
	}

	if applied > 0 {
		version, _ := s.SchemaVersion(ctx)
		s.logger.Info("migrations applied",
			"count", applied,
			"schema_version", version)
	} else {
		s.logger.Debug("schema up to date", "schema_version", current)
	}

	return applied, nil
}

func (s *Store) applyMigration(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError("begin_migration", err)
	}

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		tx.Rollback()
		return newError("apply_migration",
			fmt.Errorf("version %d (%s): %w", m.Version, m.Description, err))
	}
	if _, err := tx.ExecContext(ctx, insertMigrationVersion, m.Version, m.Description); err != nil {
		tx.Rollback()
		return newError("record_migration",
			fmt.Errorf("version %d: %w", m.Version, err))
	}
	if err := tx.Commit(); err != nil {
		return newError("commit_migration", err)
	}

	s.logger.Info("applied migration",
		"version", m.Version,
		"description", m.Description)

	return nil
}
