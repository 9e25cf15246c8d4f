package startup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Database is the slice of the application store the guard needs.
type Database interface {
	// Probe verifies the database is reachable within the context deadline.
	Probe(ctx context.Context) error

	// RunMigrations applies pending migrations and returns how many ran.
	RunMigrations(ctx context.Context) (int, error)
}

// Guard gates server startup on database readiness. It runs once, only
// when the run mode is production and auto-migration is enabled, strictly
// before the listener starts: first a bounded reachability probe, then the
// pending migrations. Either step failing is fatal; the caller exits
// instead of serving traffic against an unready database.
//
// In dev mode, or with auto-migration disabled, the guard is skipped
// entirely and migrations are applied out-of-band via the migrate command.
type Guard struct {
	db     Database
	cfg    *config.Config
	logger *logging.Logger

	once   sync.Once
	result error
}

// New creates a startup guard. The logger may be nil, in which case logs
// are discarded.
func New(db Database, cfg *config.Config, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Guard{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Required reports whether the guard will run: production mode with
// auto-migration enabled.
func (g *Guard) Required() bool {
	return g.cfg.IsProd() && g.cfg.Database.AutoMigrate
}

// Run executes the guard sequence. When the guard is not required it
// returns nil immediately. Otherwise it probes the database within the
// configured timeout and applies pending migrations; any failure is
// returned and the process must not take traffic. Run is one-shot: repeat
// calls return the first run's result without re-running anything.
func (g *Guard) Run(ctx context.Context) error {
	if !g.Required() {
		g.logger.Debug("startup guard skipped",
			"mode", g.cfg.Mode,
			"auto_migrate", g.cfg.Database.AutoMigrate)
		return nil
	}

	g.once.Do(func() {
		g.result = g.run(ctx)
	})
	return g.result
}

func (g *Guard) run(ctx context.Context) error {
	timeout := g.cfg.Database.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	g.logger.Info("checking database connection",
		"path", g.cfg.Database.Path,
		"timeout", timeout.String())

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := g.db.Probe(probeCtx); err != nil {
		g.logger.Error("database unreachable, refusing to start",
			"path", g.cfg.Database.Path,
			"timeout", timeout.String(),
			"error", err)
		return fmt.Errorf("database probe: %w", err)
	}

	applied, err := g.db.RunMigrations(ctx)
	if err != nil {
		g.logger.Error("migrations failed, refusing to start",
			"error", err)
		return fmt.Errorf("run migrations: %w", err)
	}

	g.logger.Info("database ready",
		"migrations_applied", applied)

	return nil
}
