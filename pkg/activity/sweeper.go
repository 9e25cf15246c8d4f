package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Sweeper runs the tracker's stale-entry sweep on a cron schedule. Entries
// older than the configured maximum age are force-completed with a
// timed-out outcome so that abandoned requests cannot accumulate.
type Sweeper struct {
	tracker  *Tracker
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *logging.Logger
	running  bool
}

// NewSweeper creates a sweeper for the given tracker. The logger may be
// nil, in which case logs are discarded.
func NewSweeper(tracker *Tracker, cfg config.ActivityConfig, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sweeper{
		tracker:  tracker,
		schedule: cfg.SweepSchedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start begins the scheduled sweeping. The schedule is a standard cron
// expression or a descriptor such as "@every 1m". An empty schedule
// disables the sweeper and Start returns nil.
//
// The sweeper stops when ctx is canceled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("activity sweeper started",
		"schedule", s.schedule,
		"max_age", s.tracker.maxAge.String())

	// Stop with the surrounding lifecycle.
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one sweep cycle.
func (s *Sweeper) runSweep(ctx context.Context) {
	removed := s.tracker.Sweep(ctx)
	if removed == 0 {
		s.logger.Debug("activity sweep completed, no stale requests")
	}
}

// Stop stops the sweeper and waits for a running sweep to complete. It is
// safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("activity sweeper stopped")
	}
}

// IsRunning returns true if the sweeper is running.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time, or nil when the sweeper
// is not running.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
