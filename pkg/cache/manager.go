package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrDisabled is returned when the shared cache feature flag is off or
	// no endpoint is configured. This is a supported operating state, not a
	// fault; callers degrade to local behavior.
	ErrDisabled = errors.New("shared cache disabled")

	// ErrUnavailable is returned once the connection retry budget is
	// exhausted or the manager has been shut down. It is permanent for the
	// process lifetime.
	ErrUnavailable = errors.New("shared cache unavailable")
)

const (
	// maxAttempts is the total dial budget: the initial attempt plus five
	// retries.
	maxAttempts = 6

	// retryBaseDelay is the backoff unit between attempts.
	retryBaseDelay = 200 * time.Millisecond

	// retryMaxDelay caps the backoff.
	retryMaxDelay = 2 * time.Second
)

// retryDelay returns the wait before retry n (1-based):
// min(n * 200ms, 2s).
func retryDelay(retry int) time.Duration {
	d := time.Duration(retry) * retryBaseDelay
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

// Manager owns at most one client connection to the shared cache per
// process. The connection is created lazily on the first Acquire call and
// memoized; concurrent callers share a single dial sequence.
//
// The manager performs no offline buffering: while the cache is not
// connected, callers get an error immediately and fall back to local
// behavior.
type Manager struct {
	cfg       config.CacheConfig
	logger    *logging.Logger
	collector *metrics.Collector

	state atomic.Int32

	// connectOnce guards the single dial sequence.
	connectOnce sync.Once

	// ready is closed when the dial sequence reaches a terminal outcome.
	ready chan struct{}

	// closed is closed by Shutdown.
	closed    chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	client      *redis.Client
	lastErr     error
	connectedAt time.Time

	attempts atomic.Int32

	// Seams for tests: dial establishes and verifies one connection,
	// sleep waits between attempts and reports false when interrupted
	// by shutdown.
	dial  func(ctx context.Context) (*redis.Client, error)
	sleep func(d time.Duration) bool
}

// New creates a cache connection manager. The collector may be nil when
// metrics are disabled; the logger may be nil, in which case logs are
// discarded.
//
// No connection is attempted here; the first Acquire call starts the dial
// sequence.
func New(cfg config.CacheConfig, logger *logging.Logger, collector *metrics.Collector) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}

	m := &Manager{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		ready:     make(chan struct{}),
		closed:    make(chan struct{}),
	}
	m.dial = m.dialRedis
	m.sleep = m.waitRetry

	if !cfg.CacheConfigured() {
		m.setState(StateDisabled)
		logger.Info("shared cache disabled",
			"enabled", cfg.Enabled,
			"address_configured", cfg.Address != "")
	} else {
		m.setState(StateDisconnected)
	}

	return m
}

// Acquire returns the shared cache client, establishing the connection on
// first use.
//
// It returns ErrDisabled when the feature is off or unconfigured (no
// connection attempt is made), ErrUnavailable once the retry budget is
// exhausted or after shutdown, and the caller's context error if the
// caller gives up while the dial sequence is still in flight. The dial
// sequence itself keeps running; a later call can still pick up the
// connection.
func (m *Manager) Acquire(ctx context.Context) (*redis.Client, error) {
	if !m.cfg.CacheConfigured() {
		return nil, ErrDisabled
	}

	m.connectOnce.Do(func() {
		go m.connect()
	})

	select {
	case <-m.ready:
	case <-m.closed:
		return nil, ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case <-m.closed:
		return nil, ErrUnavailable
	default:
	}

	if m.State() != StateConnected {
		return nil, ErrUnavailable
	}

	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	return client, nil
}

// connect runs the dial sequence: up to maxAttempts attempts with linear
// backoff between them. It runs exactly once per process and ends in
// StateConnected or StateFailed.
func (m *Manager) connect() {
	defer close(m.ready)

	ctx := context.Background()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := retryDelay(attempt - 1)
			m.logger.Info("retrying cache connection",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"delay", delay.String())
			if !m.sleep(delay) {
				// Shutdown while waiting between attempts.
				return
			}
		}

		m.setState(StateConnecting)
		m.attempts.Add(1)

		client, err := m.dial(ctx)
		if err == nil {
			m.mu.Lock()
			m.client = client
			m.connectedAt = time.Now()
			m.mu.Unlock()

			m.setState(StateConnected)
			if m.collector != nil {
				m.collector.RecordCacheConnectAttempt(true)
			}
			m.logger.Info("cache connected",
				"address", m.cfg.Address,
				"attempt", attempt)
			return
		}

		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()

		if m.collector != nil {
			m.collector.RecordCacheConnectAttempt(false)
		}
		m.logger.Warn("cache connection attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err)
	}

	m.setState(StateFailed)
	m.logger.Error("cache permanently unavailable, continuing without shared cache",
		"address", m.cfg.Address,
		"attempts", maxAttempts)
}

// dialRedis establishes one client connection and verifies it with PING.
func (m *Manager) dialRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         m.cfg.Address,
		Password:     m.cfg.Password,
		DB:           m.cfg.DB,
		DialTimeout:  m.cfg.DialTimeout,
		ReadTimeout:  m.cfg.ReadTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		PoolSize:     m.cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// waitRetry sleeps for d, returning false if shutdown interrupts the wait.
func (m *Manager) waitRetry(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.closed:
		return false
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// setState records a state transition and mirrors it to the metrics gauge.
func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	if m.collector != nil {
		m.collector.UpdateCacheState(s.String())
	}
}

// Stats returns a snapshot of the manager for diagnostics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		State:       m.State(),
		Attempts:    int(m.attempts.Load()),
		ConnectedAt: m.connectedAt,
	}
	if m.lastErr != nil {
		stats.LastError = m.lastErr.Error()
	}
	if m.client != nil && stats.State == StateConnected {
		stats.Pool = m.client.PoolStats()
	}
	return stats
}

// Shutdown closes the underlying client if one was ever established. It is
// safe to call when the manager never connected, and safe to call more
// than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)

		m.mu.Lock()
		client := m.client
		m.client = nil
		m.mu.Unlock()

		if client != nil {
			err = client.Close()
			m.setState(StateDisconnected)
			m.logger.Info("cache connection closed")
		}
	})
	return err
}
