package ratelimit

import (
	"fmt"

	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/ratelimit/storage"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// New builds the limiter described by cfg.
//
// It returns (nil, nil) when rate limiting is disabled; callers treat
// a nil Limiter as "no limiting". When the shared cache is configured
// the returned limiter counts against it with a local fallback,
// otherwise limiting is purely in-process.
func New(cfg config.RateLimitConfig, cacheManager *cache.Manager, logger *logging.Logger, collector *metrics.Collector) (Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Discard()
	}

	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = config.DefaultRateLimitPerMinute
	}

	backend, err := newBackend(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("rate limit storage: %w", err)
	}

	local := NewLocalLimiter(limit, backend, logger, collector)

	backendName := BackendLocal
	var limiter Limiter = local
	if cacheManager != nil && cacheManager.State() != cache.StateDisabled {
		backendName = BackendRedis
		limiter = NewRedisLimiter(limit, cacheManager, local, logger, collector)
	}

	logger.Info("rate limiting enabled",
		"backend", backendName,
		"requests_per_minute", limit,
		"storage", storageName(cfg.Storage))

	return limiter, nil
}

// newBackend builds the persistence backend for local window state.
func newBackend(cfg config.RateLimitStorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite":
		return storage.NewSQLiteBackendWithConfig(storage.SQLiteConfig{
			Path:             cfg.Path,
			SnapshotInterval: cfg.SnapshotInterval,
		})
	default:
		return nil, fmt.Errorf("unknown rate limit storage backend %q", cfg.Backend)
	}
}

func storageName(cfg config.RateLimitStorageConfig) string {
	if cfg.Backend == "" {
		return "memory"
	}
	return cfg.Backend
}
