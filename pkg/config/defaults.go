package config

import "time"

// Default values for configuration fields.
const (
	// Mode default
	DefaultMode = ModeDev

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Cache defaults
	DefaultCacheKeyPrefix    = "callisto:"
	DefaultCacheDialTimeout  = 5 * time.Second
	DefaultCacheReadTimeout  = 3 * time.Second
	DefaultCacheWriteTimeout = 3 * time.Second
	DefaultCachePoolSize     = 10

	// Activity defaults
	DefaultActivityMaxAge        = 30 * time.Minute
	DefaultActivitySweepSchedule = "@every 1m"

	// Rate limit defaults
	DefaultRateLimitPerMinute        = 120
	DefaultRateLimitStorageBackend   = "memory"
	DefaultRateLimitStoragePath      = "data/ratelimit.db"
	DefaultRateLimitSnapshotInterval = 5 * time.Minute

	// Database defaults
	DefaultDatabasePath         = "data/callisto.db"
	DefaultDatabaseBusyTimeout  = 5 * time.Second
	DefaultDatabaseMaxOpenConns = 10
	DefaultDatabaseMaxIdleConns = 5
	DefaultDatabaseProbeTimeout = 5 * time.Second

	// Registry defaults
	DefaultRegistryPath     = "users.yaml"
	DefaultRegistryDebounce = 200 * time.Millisecond

	// Auth defaults
	DefaultAuthHeaderName = "Authorization"
	DefaultAuthScheme     = "Bearer"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "mercator"
	DefaultMetricsSubsystem   = "callisto"
	DefaultHealthLivenessPath = "/health/live"
	DefaultHealthReadyPath    = "/health/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Mode default
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Cache defaults. Enabled stays false unless set: the shared cache
	// is opt-in and its absence is a normal operating state.
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.DialTimeout == 0 {
		cfg.Cache.DialTimeout = DefaultCacheDialTimeout
	}
	if cfg.Cache.ReadTimeout == 0 {
		cfg.Cache.ReadTimeout = DefaultCacheReadTimeout
	}
	if cfg.Cache.WriteTimeout == 0 {
		cfg.Cache.WriteTimeout = DefaultCacheWriteTimeout
	}
	if cfg.Cache.PoolSize == 0 {
		cfg.Cache.PoolSize = DefaultCachePoolSize
	}

	// Activity defaults
	if cfg.Activity.MaxAge == 0 {
		cfg.Activity.MaxAge = DefaultActivityMaxAge
	}
	if cfg.Activity.SweepSchedule == "" {
		cfg.Activity.SweepSchedule = DefaultActivitySweepSchedule
	}

	// Rate limit defaults. Enabled stays false unless set.
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.RateLimit.Storage.Backend == "" {
		cfg.RateLimit.Storage.Backend = DefaultRateLimitStorageBackend
	}
	if cfg.RateLimit.Storage.Path == "" {
		cfg.RateLimit.Storage.Path = DefaultRateLimitStoragePath
	}
	if cfg.RateLimit.Storage.SnapshotInterval == 0 {
		cfg.RateLimit.Storage.SnapshotInterval = DefaultRateLimitSnapshotInterval
	}

	// Database defaults. AutoMigrate stays false unless set.
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDatabaseMaxIdleConns
	}
	if cfg.Database.ProbeTimeout == 0 {
		cfg.Database.ProbeTimeout = DefaultDatabaseProbeTimeout
	}

	// Registry defaults. Watch stays false unless set.
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = DefaultRegistryPath
	}
	if cfg.Registry.DebounceInterval == 0 {
		cfg.Registry.DebounceInterval = DefaultRegistryDebounce
	}

	// Auth defaults
	applyAuthDefaults(cfg)
	if cfg.Auth.HeaderName == "" {
		cfg.Auth.HeaderName = DefaultAuthHeaderName
	}
	if cfg.Auth.Scheme == "" {
		cfg.Auth.Scheme = DefaultAuthScheme
	}

	// Logging defaults
	applyLoggingDefaults(cfg)

	// Metrics and health default to enabled when the section is untouched
	applyMetricsDefaults(cfg)
	applyHealthDefaults(cfg)
}

// applyLoggingDefaults applies default values to logging configuration.
// Redaction follows the auth rule: on for an untouched section, explicit
// once any logging field is set. Session tokens pass through the logs of
// every authenticated request, so the bare-config direction is on.
func applyLoggingDefaults(cfg *Config) {
	l := &cfg.Telemetry.Logging

	if !l.RedactSecrets {
		hasAnyConfig := l.Level != "" ||
			l.Format != "" ||
			l.AddSource

		if !hasAnyConfig {
			l.RedactSecrets = true
		}
	}

	if l.Level == "" {
		l.Level = DefaultLoggingLevel
	}
	if l.Format == "" {
		l.Format = DefaultLoggingFormat
	}
}

// applyAuthDefaults enables authentication unless the section was
// explicitly configured otherwise. The safe direction is on: a bare
// config file must not expose the status API unauthenticated.
func applyAuthDefaults(cfg *Config) {
	auth := &cfg.Auth

	if !auth.Enabled {
		hasAnyConfig := auth.HeaderName != "" ||
			auth.Scheme != "" ||
			len(auth.Sessions) > 0

		if !hasAnyConfig {
			auth.Enabled = true
		}
	}
}

// applyMetricsDefaults applies default values to metrics configuration.
func applyMetricsDefaults(cfg *Config) {
	m := &cfg.Telemetry.Metrics

	if !m.Enabled {
		hasAnyConfig := m.Path != "" ||
			m.Namespace != "" ||
			m.Subsystem != "" ||
			len(m.RequestDurationBuckets) > 0

		if !hasAnyConfig {
			m.Enabled = true
		}
	}

	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if m.Subsystem == "" {
		m.Subsystem = DefaultMetricsSubsystem
	}
	if len(m.RequestDurationBuckets) == 0 {
		m.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}
	}
}

// applyHealthDefaults applies default values to health check configuration.
func applyHealthDefaults(cfg *Config) {
	h := &cfg.Telemetry.Health

	if !h.Enabled {
		hasAnyConfig := h.LivenessPath != "" ||
			h.ReadinessPath != "" ||
			h.CheckTimeout > 0

		if !hasAnyConfig {
			h.Enabled = true
		}
	}

	if h.LivenessPath == "" {
		h.LivenessPath = DefaultHealthLivenessPath
	}
	if h.ReadinessPath == "" {
		h.ReadinessPath = DefaultHealthReadyPath
	}
	if h.CheckTimeout == 0 {
		h.CheckTimeout = DefaultHealthCheckTimeout
	}
}
