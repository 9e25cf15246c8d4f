package config

import "time"

// Run modes supported by the Mode field.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Config is the root configuration structure for Mercator Callisto.
// It contains all configuration sections for the HTTP server, the shared
// cache connection, request activity tracking, rate limiting, the application
// database, the user registry, authentication, and telemetry.
type Config struct {
	// Mode selects the run mode.
	// Options: "dev", "prod"
	// In "prod" with database.auto_migrate enabled, the startup guard
	// verifies database reachability and applies migrations before the
	// server accepts traffic.
	// Default: "dev"
	Mode string `yaml:"mode"`

	// Server contains HTTP server configuration including listen address,
	// timeouts, and connection limits.
	Server ServerConfig `yaml:"server"`

	// Cache contains configuration for the shared cache (Redis-compatible)
	// connection. Leaving the address empty is a supported state: the node
	// runs with local-only coordination.
	Cache CacheConfig `yaml:"cache"`

	// Activity contains configuration for the request activity tracker
	// including the stale-entry sweep.
	Activity ActivityConfig `yaml:"activity"`

	// RateLimit contains rate limiting configuration.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Database contains configuration for the application database,
	// including the startup migration behavior.
	Database DatabaseConfig `yaml:"database"`

	// Registry contains configuration for the user registry that maps
	// user IDs to display names.
	Registry RegistryConfig `yaml:"registry"`

	// Auth contains session authentication configuration for the status API.
	Auth AuthConfig `yaml:"auth"`

	// Telemetry contains observability configuration: logging, metrics,
	// and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8090", "0.0.0.0:8090").
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds handler execution per request.
	// Default: 15s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// CacheConfig contains configuration for the shared cache connection.
type CacheConfig struct {
	// Enabled controls whether the shared cache is used at all.
	// When false no connection is ever attempted, regardless of Address.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the cache endpoint in "host:port" form.
	// An empty address with Enabled=true is treated the same as disabled:
	// the capability is silently unavailable and no connection is attempted.
	Address string `yaml:"address"`

	// Password is the cache password. Empty means no authentication.
	// This should typically be injected via CALLISTO_CACHE_PASSWORD.
	Password string `yaml:"password"`

	// DB is the logical database number to select after connecting.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix is prepended to every key written by this node.
	// Default: "callisto:"
	KeyPrefix string `yaml:"key_prefix"`

	// DialTimeout bounds each individual connection attempt.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// ReadTimeout bounds reads on an established connection.
	// Default: 3s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writes on an established connection.
	// Default: 3s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PoolSize is the maximum number of socket connections.
	// Default: 10
	PoolSize int `yaml:"pool_size"`
}

// ActivityConfig contains configuration for the request activity tracker.
type ActivityConfig struct {
	// MaxAge is the age beyond which an in-flight entry is considered
	// abandoned and force-completed with a timed-out outcome.
	// Default: 30m
	MaxAge time.Duration `yaml:"max_age"`

	// SweepSchedule is a cron expression (or @every descriptor) for the
	// stale-entry sweep.
	// Default: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	// Enabled controls whether per-user rate limiting is enforced.
	// When false no limiter is installed and requests pass through.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the per-user request budget per minute window.
	// Default: 120
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Storage configures persistence for local limiter state.
	Storage RateLimitStorageConfig `yaml:"storage"`
}

// RateLimitStorageConfig configures the local limiter state backend.
type RateLimitStorageConfig struct {
	// Backend specifies where local window counters live.
	// Options: "memory", "sqlite"
	// The sqlite backend survives restarts; memory does not.
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file when Backend is "sqlite".
	// Default: "data/ratelimit.db"
	Path string `yaml:"path"`

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5m
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// DatabaseConfig contains configuration for the application database.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/callisto.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// AutoMigrate controls whether pending migrations are applied at boot.
	// In prod mode this also arms the startup guard: the database must be
	// reachable and migrated before the server takes traffic, or the
	// process exits.
	// Default: false
	AutoMigrate bool `yaml:"auto_migrate"`

	// ProbeTimeout bounds the startup reachability probe.
	// Default: 5s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// RegistryConfig contains configuration for the user registry.
type RegistryConfig struct {
	// Path is the YAML user directory file.
	// Default: "users.yaml"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the registry file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload triggers
	// after file change events.
	// Default: 200ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// AuthConfig contains session authentication configuration.
type AuthConfig struct {
	// Enabled controls whether the status API requires a session.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// HeaderName is the header carrying the session token.
	// Default: "Authorization"
	HeaderName string `yaml:"header_name"`

	// Scheme is the authentication scheme for header extraction.
	// Example: "Bearer" (for "Authorization: Bearer <token>")
	// Default: "Bearer"
	Scheme string `yaml:"scheme"`

	// Sessions is the static session table used by the built-in store.
	// Production deployments replace the store via the SessionStore
	// interface; this table backs dev and test setups.
	Sessions []SessionConfig `yaml:"sessions"`
}

// SessionConfig declares one static session token.
type SessionConfig struct {
	// Token is the session token value.
	// Should be cryptographically random (min 32 bytes recommended).
	Token string `yaml:"token"`

	// UserID is the user identifier bound to this session.
	UserID string `yaml:"user_id"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets enables redaction of tokens and passwords in logs.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "callisto"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request
	// duration (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health/live"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/health/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// IsProd reports whether the configuration selects production mode.
func (c *Config) IsProd() bool {
	return c.Mode == ModeProd
}

// CacheConfigured reports whether a cache endpoint is usable: the feature
// flag is on and an address is present. Absence of either is a supported
// state, not an error.
func (c *CacheConfig) CacheConfigured() bool {
	return c.Enabled && c.Address != ""
}
