package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateMode(cfg.Mode)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateActivity(&cfg.Activity)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateRegistry(&cfg.Registry)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateMode validates the run mode.
func validateMode(mode string) []FieldError {
	var errs []FieldError

	validModes := map[string]bool{ModeDev: true, ModeProd: true}
	if mode == "" {
		errs = append(errs, FieldError{
			Field:   "mode",
			Message: "mode is required",
		})
	} else if !validModes[mode] {
		errs = append(errs, FieldError{
			Field:   "mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'dev' or 'prod'", mode),
		})
	}

	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// validateCache validates cache configuration.
// An empty address is deliberately not an error even when enabled:
// it means the shared cache is not provisioned for this deployment.
func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.Address != "" && !strings.Contains(cfg.Address, ":") {
		errs = append(errs, FieldError{
			Field:   "cache.address",
			Message: fmt.Sprintf("invalid address %q: expected host:port", cfg.Address),
		})
	}

	if cfg.DB < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.db",
			Message: "db must be non-negative",
		})
	}
	if cfg.DialTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.dial_timeout",
			Message: "dial timeout must be positive",
		})
	}
	if cfg.PoolSize < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.pool_size",
			Message: "pool size must be non-negative",
		})
	}

	return errs
}

// validateActivity validates activity tracker configuration.
func validateActivity(cfg *ActivityConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAge <= 0 {
		errs = append(errs, FieldError{
			Field:   "activity.max_age",
			Message: "max age must be positive",
		})
	}
	if cfg.MaxAge > 24*time.Hour {
		errs = append(errs, FieldError{
			Field:   "activity.max_age",
			Message: "max age exceeds reasonable limit (24h)",
		})
	}

	if cfg.SweepSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "activity.sweep_schedule",
			Message: "sweep schedule is required",
		})
	} else if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "activity.sweep_schedule",
			Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.SweepSchedule, err),
		})
	}

	return errs
}

// validateRateLimit validates rate limiting configuration.
func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if cfg.RequestsPerMinute < 0 {
		errs = append(errs, FieldError{
			Field:   "rate_limit.requests_per_minute",
			Message: "requests per minute must be non-negative",
		})
	}
	if cfg.RequestsPerMinute > 100000 {
		errs = append(errs, FieldError{
			Field:   "rate_limit.requests_per_minute",
			Message: "requests per minute exceeds reasonable limit (100,000)",
		})
	}

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if cfg.Storage.Backend == "" {
		errs = append(errs, FieldError{
			Field:   "rate_limit.storage.backend",
			Message: "backend is required",
		})
	} else if !validBackends[cfg.Storage.Backend] {
		errs = append(errs, FieldError{
			Field:   "rate_limit.storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Storage.Backend),
		})
	}

	if cfg.Storage.Backend == "sqlite" {
		if cfg.Storage.Path == "" {
			errs = append(errs, FieldError{
				Field:   "rate_limit.storage.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.Storage.SnapshotInterval < 0 {
			errs = append(errs, FieldError{
				Field:   "rate_limit.storage.snapshot_interval",
				Message: "snapshot interval must be positive",
			})
		}
	}

	return errs
}

// validateDatabase validates application database configuration.
func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "database.path",
			Message: "database path is required",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "database.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{
			Field:   "database.max_open_conns",
			Message: "max open connections must be at least 1",
		})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "database.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.ProbeTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "database.probe_timeout",
			Message: "probe timeout must be positive",
		})
	}
	if cfg.ProbeTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "database.probe_timeout",
			Message: "probe timeout exceeds reasonable limit (60s)",
		})
	}

	return errs
}

// validateRegistry validates user registry configuration.
func validateRegistry(cfg *RegistryConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "registry.path",
			Message: "registry path is required",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "registry.debounce_interval",
			Message: "debounce interval must be positive",
		})
	}

	return errs
}

// validateAuth validates authentication configuration.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.HeaderName == "" {
		errs = append(errs, FieldError{
			Field:   "auth.header_name",
			Message: "header name is required when auth is enabled",
		})
	}

	seen := make(map[string]bool, len(cfg.Sessions))
	for i, s := range cfg.Sessions {
		prefix := fmt.Sprintf("auth.sessions[%d]", i)
		if s.Token == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".token",
				Message: "token is required",
			})
		}
		if s.UserID == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".user_id",
				Message: "user_id is required",
			})
		}
		if s.Token != "" && seen[s.Token] {
			errs = append(errs, FieldError{
				Field:   prefix + ".token",
				Message: "duplicate session token",
			})
		}
		seen[s.Token] = true
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.Namespace == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.namespace",
				Message: "namespace is required when metrics are enabled",
			})
		}
	}

	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path is required when health checks are enabled",
			})
		} else if cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if cfg.Health.ReadinessPath == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path is required when health checks are enabled",
			})
		} else if cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}

		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}
