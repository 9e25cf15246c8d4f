package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g., CALLISTO_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CALLISTO_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Run mode override
	if val := os.Getenv("CALLISTO_MODE"); val != "" {
		cfg.Mode = val
	}

	// Server overrides
	if val := os.Getenv("CALLISTO_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CALLISTO_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Cache overrides
	if val := os.Getenv("CALLISTO_CACHE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_CACHE_ADDRESS"); val != "" {
		cfg.Cache.Address = val
	}
	if val := os.Getenv("CALLISTO_CACHE_PASSWORD"); val != "" {
		cfg.Cache.Password = val
	}
	if val := os.Getenv("CALLISTO_CACHE_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Cache.DB = i
		}
	}
	if val := os.Getenv("CALLISTO_CACHE_KEY_PREFIX"); val != "" {
		cfg.Cache.KeyPrefix = val
	}
	if val := os.Getenv("CALLISTO_CACHE_DIAL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}

	// Activity overrides
	if val := os.Getenv("CALLISTO_ACTIVITY_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Activity.MaxAge = d
		}
	}
	if val := os.Getenv("CALLISTO_ACTIVITY_SWEEP_SCHEDULE"); val != "" {
		cfg.Activity.SweepSchedule = val
	}

	// Rate limit overrides
	if val := os.Getenv("CALLISTO_RATE_LIMIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.RateLimit.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_RATE_LIMIT_REQUESTS_PER_MINUTE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.RequestsPerMinute = i
		}
	}
	if val := os.Getenv("CALLISTO_RATE_LIMIT_STORAGE_BACKEND"); val != "" {
		cfg.RateLimit.Storage.Backend = val
	}
	if val := os.Getenv("CALLISTO_RATE_LIMIT_STORAGE_PATH"); val != "" {
		cfg.RateLimit.Storage.Path = val
	}

	// Database overrides
	if val := os.Getenv("CALLISTO_DATABASE_PATH"); val != "" {
		cfg.Database.Path = val
	}
	if val := os.Getenv("CALLISTO_DATABASE_AUTO_MIGRATE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Database.AutoMigrate = b
		}
	}
	if val := os.Getenv("CALLISTO_DATABASE_PROBE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Database.ProbeTimeout = d
		}
	}

	// Registry overrides
	if val := os.Getenv("CALLISTO_REGISTRY_PATH"); val != "" {
		cfg.Registry.Path = val
	}
	if val := os.Getenv("CALLISTO_REGISTRY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Registry.Watch = b
		}
	}

	// Auth overrides
	if val := os.Getenv("CALLISTO_AUTH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Auth.Enabled = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
