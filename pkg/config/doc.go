// Package config provides configuration management for Mercator Callisto.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("callisto.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("callisto.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CALLISTO_SECTION_FIELD.
// For example:
//
//   - CALLISTO_MODE overrides mode (dev/prod)
//   - CALLISTO_CACHE_ADDRESS overrides cache.address
//   - CALLISTO_RATE_LIMIT_ENABLED overrides rate_limit.enabled
//   - CALLISTO_DATABASE_AUTO_MIGRATE overrides database.auto_migrate
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Optional Cache Endpoint
//
// cache.address may be empty. An unset endpoint (or cache.enabled=false) is
// a supported operating state, not a configuration error: the node runs with
// local-only coordination and never attempts a cache connection.
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("callisto.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.Get()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	mode: "prod"
//
//	server:
//	  listen_address: "0.0.0.0:8090"
//
//	cache:
//	  enabled: true
//	  address: "redis:6379"
//
//	database:
//	  path: "/var/lib/callisto/callisto.db"
//	  auto_migrate: true
//
//	registry:
//	  path: "/etc/callisto/users.yaml"
//	  watch: true
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton uses read-write
// locks to allow concurrent reads while protecting against writes during
// test replacement.
package config
