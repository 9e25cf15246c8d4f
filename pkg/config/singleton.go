package config

import "sync"

var (
	// globalConfig holds the singleton configuration instance.
	globalConfig *Config

	// configMutex protects access to globalConfig.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from the specified path with environment
// variable overrides and stores it as the global singleton configuration.
// This function should be called once at application startup; subsequent
// calls are ignored.
//
// Returns an error if configuration loading or validation fails.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		configMutex.Unlock()
	})

	return initErr
}

// Get returns the global configuration instance, or nil if Initialize has
// not been called successfully. Safe for concurrent use.
//
// For testing, prefer dependency injection with explicit Config instances
// rather than relying on the global singleton.
func Get() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// Set replaces the global configuration instance. Intended for tests;
// production code loads through Initialize.
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// Must returns the global configuration instance and panics if it has not
// been initialized. Only use in code paths that run after a successful
// Initialize (e.g., request handlers installed during startup).
func Must() *Config {
	cfg := Get()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
