package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	var cfg Config
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithMode sets the run mode.
func (b *ConfigBuilder) WithMode(mode string) *ConfigBuilder {
	b.cfg.Mode = mode
	return b
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithCache enables the shared cache with the given endpoint address.
func (b *ConfigBuilder) WithCache(address string) *ConfigBuilder {
	b.cfg.Cache.Enabled = true
	b.cfg.Cache.Address = address
	return b
}

// WithCacheDisabled turns the shared cache off.
func (b *ConfigBuilder) WithCacheDisabled() *ConfigBuilder {
	b.cfg.Cache.Enabled = false
	b.cfg.Cache.Address = ""
	return b
}

// WithActivityMaxAge sets the stale-entry max age.
func (b *ConfigBuilder) WithActivityMaxAge(d time.Duration) *ConfigBuilder {
	b.cfg.Activity.MaxAge = d
	return b
}

// WithRateLimit enables rate limiting with the given per-minute budget.
func (b *ConfigBuilder) WithRateLimit(perMinute int) *ConfigBuilder {
	b.cfg.RateLimit.Enabled = true
	b.cfg.RateLimit.RequestsPerMinute = perMinute
	return b
}

// WithDatabasePath sets the application database file.
func (b *ConfigBuilder) WithDatabasePath(path string) *ConfigBuilder {
	b.cfg.Database.Path = path
	return b
}

// WithAutoMigrate sets the auto-migration toggle.
func (b *ConfigBuilder) WithAutoMigrate(enabled bool) *ConfigBuilder {
	b.cfg.Database.AutoMigrate = enabled
	return b
}

// WithRegistryPath sets the user registry file.
func (b *ConfigBuilder) WithRegistryPath(path string) *ConfigBuilder {
	b.cfg.Registry.Path = path
	return b
}

// WithSession adds a static session token.
func (b *ConfigBuilder) WithSession(token, userID string) *ConfigBuilder {
	b.cfg.Auth.Enabled = true
	b.cfg.Auth.Sessions = append(b.cfg.Auth.Sessions, SessionConfig{
		Token:  token,
		UserID: userID,
	})
	return b
}

// WithAuthDisabled turns session authentication off.
func (b *ConfigBuilder) WithAuthDisabled() *ConfigBuilder {
	b.cfg.Auth.Enabled = false
	return b
}

// MinimalConfig returns the smallest valid configuration: pure defaults.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
