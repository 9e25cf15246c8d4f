package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	configContent := `
mode: "prod"

server:
  listen_address: "0.0.0.0:8090"
  read_timeout: "60s"

cache:
  enabled: true
  address: "redis:6379"
  dial_timeout: "2s"

activity:
  max_age: "10m"
  sweep_schedule: "@every 30s"

database:
  path: "./test-callisto.db"
  auto_migrate: true

telemetry:
  logging:
    level: "debug"
    format: "text"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Mode != ModeProd {
		t.Errorf("expected mode %q, got %q", ModeProd, cfg.Mode)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:8090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Address != "redis:6379" {
		t.Errorf("expected cache enabled at redis:6379, got enabled=%v address=%q",
			cfg.Cache.Enabled, cfg.Cache.Address)
	}
	if cfg.Cache.DialTimeout != 2*time.Second {
		t.Errorf("expected dial timeout %v, got %v", 2*time.Second, cfg.Cache.DialTimeout)
	}
	if cfg.Activity.MaxAge != 10*time.Minute {
		t.Errorf("expected max age %v, got %v", 10*time.Minute, cfg.Activity.MaxAge)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("expected auto_migrate to be true")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/callisto.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	malformedContent := `
server:
  listen_address: "0.0.0.0:8090"
  invalid yaml here: [
`

	if err := os.WriteFile(configPath, []byte(malformedContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	// Invalid mode and logging level
	invalidContent := `
mode: "staging"

telemetry:
  logging:
    level: "invalid"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError in error chain, got %T: %v", err, err)
	}
}

func TestLoadConfig_EmptyCacheAddressIsValid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	// Enabled with no address: supported state, not a validation error.
	configContent := `
cache:
  enabled: true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error for empty cache address: %v", err)
	}
	if cfg.Cache.CacheConfigured() {
		t.Error("expected CacheConfigured() to be false with empty address")
	}
}

func TestLoadConfigWithEnvOverrides_Switches(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	configContent := `
mode: "dev"

cache:
  enabled: false

rate_limit:
  enabled: false

database:
  auto_migrate: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CALLISTO_MODE", "prod")
	t.Setenv("CALLISTO_CACHE_ENABLED", "true")
	t.Setenv("CALLISTO_CACHE_ADDRESS", "10.0.0.5:6379")
	t.Setenv("CALLISTO_RATE_LIMIT_ENABLED", "true")
	t.Setenv("CALLISTO_DATABASE_AUTO_MIGRATE", "true")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.IsProd() {
		t.Errorf("expected prod mode, got %q", cfg.Mode)
	}
	if !cfg.Cache.CacheConfigured() {
		t.Error("expected cache configured after env overrides")
	}
	if cfg.Cache.Address != "10.0.0.5:6379" {
		t.Errorf("expected cache address %q, got %q", "10.0.0.5:6379", cfg.Cache.Address)
	}
	if !cfg.RateLimit.Enabled {
		t.Error("expected rate limiting enabled after env override")
	}
	if !cfg.Database.AutoMigrate {
		t.Error("expected auto_migrate enabled after env override")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFails(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	if err := os.WriteFile(configPath, []byte("mode: dev\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CALLISTO_MODE", "staging")

	_, err := LoadConfigWithEnvOverrides(configPath)
	if err == nil {
		t.Fatal("expected validation failure for invalid mode override")
	}
	if !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("expected env override validation error, got: %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_EnvWinsOverFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "callisto.yaml")

	configContent := `
server:
  listen_address: "127.0.0.1:8090"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("CALLISTO_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected env override to win, got %q", cfg.Server.ListenAddress)
	}
}
