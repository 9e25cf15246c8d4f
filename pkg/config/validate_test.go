package config

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Mode validation
// =============================================================================

func TestValidate_Mode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr bool
	}{
		{"dev is valid", ModeDev, false},
		{"prod is valid", ModeProd, false},
		{"empty is rejected", "", true},
		{"unknown is rejected", "staging", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			cfg.Mode = tt.mode

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for mode %q", tt.mode)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error for mode %q: %v", tt.mode, err)
			}
		})
	}
}

// =============================================================================
// Cache validation
// =============================================================================

func TestValidate_CacheAddress(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Address = "no-port-here"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for address without port")
	}
	if !strings.Contains(err.Error(), "cache.address") {
		t.Errorf("expected cache.address in error, got: %v", err)
	}
}

func TestValidate_CacheEmptyAddressAllowed(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Address = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("empty cache address must be valid, got: %v", err)
	}
}

func TestValidate_CacheNegativeDB(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Cache.DB = -1

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for negative cache db")
	}
}

// =============================================================================
// Activity validation
// =============================================================================

func TestValidate_ActivityMaxAge(t *testing.T) {
	tests := []struct {
		name    string
		maxAge  time.Duration
		wantErr bool
	}{
		{"positive is valid", 30 * time.Minute, false},
		{"zero is rejected", 0, true},
		{"negative is rejected", -time.Minute, true},
		{"over 24h is rejected", 25 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			cfg.Activity.MaxAge = tt.maxAge

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for max age %v", tt.maxAge)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error for max age %v: %v", tt.maxAge, err)
			}
		})
	}
}

func TestValidate_ActivitySweepSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"every descriptor", "@every 1m", false},
		{"standard cron", "*/5 * * * *", false},
		{"empty rejected", "", true},
		{"garbage rejected", "whenever", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			cfg.Activity.SweepSchedule = tt.schedule

			err := Validate(cfg)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error for schedule %q", tt.schedule)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error for schedule %q: %v", tt.schedule, err)
			}
		})
	}
}

// =============================================================================
// Rate limit validation
// =============================================================================

func TestValidate_RateLimitStorageBackend(t *testing.T) {
	cfg := MinimalConfig()
	cfg.RateLimit.Storage.Backend = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
	if !strings.Contains(err.Error(), "rate_limit.storage.backend") {
		t.Errorf("expected backend field in error, got: %v", err)
	}
}

func TestValidate_RateLimitSQLiteNeedsPath(t *testing.T) {
	cfg := MinimalConfig()
	cfg.RateLimit.Storage.Backend = "sqlite"
	cfg.RateLimit.Storage.Path = ""

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for sqlite backend without path")
	}
}

// =============================================================================
// Database validation
// =============================================================================

func TestValidate_Database(t *testing.T) {
	t.Run("empty path rejected", func(t *testing.T) {
		cfg := MinimalConfig()
		cfg.Database.Path = ""
		if err := Validate(cfg); err == nil {
			t.Error("expected validation error for empty database path")
		}
	})

	t.Run("zero probe timeout rejected", func(t *testing.T) {
		cfg := MinimalConfig()
		cfg.Database.ProbeTimeout = 0
		if err := Validate(cfg); err == nil {
			t.Error("expected validation error for zero probe timeout")
		}
	})

	t.Run("excessive probe timeout rejected", func(t *testing.T) {
		cfg := MinimalConfig()
		cfg.Database.ProbeTimeout = 2 * time.Minute
		if err := Validate(cfg); err == nil {
			t.Error("expected validation error for excessive probe timeout")
		}
	})
}

// =============================================================================
// Auth validation
// =============================================================================

func TestValidate_AuthSessions(t *testing.T) {
	t.Run("duplicate tokens rejected", func(t *testing.T) {
		cfg := NewTestConfig().
			WithSession("tok-1", "alice").
			WithSession("tok-1", "bob").
			Build()

		err := Validate(cfg)
		if err == nil {
			t.Fatal("expected validation error for duplicate tokens")
		}
		if !strings.Contains(err.Error(), "duplicate session token") {
			t.Errorf("expected duplicate token error, got: %v", err)
		}
	})

	t.Run("missing user id rejected", func(t *testing.T) {
		cfg := MinimalConfig()
		cfg.Auth.Sessions = []SessionConfig{{Token: "tok-1"}}

		if err := Validate(cfg); err == nil {
			t.Error("expected validation error for session without user_id")
		}
	})

	t.Run("disabled auth skips session checks", func(t *testing.T) {
		cfg := NewTestConfig().WithAuthDisabled().Build()
		cfg.Auth.Sessions = []SessionConfig{{Token: ""}}

		if err := Validate(cfg); err != nil {
			t.Errorf("unexpected validation error with auth disabled: %v", err)
		}
	})
}

// =============================================================================
// Error formatting
// =============================================================================

func TestValidationError_MultipleErrors(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Mode = "staging"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("expected combined error message to mention 2 errors, got: %q", msg)
	}
	if !strings.Contains(msg, "mode") || !strings.Contains(msg, "telemetry.logging.level") {
		t.Errorf("expected both field paths in message, got: %q", msg)
	}
}

func TestFieldError_Format(t *testing.T) {
	fe := FieldError{Field: "cache.address", Message: "expected host:port"}
	if fe.Error() != "cache.address: expected host:port" {
		t.Errorf("unexpected FieldError format: %q", fe.Error())
	}
}
