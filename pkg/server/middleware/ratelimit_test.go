package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/ratelimit"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// fakeLimiter returns a canned decision and records the keys it saw.
type fakeLimiter struct {
	mu       sync.Mutex
	calls    int
	lastKey  string
	decision ratelimit.Decision
	err      error
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKey = key
	return f.decision, f.err
}

func (f *fakeLimiter) Close() error { return nil }

func (f *fakeLimiter) seen() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.lastKey
}

func limiterConfig() config.AuthConfig {
	return config.AuthConfig{HeaderName: "Authorization", Scheme: "Bearer"}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allowed request passes with budget headers", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 120, Remaining: 7}}

		var handlerCalled bool
		wrapped := RateLimitMiddleware(limiter, limiterConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil)
		req.Header.Set("Authorization", "Bearer cst-alice-token")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if !handlerCalled {
			t.Fatal("handler not called for an allowed request")
		}
		if got := w.Header().Get("X-RateLimit-Limit"); got != "120" {
			t.Errorf("X-RateLimit-Limit = %q, want 120", got)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != "7" {
			t.Errorf("X-RateLimit-Remaining = %q, want 7", got)
		}
		if got := w.Header().Get("Retry-After"); got != "" {
			t.Errorf("Retry-After = %q, want unset", got)
		}

		if _, key := limiter.seen(); key != "cst-alice-token" {
			t.Errorf("limiter key = %q, want the bare token", key)
		}
	})

	t.Run("denied request gets 429 and Retry-After", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{
			Allowed:    false,
			Limit:      120,
			Remaining:  0,
			RetryAfter: 30 * time.Second,
		}}

		var handlerCalled bool
		wrapped := RateLimitMiddleware(limiter, limiterConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil)
		req.Header.Set("Authorization", "Bearer cst-alice-token")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if handlerCalled {
			t.Error("handler called for a denied request")
		}
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
		}
		if got := w.Header().Get("Retry-After"); got != "30" {
			t.Errorf("Retry-After = %q, want 30", got)
		}

		var resp types.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding error body: %v", err)
		}
		if resp.Error.Type != types.ErrorTypeRateLimitExceeded {
			t.Errorf("error type = %q, want %q", resp.Error.Type, types.ErrorTypeRateLimitExceeded)
		}
	})

	t.Run("sub-second retry rounds up to one second", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{
			Allowed:    false,
			Limit:      120,
			RetryAfter: 200 * time.Millisecond,
		}}

		wrapped := RateLimitMiddleware(limiter, limiterConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer cst-token")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if got := w.Header().Get("Retry-After"); got != "1" {
			t.Errorf("Retry-After = %q, want 1", got)
		}
	})

	t.Run("requests without token skip the check", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: false}}

		var handlerCalled bool
		wrapped := RateLimitMiddleware(limiter, limiterConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		}))

		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

		if !handlerCalled {
			t.Fatal("handler not called for a tokenless request")
		}
		if calls, _ := limiter.seen(); calls != 0 {
			t.Errorf("limiter called %d times for a tokenless request", calls)
		}
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: fmt.Errorf("storage corrupt")}

		var handlerCalled bool
		wrapped := RateLimitMiddleware(limiter, limiterConfig(), logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer cst-token")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if !handlerCalled {
			t.Fatal("limiter error blocked the request")
		}
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("nil limiter disables the middleware", func(t *testing.T) {
		var handlerCalled bool
		wrapped := RateLimitMiddleware(nil, limiterConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer cst-token")

		wrapped.ServeHTTP(httptest.NewRecorder(), req)

		if !handlerCalled {
			t.Fatal("handler not called with nil limiter")
		}
	})
}

func TestExtractRateLimitKey(t *testing.T) {
	tests := []struct {
		name       string
		headerName string
		scheme     string
		setHeader  func(*http.Request)
		want       string
	}{
		{
			name:       "bearer token",
			headerName: "Authorization",
			scheme:     "Bearer",
			setHeader: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer cst-token-1")
			},
			want: "cst-token-1",
		},
		{
			name:       "scheme is case-insensitive",
			headerName: "Authorization",
			scheme:     "Bearer",
			setHeader: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer cst-token-2")
			},
			want: "cst-token-2",
		},
		{
			name:       "raw header when no scheme",
			headerName: "X-Session-Token",
			scheme:     "",
			setHeader: func(r *http.Request) {
				r.Header.Set("X-Session-Token", "cst-token-3")
			},
			want: "cst-token-3",
		},
		{
			name:       "wrong scheme yields no key",
			headerName: "Authorization",
			scheme:     "Bearer",
			setHeader: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			want: "",
		},
		{
			name:       "absent header yields no key",
			headerName: "Authorization",
			scheme:     "Bearer",
			setHeader:  func(r *http.Request) {},
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setHeader(req)

			if got := extractRateLimitKey(req, tt.headerName, tt.scheme); got != tt.want {
				t.Errorf("extractRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
