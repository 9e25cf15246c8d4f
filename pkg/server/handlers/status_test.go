package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/activity"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/registry"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/server/types"
)

// fakeSource is an ActivitySource returning a canned snapshot and
// counting how often it is queried.
type fakeSource struct {
	mu       sync.Mutex
	calls    int
	snapshot []activity.UserStatus
}

func (f *fakeSource) Snapshot() []activity.UserStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snapshot
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeResolver resolves display names from a fixed map, synthesizing
// bare-ID entries for unknown users like the real registry does.
type fakeResolver struct {
	names map[string]string
}

func (f *fakeResolver) Lookup(userID string) (registry.User, bool) {
	if name, ok := f.names[userID]; ok {
		return registry.User{ID: userID, Name: name}, true
	}
	return registry.User{ID: userID, Name: userID}, false
}

func TestStatusHandler_ServeHTTP(t *testing.T) {
	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	completed := started.Add(2 * time.Second)

	resolver := &fakeResolver{names: map[string]string{
		"alice": "Alice Anderson",
		"bob":   "Bob Burton",
	}}

	t.Run("empty snapshot returns empty users array", func(t *testing.T) {
		source := &fakeSource{}
		handler := NewStatusHandler(source, resolver, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", ct)
		}
		body := strings.TrimSpace(rec.Body.String())
		if body != `{"users":[]}` {
			t.Errorf("expected empty users array, got %s", body)
		}
	})

	t.Run("snapshot is rendered with registry names", func(t *testing.T) {
		source := &fakeSource{snapshot: []activity.UserStatus{
			{
				UserID:      "alice",
				ActiveCount: 2,
				ActiveRequests: []activity.ActiveRequest{
					{
						RequestID: "req-1",
						Metadata:  activity.Metadata{Method: "POST", Path: "/v1/jobs", Client: "cli"},
						StartedAt: started,
					},
					{
						RequestID: "req-2",
						StartedAt: started.Add(time.Second),
					},
				},
				LastRequest: &activity.CompletedRequest{
					RequestID:   "req-0",
					Outcome:     activity.OutcomeSuccess,
					CompletedAt: completed,
				},
			},
			{
				UserID:         "bob",
				ActiveCount:    0,
				ActiveRequests: []activity.ActiveRequest{},
				LastRequest: &activity.CompletedRequest{
					RequestID:   "req-9",
					Outcome:     activity.OutcomeTimedOut,
					CompletedAt: completed,
				},
			},
		}}
		handler := NewStatusHandler(source, resolver, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var resp types.StatusResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(resp.Users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(resp.Users))
		}

		alice := resp.Users[0]
		if alice.UserID != "alice" || alice.UserName != "Alice Anderson" {
			t.Errorf("unexpected first user: %+v", alice)
		}
		if alice.ActiveCount != 2 || len(alice.ActiveRequests) != 2 {
			t.Errorf("expected 2 active requests, got count=%d len=%d",
				alice.ActiveCount, len(alice.ActiveRequests))
		}
		first := alice.ActiveRequests[0]
		if first.RequestID != "req-1" || first.Method != "POST" || first.Path != "/v1/jobs" || first.Client != "cli" {
			t.Errorf("unexpected active request: %+v", first)
		}
		if !first.StartedAt.Equal(started) {
			t.Errorf("expected startedAt %v, got %v", started, first.StartedAt)
		}
		if alice.LastRequest == nil || alice.LastRequest.Outcome != "success" {
			t.Errorf("unexpected lastRequest: %+v", alice.LastRequest)
		}

		bob := resp.Users[1]
		if bob.UserName != "Bob Burton" {
			t.Errorf("expected resolved name for bob, got %q", bob.UserName)
		}
		if bob.LastRequest == nil || bob.LastRequest.Outcome != "timed_out" {
			t.Errorf("unexpected lastRequest for bob: %+v", bob.LastRequest)
		}
	})

	t.Run("unknown user falls back to bare user ID", func(t *testing.T) {
		source := &fakeSource{snapshot: []activity.UserStatus{
			{
				UserID:         "svc-batch",
				ActiveCount:    1,
				ActiveRequests: []activity.ActiveRequest{{RequestID: "req-7", StartedAt: started}},
			},
		}}
		handler := NewStatusHandler(source, resolver, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))

		var resp types.StatusResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Users) != 1 || resp.Users[0].UserName != "svc-batch" {
			t.Errorf("expected bare user ID as name, got %+v", resp.Users)
		}
	})

	t.Run("lastRequest is omitted before first completion", func(t *testing.T) {
		source := &fakeSource{snapshot: []activity.UserStatus{
			{
				UserID:         "alice",
				ActiveCount:    1,
				ActiveRequests: []activity.ActiveRequest{{RequestID: "req-1", StartedAt: started}},
			},
		}}
		handler := NewStatusHandler(source, resolver, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))

		if strings.Contains(rec.Body.String(), "lastRequest") {
			t.Errorf("expected lastRequest to be omitted, body: %s", rec.Body.String())
		}
	})

	t.Run("non-GET methods are rejected without querying the tracker", func(t *testing.T) {
		source := &fakeSource{}
		handler := NewStatusHandler(source, resolver, nil)

		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(method, "/v1/activity/status", nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: expected status 405, got %d", method, rec.Code)
			}
		}
		if source.callCount() != 0 {
			t.Errorf("expected no snapshot calls, got %d", source.callCount())
		}
	})
}

func TestStatusHandler_UnauthenticatedNeverQueriesTracker(t *testing.T) {
	source := &fakeSource{snapshot: []activity.UserStatus{
		{UserID: "alice", ActiveCount: 0, ActiveRequests: []activity.ActiveRequest{}},
	}}
	resolver := &fakeResolver{names: map[string]string{"alice": "Alice Anderson"}}

	authCfg := config.AuthConfig{
		Enabled:    true,
		HeaderName: "Authorization",
		Scheme:     "Bearer",
	}
	store := auth.NewStaticStore([]config.SessionConfig{
		{Token: "cst-alice-token", UserID: "alice"},
	})
	protected := auth.NewMiddleware(authCfg, store, nil).Handle(
		NewStatusHandler(source, resolver, nil))

	t.Run("missing token yields 401 and no tracker access", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
		var errResp types.ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if errResp.Error.Type != types.ErrorTypeAuthentication {
			t.Errorf("expected authentication_error, got %q", errResp.Error.Type)
		}
		if source.callCount() != 0 {
			t.Errorf("expected no snapshot calls, got %d", source.callCount())
		}
	})

	t.Run("invalid token yields 401 and no tracker access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
		if source.callCount() != 0 {
			t.Errorf("expected no snapshot calls, got %d", source.callCount())
		}
	})

	t.Run("valid token reaches the tracker", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil)
		req.Header.Set("Authorization", "Bearer cst-alice-token")

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if source.callCount() != 1 {
			t.Errorf("expected exactly one snapshot call, got %d", source.callCount())
		}
	})
}

func BenchmarkStatusHandler_ServeHTTP(b *testing.B) {
	started := time.Now()
	snapshot := make([]activity.UserStatus, 0, 50)
	for i := 0; i < 50; i++ {
		snapshot = append(snapshot, activity.UserStatus{
			UserID:      "user-" + string(rune('a'+i%26)),
			ActiveCount: 1,
			ActiveRequests: []activity.ActiveRequest{
				{RequestID: "req", StartedAt: started},
			},
		})
	}
	handler := NewStatusHandler(
		&fakeSource{snapshot: snapshot},
		&fakeResolver{names: map[string]string{}},
		nil,
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activity/status", nil))
	}
}
