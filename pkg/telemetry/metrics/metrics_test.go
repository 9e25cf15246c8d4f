package metrics

import (
	"fmt"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                true,
		Namespace:              "test",
		Subsystem:              "metrics",
		RequestDurationBuckets: []float64{0.1, 0.5, 1.0, 5.0},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

// TestCollector_DefaultsApplied tests default namespace and buckets
func TestCollector_DefaultsApplied(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != "mercator" {
		t.Errorf("Expected default namespace mercator, got %s", cfg.Namespace)
	}
	if cfg.Subsystem != "callisto" {
		t.Errorf("Expected default subsystem callisto, got %s", cfg.Subsystem)
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		t.Error("Expected default duration buckets")
	}
	if collector.Registry() == nil {
		t.Error("Expected collector to create a registry")
	}
}

// TestCollector_RecordRequestBegin tests begin recording
func TestCollector_RecordRequestBegin(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRequestBegin("u-alice")
	collector.RecordRequestBegin("u-alice")
	collector.RecordRequestBegin("u-bob")

	count := testutil.ToFloat64(collector.activityMetrics.begunTotal.WithLabelValues("u-alice"))
	if count != 2 {
		t.Errorf("Expected 2 begins for u-alice, got %f", count)
	}

	count = testutil.ToFloat64(collector.activityMetrics.begunTotal.WithLabelValues("u-bob"))
	if count != 1 {
		t.Errorf("Expected 1 begin for u-bob, got %f", count)
	}
}

// TestCollector_RecordRequestCompletion tests completion recording
func TestCollector_RecordRequestCompletion(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name     string
		user     string
		outcome  string
		duration time.Duration
	}{
		{
			name:     "success completion",
			user:     "u-alice",
			outcome:  "success",
			duration: 120 * time.Millisecond,
		},
		{
			name:     "failure completion",
			user:     "u-alice",
			outcome:  "failure",
			duration: 50 * time.Millisecond,
		},
		{
			name:     "timed out completion",
			user:     "u-bob",
			outcome:  "timed_out",
			duration: 30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordRequestCompletion(tt.user, tt.outcome, tt.duration)

			count := testutil.ToFloat64(collector.activityMetrics.completedTotal.WithLabelValues(tt.user, tt.outcome))
			if count != 1 {
				t.Errorf("Expected 1 completion for %s/%s, got %f", tt.user, tt.outcome, count)
			}
		})
	}
}

// TestCollector_SweepAndGauges tests sweep counter and gauges
func TestCollector_SweepAndGauges(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordSweepRemovals(3)
	collector.RecordSweepRemovals(0) // no-op

	swept := testutil.ToFloat64(collector.activityMetrics.sweptTotal)
	if swept != 3 {
		t.Errorf("Expected 3 swept requests, got %f", swept)
	}

	collector.UpdateActiveRequests(7)
	active := testutil.ToFloat64(collector.activityMetrics.activeRequests)
	if active != 7 {
		t.Errorf("Expected 7 active requests, got %f", active)
	}

	collector.UpdateTrackedUsers(4)
	tracked := testutil.ToFloat64(collector.activityMetrics.trackedUsers)
	if tracked != 4 {
		t.Errorf("Expected 4 tracked users, got %f", tracked)
	}
}

// TestCollector_UpdateCacheState tests the one-hot state gauge
func TestCollector_UpdateCacheState(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.UpdateCacheState("connecting")
	collector.UpdateCacheState("connected")

	connected := testutil.ToFloat64(collector.cacheMetrics.connectionState.WithLabelValues("connected"))
	if connected != 1 {
		t.Errorf("Expected connected state = 1, got %f", connected)
	}

	connecting := testutil.ToFloat64(collector.cacheMetrics.connectionState.WithLabelValues("connecting"))
	if connecting != 0 {
		t.Errorf("Expected connecting state = 0 after transition, got %f", connecting)
	}
}

// TestCollector_RecordCacheConnectAttempt tests attempt counting
func TestCollector_RecordCacheConnectAttempt(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCacheConnectAttempt(false)
	collector.RecordCacheConnectAttempt(false)
	collector.RecordCacheConnectAttempt(true)

	failures := testutil.ToFloat64(collector.cacheMetrics.attemptsTotal.WithLabelValues("failure"))
	if failures != 2 {
		t.Errorf("Expected 2 failed attempts, got %f", failures)
	}

	successes := testutil.ToFloat64(collector.cacheMetrics.attemptsTotal.WithLabelValues("success"))
	if successes != 1 {
		t.Errorf("Expected 1 successful attempt, got %f", successes)
	}
}

// TestCollector_RecordHTTPRequest tests HTTP request recording
func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordHTTPRequest("GET", "/v1/activity/status", 200, 5*time.Millisecond)
	collector.RecordHTTPRequest("GET", "/v1/activity/status", 401, 1*time.Millisecond)

	ok := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "/v1/activity/status", "200"))
	if ok != 1 {
		t.Errorf("Expected 1 request with status 200, got %f", ok)
	}

	unauthorized := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("GET", "/v1/activity/status", "401"))
	if unauthorized != 1 {
		t.Errorf("Expected 1 request with status 401, got %f", unauthorized)
	}
}

// TestCollector_InFlight tests the in-flight gauge
func TestCollector_InFlight(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.IncInFlight()
	collector.IncInFlight()
	collector.DecInFlight()

	inFlight := testutil.ToFloat64(collector.httpMetrics.inFlight)
	if inFlight != 1 {
		t.Errorf("Expected 1 in-flight request, got %f", inFlight)
	}
}

// TestCollector_RecordRateLimitDecision tests limiter verdict counting
func TestCollector_RecordRateLimitDecision(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRateLimitDecision("redis", true)
	collector.RecordRateLimitDecision("redis", false)
	collector.RecordRateLimitDecision("local", true)
	collector.RecordRateLimitFallback()

	allowed := testutil.ToFloat64(collector.ratelimitMetrics.decisionsTotal.WithLabelValues("redis", "allowed"))
	if allowed != 1 {
		t.Errorf("Expected 1 allowed redis decision, got %f", allowed)
	}

	throttled := testutil.ToFloat64(collector.ratelimitMetrics.decisionsTotal.WithLabelValues("redis", "throttled"))
	if throttled != 1 {
		t.Errorf("Expected 1 throttled redis decision, got %f", throttled)
	}

	fallbacks := testutil.ToFloat64(collector.ratelimitMetrics.fallbacksTotal)
	if fallbacks != 1 {
		t.Errorf("Expected 1 fallback, got %f", fallbacks)
	}
}

// TestCollector_Disabled tests that a disabled collector records nothing
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordRequestBegin("u-alice")
	collector.RecordRequestCompletion("u-alice", "success", time.Millisecond)
	collector.RecordHTTPRequest("GET", "/", 200, time.Millisecond)

	count := testutil.ToFloat64(collector.activityMetrics.begunTotal.WithLabelValues("u-alice"))
	if count != 0 {
		t.Errorf("Disabled collector recorded begin: %f", count)
	}
}

// TestCardinalityLimiter tests the cardinality cap
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(fmt.Sprintf("set-%d", i)) {
			t.Errorf("Label set %d rejected below limit", i)
		}
	}

	if limiter.Allow("set-overflow") {
		t.Error("Label set beyond limit was allowed")
	}

	// Existing sets remain allowed
	if !limiter.Allow("set-0") {
		t.Error("Known label set rejected")
	}

	if limiter.Count() != 3 {
		t.Errorf("Expected cardinality 3, got %d", limiter.Count())
	}
}

// TestCollector_UserLabelOverflow tests user aggregation into "other"
func TestCollector_UserLabelOverflow(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	collector.RecordRequestBegin("u-1")
	collector.RecordRequestBegin("u-2")
	collector.RecordRequestBegin("u-3") // beyond limit

	other := testutil.ToFloat64(collector.activityMetrics.begunTotal.WithLabelValues("other"))
	if other != 1 {
		t.Errorf("Expected overflow user aggregated into other, got %f", other)
	}
}

// TestCollector_Handler tests that the handler serves the registry
func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	if collector.Handler() == nil {
		t.Fatal("Expected non-nil handler")
	}
}
