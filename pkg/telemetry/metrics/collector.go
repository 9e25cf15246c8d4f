package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Mercator
// Callisto. It manages metric registration, collection, and provides a
// unified interface for recording metrics across all components.
//
// The collector is designed for low overhead on the request path:
//   - Pre-allocated metric instances
//   - Cardinality limits on user-labelled series
//   - Histogram buckets tuned for gateway latencies
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Activity tracker metrics
	activityMetrics *ActivityMetrics

	// Cache connection metrics
	cacheMetrics *CacheMetrics

	// HTTP server metrics
	httpMetrics *HTTPMetrics

	// Rate limiter metrics
	ratelimitMetrics *RateLimitMetrics

	// Cardinality tracking for user-labelled series
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "mercator",
//		Subsystem: "callisto",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "mercator"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "callisto"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Tuned for gateway request latencies (5ms - 2.5s)
		cfg.RequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.activityMetrics = NewActivityMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.ratelimitMetrics = NewRateLimitMetrics(cfg, registry)

	return c
}

// RecordRequestBegin records that a tracked request entered the active set.
//
// Parameters:
//   - user: User identifier that owns the request
func (c *Collector) RecordRequestBegin(user string) {
	if !c.config.Enabled {
		return
	}

	user = c.limitUserLabel(user)
	c.activityMetrics.RecordBegin(user)
}

// RecordRequestCompletion records metrics for a request leaving the active
// set.
//
// Parameters:
//   - user: User identifier that owned the request
//   - outcome: Terminal outcome ("success", "failure", "timed_out")
//   - duration: Time the request spent in the active set
//
// Example:
//
//	collector.RecordRequestCompletion("u-alice", "success", 120*time.Millisecond)
func (c *Collector) RecordRequestCompletion(user, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	user = c.limitUserLabel(user)
	c.activityMetrics.RecordCompletion(user, outcome, duration)
}

// RecordSweepRemovals records the number of stale requests force-completed
// by a sweep pass.
func (c *Collector) RecordSweepRemovals(removed int) {
	if !c.config.Enabled {
		return
	}

	c.activityMetrics.RecordSweep(removed)
}

// UpdateActiveRequests updates the gauge of currently active requests.
func (c *Collector) UpdateActiveRequests(n int) {
	if !c.config.Enabled {
		return
	}

	c.activityMetrics.UpdateActive(n)
}

// UpdateTrackedUsers updates the gauge of users with tracked state.
func (c *Collector) UpdateTrackedUsers(n int) {
	if !c.config.Enabled {
		return
	}

	c.activityMetrics.UpdateTrackedUsers(n)
}

// UpdateCacheState sets the cache connection state gauge. Exactly one
// state series holds 1 at any time.
//
// Parameters:
//   - state: One of "disconnected", "connecting", "connected", "failed",
//     "disabled"
func (c *Collector) UpdateCacheState(state string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateState(state)
}

// RecordCacheConnectAttempt records the result of a cache connection
// attempt.
func (c *Collector) RecordCacheConnectAttempt(success bool) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordConnectAttempt(success)
}

// RecordHTTPRequest records metrics for a completed HTTP request.
//
// Parameters:
//   - method: HTTP method
//   - path: Route pattern (not the raw URL, to bound cardinality)
//   - status: HTTP status code
//   - duration: Total request duration
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.RecordRequest(method, path, status, duration)
}

// IncInFlight increments the in-flight HTTP request gauge.
func (c *Collector) IncInFlight() {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.IncInFlight()
}

// DecInFlight decrements the in-flight HTTP request gauge.
func (c *Collector) DecInFlight() {
	if !c.config.Enabled {
		return
	}

	c.httpMetrics.DecInFlight()
}

// RecordRateLimitDecision records a rate limiter verdict.
//
// Parameters:
//   - backend: Limiter backend that made the decision ("redis", "local")
//   - allowed: Whether the request was admitted
func (c *Collector) RecordRateLimitDecision(backend string, allowed bool) {
	if !c.config.Enabled {
		return
	}

	c.ratelimitMetrics.RecordDecision(backend, allowed)
}

// RecordRateLimitFallback records a fall-through from the shared cache
// limiter to the local limiter.
func (c *Collector) RecordRateLimitFallback() {
	if !c.config.Enabled {
		return
	}

	c.ratelimitMetrics.RecordFallback()
}

// limitUserLabel applies the cardinality limit to the user label,
// aggregating overflow into "other".
func (c *Collector) limitUserLabel(user string) string {
	labelSet := fmt.Sprintf("activity:%s", user)
	if !c.cardinalityLimiter.Allow(labelSet) {
		return "other"
	}
	return user
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
