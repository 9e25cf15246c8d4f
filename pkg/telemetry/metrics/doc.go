// Package metrics provides Prometheus metrics collection for Mercator Callisto.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring request
// activity tracking, the cache connection lifecycle, HTTP serving, and rate
// limiter decisions. Metric updates are cheap enough to sit on the request
// path.
//
// # Metrics Categories
//
//   - Activity Metrics: Requests begun/completed, active counts, sweep removals
//   - Cache Metrics: Connection state and connection attempt results
//   - HTTP Metrics: Request count, duration, and in-flight gauge
//   - Rate Limit Metrics: Limiter verdicts and shared-to-local fallbacks
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record activity metrics
//	collector.RecordRequestBegin("u-alice")
//	collector.RecordRequestCompletion("u-alice", "success", 120*time.Millisecond)
//
//	// Record cache connection metrics
//	collector.UpdateCacheState("connected")
//	collector.RecordCacheConnectAttempt(true)
//
//	// Record HTTP metrics
//	collector.RecordHTTPRequest("GET", "/v1/activity/status", 200, 3*time.Millisecond)
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus format:
//
//	# HELP mercator_callisto_active_requests Number of currently active requests
//	# TYPE mercator_callisto_active_requests gauge
//	mercator_callisto_active_requests 7
//
// # Cardinality Management
//
// User-labelled series are bounded to prevent memory issues:
//
//   - Maximum 10,000 unique label combinations
//   - Overflow users aggregated into "other"
package metrics
