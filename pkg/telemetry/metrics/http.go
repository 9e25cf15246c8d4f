package metrics

import (
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks metrics for the HTTP server.
//
// Metrics:
//   - mercator_callisto_http_requests_total: Request count by method, path, status
//   - mercator_callisto_http_request_duration_seconds: Request duration histogram
//   - mercator_callisto_http_in_flight_requests: Currently in-flight requests
type HTTPMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// In-flight request gauge
	inFlight prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"method", "path"},
		),

		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_in_flight_requests",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		hm.requestsTotal,
		hm.requestDuration,
		hm.inFlight,
	)

	return hm
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - method: HTTP method
//   - path: Route pattern, not the raw URL, to bound cardinality
//   - status: HTTP status code
//   - duration: Total request duration
func (hm *HTTPMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncInFlight increments the in-flight gauge.
func (hm *HTTPMetrics) IncInFlight() {
	hm.inFlight.Inc()
}

// DecInFlight decrements the in-flight gauge.
func (hm *HTTPMetrics) DecInFlight() {
	hm.inFlight.Dec()
}
