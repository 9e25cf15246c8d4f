package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ActivityMetrics tracks metrics for the request activity tracker.
//
// Metrics:
//   - mercator_callisto_requests_begun_total: Requests entering the active set
//   - mercator_callisto_requests_completed_total: Requests leaving the active set by outcome
//   - mercator_callisto_request_duration_seconds: Active lifetime histogram by outcome
//   - mercator_callisto_active_requests: Currently active requests
//   - mercator_callisto_tracked_users: Users with tracked state
//   - mercator_callisto_requests_swept_total: Stale requests removed by sweeps
type ActivityMetrics struct {
	// Requests entering the active set
	begunTotal *prometheus.CounterVec

	// Requests leaving the active set
	completedTotal *prometheus.CounterVec

	// Active lifetime histogram
	duration *prometheus.HistogramVec

	// Currently active requests
	activeRequests prometheus.Gauge

	// Users with tracked state
	trackedUsers prometheus.Gauge

	// Stale requests removed by sweep passes
	sweptTotal prometheus.Counter
}

// NewActivityMetrics creates and registers activity metrics with the provided registry.
func NewActivityMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ActivityMetrics {
	am := &ActivityMetrics{
		begunTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_begun_total",
				Help:      "Total number of requests that entered the active set",
			},
			[]string{"user"},
		),

		completedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_completed_total",
				Help:      "Total number of requests that left the active set",
			},
			[]string{"user", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Time requests spent in the active set",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),

		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_requests",
				Help:      "Number of currently active requests",
			},
		),

		trackedUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tracked_users",
				Help:      "Number of users with active requests or a recorded last request",
			},
		),

		sweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_swept_total",
				Help:      "Total number of stale requests force-completed by sweeps",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		am.begunTotal,
		am.completedTotal,
		am.duration,
		am.activeRequests,
		am.trackedUsers,
		am.sweptTotal,
	)

	return am
}

// RecordBegin records a request entering the active set.
func (am *ActivityMetrics) RecordBegin(user string) {
	am.begunTotal.WithLabelValues(user).Inc()
}

// RecordCompletion records a request leaving the active set.
//
// Parameters:
//   - user: User identifier that owned the request
//   - outcome: Terminal outcome ("success", "failure", "timed_out")
//   - duration: Time the request spent active
func (am *ActivityMetrics) RecordCompletion(user, outcome string, duration time.Duration) {
	am.completedTotal.WithLabelValues(user, outcome).Inc()
	am.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordSweep records stale requests removed by a sweep pass.
func (am *ActivityMetrics) RecordSweep(removed int) {
	if removed > 0 {
		am.sweptTotal.Add(float64(removed))
	}
}

// UpdateActive updates the gauge of currently active requests.
func (am *ActivityMetrics) UpdateActive(n int) {
	am.activeRequests.Set(float64(n))
}

// UpdateTrackedUsers updates the gauge of users with tracked state.
func (am *ActivityMetrics) UpdateTrackedUsers(n int) {
	am.trackedUsers.Set(float64(n))
}
