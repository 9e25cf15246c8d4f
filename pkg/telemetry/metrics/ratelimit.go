package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RateLimitMetrics tracks rate limiter decisions.
//
// Metrics:
//   - mercator_callisto_ratelimit_decisions_total: Verdicts by backend and decision
//   - mercator_callisto_ratelimit_fallbacks_total: Shared-to-local limiter fallbacks
type RateLimitMetrics struct {
	// Verdict counter
	decisionsTotal *prometheus.CounterVec

	// Fallback counter
	fallbacksTotal prometheus.Counter
}

// NewRateLimitMetrics creates and registers rate limiter metrics with the
// provided registry.
func NewRateLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limiter verdicts",
			},
			[]string{"backend", "decision"},
		),

		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_fallbacks_total",
				Help:      "Total number of fallbacks from the shared cache limiter to the local limiter",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		rm.decisionsTotal,
		rm.fallbacksTotal,
	)

	return rm
}

// RecordDecision records a limiter verdict.
//
// Parameters:
//   - backend: Limiter backend ("redis", "local")
//   - allowed: Whether the request was admitted
func (rm *RateLimitMetrics) RecordDecision(backend string, allowed bool) {
	decision := "throttled"
	if allowed {
		decision = "allowed"
	}
	rm.decisionsTotal.WithLabelValues(backend, decision).Inc()
}

// RecordFallback records a fall-through to the local limiter.
func (rm *RateLimitMetrics) RecordFallback() {
	rm.fallbacksTotal.Inc()
}
