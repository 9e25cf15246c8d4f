package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// connectionStates lists every state series maintained by the connection
// state gauge. UpdateState sets exactly one of them to 1.
var connectionStates = []string{
	"disabled",
	"disconnected",
	"connecting",
	"connected",
	"failed",
}

// CacheMetrics tracks cache connection lifecycle metrics.
//
// Metrics:
//   - mercator_callisto_cache_connection_state: One-hot gauge of the connection state
//   - mercator_callisto_cache_connect_attempts_total: Connection attempts by result
type CacheMetrics struct {
	// One-hot connection state gauge
	connectionState *prometheus.GaugeVec

	// Connection attempt counter
	attemptsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache connection metrics with the
// provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		connectionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_connection_state",
				Help:      "Cache connection state (1 for the current state, 0 otherwise)",
			},
			[]string{"state"},
		),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_connect_attempts_total",
				Help:      "Total number of cache connection attempts",
			},
			[]string{"result"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.connectionState,
		cm.attemptsTotal,
	)

	return cm
}

// UpdateState sets the connection state gauge. The given state series is
// set to 1 and every other state series to 0, so PromQL can read the
// current state without joins.
//
// Example:
//
//	cm.UpdateState("connected")
func (cm *CacheMetrics) UpdateState(state string) {
	for _, s := range connectionStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		cm.connectionState.WithLabelValues(s).Set(value)
	}
}

// RecordConnectAttempt records the result of a connection attempt.
func (cm *CacheMetrics) RecordConnectAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	cm.attemptsTotal.WithLabelValues(result).Inc()
}
