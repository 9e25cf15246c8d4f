// Package telemetry provides observability for Mercator Callisto.
//
// # Components
//
//   - logging: Structured logging with secret redaction
//   - metrics: Prometheus metrics collection
//   - health: Liveness and readiness endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         cfg.Telemetry.Logging.Level,
//	    Format:        cfg.Telemetry.Logging.Format,
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//	logger.Info("gateway starting", "listen", cfg.Server.ListenAddress)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordHTTPRequest("GET", "/v1/activity/status", 200, duration)
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("database", store.Probe)
//
// # Secret Redaction
//
// When redaction is enabled, session tokens and passwords in log fields
// are scrubbed before they reach the output. The status gateway handles
// per-user session tokens on every authenticated request; redaction
// keeps them out of the logs regardless of log level.
package telemetry
