// Package server provides the HTTP server for the activity gateway.
//
// This package ties together the handlers, the middleware chain, and the
// telemetry endpoints, and manages the server lifecycle including start,
// graceful shutdown, and OS signal handling (SIGTERM, SIGINT).
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "mercator-hq/callisto/pkg/config"
//	    "mercator-hq/callisto/pkg/server"
//	)
//
//	cfg := config.MustGet()
//
//	srv := server.NewServer(cfg, server.Dependencies{
//	    Tracker:   tracker,
//	    Resolver:  userRegistry,
//	    Sessions:  sessionStore,
//	    Limiter:   limiter,
//	    Checker:   checker,
//	    Collector: collector,
//	    Logger:    logger,
//	})
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the server shuts down. Shutdown is triggered by
// SIGINT or SIGTERM, by cancelling the context passed to Start, or by
// calling Stop from another goroutine.
//
// # Graceful Shutdown
//
// The shutdown process:
//  1. Stops accepting new connections
//  2. Waits for in-flight requests to complete (up to the shutdown timeout)
//  3. Forces connection closure if the timeout is exceeded
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - GET /v1/activity/status - Per-user activity snapshot (authenticated)
//   - GET /health/live - Liveness probe
//   - GET /health/ready - Readiness probe (runs registered checks)
//   - GET /metrics - Prometheus metrics (when enabled)
//
// Health and metrics paths are configurable; the defaults are shown.
// Health and metrics endpoints are mounted outside the auth middleware
// so probes and scrapes need no credentials.
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. Timeout: enforces the per-request deadline
//  2. RateLimit: enforces per-session request budgets
//  3. Logging: logs request completion and records HTTP metrics
//  4. RequestID: assigns the request correlation ID
//  5. Recovery: recovers from panics and returns a 500 error
//
// The auth middleware is not part of this chain; it wraps the status
// handler directly so unauthenticated endpoints stay reachable.
//
// # Thread Safety
//
// All server operations are safe for concurrent use.
package server
