// Package health provides health check endpoints for Mercator Callisto.
//
// # Overview
//
// The health package implements liveness and readiness probes for Kubernetes
// and other orchestration systems, along with version information endpoints.
// It provides a framework for checking the health of various system components.
//
// # Endpoints
//
// The package provides three main endpoints:
//
//   - /health/live: Liveness probe - indicates if the process is running
//   - /health/ready: Readiness probe - indicates if the system can serve traffic
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	// Create health checker
//	checker := health.New(5 * time.Second)
//
//	// Register component checks
//	checker.RegisterCheck("database", func(ctx context.Context) error {
//	    return store.Probe(ctx)
//	})
//
//	// Add HTTP handlers
//	http.HandleFunc("/health/live", checker.LivenessHandler())
//	http.HandleFunc("/health/ready", checker.ReadinessHandler())
//	http.HandleFunc("/version", health.VersionHandler("1.0.0", "abc123", "2026-08-26"))
//
// # Liveness vs Readiness
//
// **Liveness Probe** (/health/live):
//   - Indicates if the process is alive and running
//   - Returns 200 OK if process is alive
//   - Used by Kubernetes to restart pods
//   - Fast check (<10ms)
//
// **Readiness Probe** (/health/ready):
//   - Indicates if the system can serve traffic
//   - Checks all registered component health checks
//   - Returns 200 OK if all components are healthy
//   - Returns 503 Service Unavailable if any component is unhealthy
//   - Used by Kubernetes to route traffic
//
// # Component Health Checks
//
// Components can register health check functions:
//
//	checker.RegisterCheck("registry", func(ctx context.Context) error {
//	    if userRegistry.Count() == 0 {
//	        return errors.New("user registry empty")
//	    }
//	    return nil
//	})
//
// Common component checks:
//   - database: Application database reachable
//   - registry: User registry loaded
//   - cache: Cache connection usable (reported unhealthy after permanent failure)
//
// The cache check deserves a note: an unavailable cache degrades readiness
// but never liveness, because the gateway is designed to run without it.
package health
