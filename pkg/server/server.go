package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/ratelimit"
	"mercator-hq/callisto/pkg/registry"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/server/handlers"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// Server is the HTTP server exposing the activity status API together
// with health and metrics endpoints.
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	collector *metrics.Collector
	tracker   handlers.ActivitySource
	resolver  registry.Resolver
	sessions  auth.SessionStore
	limiter   ratelimit.Limiter
	checker   *health.Checker

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Dependencies carries the collaborators the server wires into its
// routes.
type Dependencies struct {
	// Tracker supplies the activity snapshot for the status endpoint.
	Tracker handlers.ActivitySource

	// Resolver maps user IDs to display names.
	Resolver registry.Resolver

	// Sessions backs the auth middleware. Ignored when auth is disabled.
	Sessions auth.SessionStore

	// Limiter enforces rate limits. Nil means no limiting.
	Limiter ratelimit.Limiter

	// Checker serves the liveness and readiness endpoints. Nil disables
	// them regardless of configuration.
	Checker *health.Checker

	// Collector records HTTP metrics and serves the metrics endpoint.
	// Nil disables both.
	Collector *metrics.Collector

	// Logger receives server and middleware logs. Nil discards them.
	Logger *logging.Logger
}

// NewServer creates a gateway server from cfg and its collaborators.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Server{
		cfg:          cfg,
		logger:       logger,
		collector:    deps.Collector,
		tracker:      deps.Tracker,
		resolver:     deps.Resolver,
		sessions:     deps.Sessions,
		limiter:      deps.Limiter,
		checker:      deps.Checker,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown. Shutdown is
// triggered by SIGINT or SIGTERM, by cancelling ctx, or by Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.cfg.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			"address", s.cfg.Server.ListenAddress,
			"mode", string(s.cfg.Mode),
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Stop requests a graceful shutdown from another goroutine. Safe to
// call multiple times and before Start.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// Shutdown gracefully shuts down the server, draining in-flight
// requests for at most the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.cfg.Server.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// setupRoutes configures the routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	var statusHandler http.Handler = handlers.NewStatusHandler(s.tracker, s.resolver, s.logger)
	if s.cfg.Auth.Enabled {
		statusHandler = auth.NewMiddleware(s.cfg.Auth, s.sessions, s.logger).Handle(statusHandler)
	}
	mux.Handle("/v1/activity/status", statusHandler)

	if s.checker != nil && s.cfg.Telemetry.Health.Enabled {
		mux.Handle(s.cfg.Telemetry.Health.LivenessPath, s.checker.LivenessHandler())
		mux.Handle(s.cfg.Telemetry.Health.ReadinessPath, s.checker.ReadinessHandler())
	}

	if s.collector != nil && s.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	// Applied inside-out: the last wrap is the first to see a request.
	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.cfg.Server.RequestTimeout, s.logger)(handler)
	handler = middleware.RateLimitMiddleware(s.limiter, s.cfg.Auth, s.logger)(handler)
	handler = middleware.LoggingMiddleware(s.logger, s.collector)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the fully configured HTTP handler. It is primarily
// useful for tests that exercise the routes without a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Health reports whether the server is able to take traffic.
func (s *Server) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return fmt.Errorf("server is not running")
	}
	return nil
}
