// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common
// functionality across all HTTP requests: request ID generation,
// logging and metrics, rate limiting, panic recovery, and timeout
// enforcement.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = Recovery(RequestID(Logging(RateLimit(Timeout(mux)))))
//
// Order (outermost to innermost):
//  1. Recovery: Recover from panics
//  2. RequestID: Generate and propagate request ID
//  3. Logging: Log request/response details, record HTTP metrics
//  4. RateLimit: Enforce per-user request budget
//  5. Timeout: Enforce per-request timeout
//
// Recovery runs outermost so every later failure, including panics
// surfaced through the timeout middleware, becomes a 500 response.
// RequestID runs before Logging so the completion log always carries
// an ID. RateLimit runs before Timeout so rejected requests never
// consume a handler slot.
//
// Session authentication is not part of this chain; it wraps
// individual protected handlers (see pkg/security/auth).
//
// # Request ID
//
// RequestIDMiddleware assigns a UUID v4 to each request:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// Client-supplied IDs are honored for correlation across systems.
//
// # Logging
//
// LoggingMiddleware records structured completion logs and feeds the
// HTTP metrics (request counter, duration histogram, in-flight gauge):
//
//	{
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/v1/activity/status",
//	  "status": 200,
//	  "latency_ms": 3,
//	  "request_id": "550e8400-..."
//	}
//
// Completions with 4xx statuses log at warn, 5xx at error.
//
// # Rate Limiting
//
// RateLimitMiddleware keys the limiter on the session token from the
// configured auth header. Requests without a token pass through; the
// auth middleware decides their fate. Limiter errors fail open.
//
// # Recovery
//
// RecoveryMiddleware catches panics and converts them to 500 errors:
//
//	{
//	  "error": {
//	    "message": "An internal error occurred. Please try again later.",
//	    "type": "server_error",
//	    "code": "internal_error"
//	  }
//	}
//
// The panic stack trace is logged but not exposed to clients.
//
// # Timeout
//
// TimeoutMiddleware enforces a per-request timeout using
// context.WithTimeout. If the timeout is exceeded the handler context
// is cancelled and the client receives a 504 Gateway Timeout.
//
// # Context Values
//
// Middleware stores values in context for handler access:
//
//	requestID := middleware.GetRequestID(r.Context())
//	startTime := middleware.GetStartTime(r.Context())
package middleware
