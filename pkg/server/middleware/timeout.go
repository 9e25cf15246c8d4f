package middleware

import (
	"context"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// TimeoutMiddleware enforces a per-request timeout using
// context.WithTimeout. If the timeout is exceeded, the request context
// is cancelled and a 504 Gateway Timeout error is returned.
//
// Handlers must watch context.Done() and stop writing once the context
// is cancelled. A zero or negative timeout disables the middleware.
func TimeoutMiddleware(timeout time.Duration, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}

	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			panicChan := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- p
						return
					}
					close(done)
				}()
				next.ServeHTTP(w, r.WithContext(ctx))
			}()

			select {
			case p := <-panicChan:
				// Re-panic on the serving goroutine so the recovery
				// middleware sees it.
				panic(p)

			case <-done:
				return

			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					// The original context still carries the request ID.
					logger.Warn("request timed out",
						"request_id", GetRequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout.String(),
					)

					_ = types.WriteError(w, types.NewGatewayTimeoutError(
						"Request timeout: the request took too long to complete",
					))
				}
			}
		})
	}
}
