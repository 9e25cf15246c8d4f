package middleware

import (
	"net/http"
	"runtime/debug"

	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a
// 500 error response. It logs the panic with the stack trace but never
// exposes internal details to clients.
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"request_id", GetRequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					// The write fails if the handler already started the
					// response; nothing more can be done at this point.
					_ = types.WriteError(w, types.NewServerError(
						"An internal error occurred. Please try again later.",
					))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
