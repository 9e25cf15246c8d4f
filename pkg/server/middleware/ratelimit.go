package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/ratelimit"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// RateLimitMiddleware enforces the per-user request budget before the
// handler runs.
//
// The limiter key is the session token from the configured auth header.
// Requests without a token skip the check; the auth middleware further
// in decides whether they are allowed at all. A limiter failure is never
// a request failure: the check fails open and the error is logged.
//
// On every checked request the response carries X-RateLimit-Limit and
// X-RateLimit-Remaining; rejected requests additionally get Retry-After
// in whole seconds and a 429 error body.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg config.AuthConfig, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}

	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "Authorization"
	}

	return func(next http.Handler) http.Handler {
		// No limiter installed means rate limiting is disabled.
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractRateLimitKey(r, headerName, cfg.Scheme)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limit check failed",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				_ = types.WriteError(w, types.NewRateLimitError(
					"Rate limit exceeded. Try again later.",
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractRateLimitKey pulls the session token from the configured header.
// The token is the rate limit key whether or not it resolves to a valid
// session, so unauthenticated floods burn their own budget.
func extractRateLimitKey(r *http.Request, headerName, scheme string) string {
	value := r.Header.Get(headerName)
	if value == "" {
		return ""
	}

	if scheme == "" {
		return strings.TrimSpace(value)
	}

	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// setRateLimitHeaders writes budget headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

	if d.RetryAfter > 0 {
		secs := int(d.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
}
