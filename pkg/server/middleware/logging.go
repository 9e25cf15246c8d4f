package middleware

import (
	"context"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs HTTP requests and records request metrics.
// It captures method, path, status code, latency, request ID, and client
// metadata. Completions log at info, or warn/error for 4xx/5xx statuses.
//
// Log format (JSON):
//
//	{
//	  "time": "2026-03-10T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/v1/activity/status",
//	  "status": 200,
//	  "latency_ms": 3,
//	  "request_id": "a1b2c3d4...",
//	  "remote_addr": "192.168.1.100:54321"
//	}
func LoggingMiddleware(logger *logging.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ctx := context.WithValue(r.Context(), StartTimeKey, startTime)

			rw := newResponseWriter(w)

			if collector != nil {
				collector.IncInFlight()
				defer collector.DecInFlight()
			}

			requestID := GetRequestID(ctx)
			logger.DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			next.ServeHTTP(rw, r.WithContext(ctx))

			latency := time.Since(startTime)

			if collector != nil {
				collector.RecordHTTPRequest(r.Method, metricPath(r.URL.Path, rw.statusCode), rw.statusCode, latency)
			}

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}

			switch {
			case rw.statusCode >= 500:
				logger.ErrorContext(ctx, "request completed", args...)
			case rw.statusCode >= 400:
				logger.WarnContext(ctx, "request completed", args...)
			default:
				logger.InfoContext(ctx, "request completed", args...)
			}
		})
	}
}

// metricPath bounds the path label cardinality: all unmatched paths
// share one label value instead of minting a series per probe URL.
func metricPath(path string, status int) string {
	if status == http.StatusNotFound {
		return "unmatched"
	}
	return path
}

// GetStartTime extracts the request start time from the context.
// Returns zero time if not found.
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}
