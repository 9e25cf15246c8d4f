// Package logging provides structured logging with secret redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Automatic redaction of session tokens and passwords
//   - Context-aware logging with request IDs and user identifiers
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//
//	// Log structured data
//	logger.Info("request completed",
//	    "request_id", "req-123",
//	    "token", "tok-abc123",  // Automatically redacted
//	    "duration_ms", 1234,
//	)
//
//	// Create context-aware logger
//	ctx := logging.WithRequestID(ctx, "req-123")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("processing")  // Includes request_id automatically
//
// # Secret Redaction
//
// Secrets are automatically redacted from log fields when RedactSecrets
// is enabled:
//
//   - Bearer credentials: "Bearer eyJhb..." becomes "Bearer ***"
//   - Password assignments: "password=hunter2" becomes "password: ***"
//   - Values under sensitive keys (token, secret, auth) keep only a
//     four-character prefix
package logging
