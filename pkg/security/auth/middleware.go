package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Middleware enforces session authentication on the handlers it wraps.
type Middleware struct {
	store      SessionStore
	headerName string
	scheme     string
	logger     *logging.Logger
}

// NewMiddleware creates session authentication middleware. The token
// header name and scheme come from the auth configuration.
func NewMiddleware(cfg config.AuthConfig, store SessionStore, logger *logging.Logger) *Middleware {
	if logger == nil {
		logger = logging.Discard()
	}

	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "Authorization"
	}

	return &Middleware{
		store:      store,
		headerName: headerName,
		scheme:     cfg.Scheme,
		logger:     logger,
	}
}

// Handle wraps an HTTP handler with session authentication.
// Requests without a resolvable session are rejected before next runs.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := m.extractToken(r)
		if err != nil {
			m.logger.Warn("missing session token",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			m.writeError(w, types.NewAuthenticationError("Missing or invalid session token", types.CodeMissingToken))
			return
		}

		sess, err := m.store.GetSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				m.logger.Warn("invalid session token",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				m.writeError(w, types.NewAuthenticationError("Invalid session token", types.CodeInvalidSession))
				return
			}

			m.logger.Error("session lookup failed",
				"error", err,
				"path", r.URL.Path,
			)
			m.writeError(w, types.NewServerError("An internal error occurred. Please try again later."))
			return
		}

		m.logger.Debug("session authenticated",
			"user_id", sess.UserID,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the session token from the configured header,
// stripping the scheme prefix when one is configured.
func (m *Middleware) extractToken(r *http.Request) (string, error) {
	value := r.Header.Get(m.headerName)
	if value == "" {
		return "", fmt.Errorf("no session token found")
	}

	if m.scheme != "" {
		prefix := m.scheme + " "
		if !strings.HasPrefix(value, prefix) {
			return "", fmt.Errorf("malformed %s header", m.headerName)
		}
		return strings.TrimPrefix(value, prefix), nil
	}

	return value, nil
}

func (m *Middleware) writeError(w http.ResponseWriter, resp *types.ErrorResponse) {
	if err := types.WriteError(w, resp); err != nil {
		m.logger.Error("failed to write error response", "error", err)
	}
}

// Context key for the authenticated session
type contextKey string

const sessionKey contextKey = "auth_session"

// SessionFromContext retrieves the authenticated session from the
// request context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok
}
