/*
Package auth provides session authentication for the Callisto status API.

This package implements HTTP middleware that resolves a bearer token to a
session through the SessionStore interface and makes the authenticated
session available to downstream handlers via the request context.

# Basic Usage

Create a store and middleware from configuration:

	store := auth.NewStaticStore(cfg.Auth.Sessions)
	middleware := auth.NewMiddleware(cfg.Auth, store, logger)

	// Wrap protected handlers
	http.Handle("/v1/activity/status", middleware.Handle(statusHandler))

Inside a protected handler, retrieve the authenticated session:

	func handler(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			// Unreachable behind the middleware.
			return
		}
		_ = sess.UserID
	}

# Session Stores

SessionStore is deliberately narrow: one lookup method. The built-in
StaticStore serves tokens from the configuration file; deployments with
a real session service implement SessionStore against it and pass that
to NewMiddleware instead. Stores must return ErrSessionNotFound for
unknown tokens; any other error is treated as a store failure and
surfaces as a 500, not a 401.

# Security Considerations

  - Token values are never logged (only user IDs)
  - Use HTTPS in production to prevent token interception
  - Generate cryptographically random tokens (min 32 bytes)

# Configuration Example

	auth:
	  enabled: true
	  header_name: "Authorization"
	  scheme: "Bearer"
	  sessions:
	    - token: "cst-1234567890abcdef"
	      user_id: "user-123"
*/
package auth
