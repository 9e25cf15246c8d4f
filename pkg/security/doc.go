/*
Package security provides authentication for Mercator Callisto.

# Session Authentication

Validate session tokens in HTTP middleware:

	store := auth.NewStaticStore(cfg.Auth.Sessions)
	middleware := auth.NewMiddleware(cfg.Auth, store, logger)

	http.Handle("/v1/activity/status", middleware.Handle(handler))

Requests without a valid session never reach the wrapped handler; they
are answered with a 401 and a typed JSON error envelope. The resolved
session travels in the request context:

	session, ok := auth.SessionFromContext(r.Context())
	if ok {
		logger.Info("request", "user", session.UserID)
	}
*/
package security
