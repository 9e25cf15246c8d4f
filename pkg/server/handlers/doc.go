// Package handlers provides the HTTP request handlers for the gateway
// server.
//
// The main handler is StatusHandler, which serves the activity status
// document:
//
//	{
//	  "users": [
//	    {
//	      "userId": "alice",
//	      "userName": "Alice Anderson",
//	      "activeCount": 2,
//	      "activeRequests": [
//	        {"requestId": "req-1", "method": "POST", "path": "/v1/jobs", "startedAt": "..."}
//	      ],
//	      "lastRequest": {"requestId": "req-0", "outcome": "success", "completedAt": "..."}
//	    }
//	  ]
//	}
//
// The handler combines the tracker snapshot with the user registry: the
// tracker supplies user IDs and request activity, the registry supplies
// display names. Users missing from the registry fall back to their bare
// user ID, so a registry gap never fails a status request.
//
// # Dependencies
//
// Handlers depend on narrow interfaces (ActivitySource, registry.Resolver)
// rather than concrete collaborator types, so tests can substitute small
// fakes. Authentication is not performed here; the server wraps protected
// handlers in the auth middleware before mounting them.
//
// # Errors
//
// Handlers write errors in the shared JSON error format from
// pkg/server/types. Method misuse gets a plain 405; everything else a
// handler cannot serve becomes a JSON error body.
package handlers
