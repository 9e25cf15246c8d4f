package types

import "time"

// StatusResponse is the JSON document returned by the activity status
// endpoint.
type StatusResponse struct {
	// Users holds one entry per user with activity to report, ordered by
	// user ID ascending.
	Users []UserActivity `json:"users"`
}

// UserActivity is one user's activity in a status response.
type UserActivity struct {
	// UserID identifies the user.
	UserID string `json:"userId"`

	// UserName is the display name from the user registry. When the
	// registry has no entry for the user this falls back to the user ID.
	UserName string `json:"userName"`

	// ActiveCount is the number of requests currently in flight.
	ActiveCount int `json:"activeCount"`

	// ActiveRequests lists the in-flight requests, oldest first.
	ActiveRequests []ActiveRequest `json:"activeRequests"`

	// LastRequest is the most recent completion, absent until the user's
	// first request finishes.
	LastRequest *LastRequest `json:"lastRequest,omitempty"`
}

// ActiveRequest is one in-flight request in a status response.
type ActiveRequest struct {
	// RequestID is the unique identifier of the request.
	RequestID string `json:"requestId"`

	// Method is the HTTP method, when known.
	Method string `json:"method,omitempty"`

	// Path is the request path, when known.
	Path string `json:"path,omitempty"`

	// Client identifies the calling client, when known.
	Client string `json:"client,omitempty"`

	// StartedAt is when the request was registered.
	StartedAt time.Time `json:"startedAt"`
}

// LastRequest is the most recent completed request in a status response.
type LastRequest struct {
	// RequestID is the identifier the request was tracked under.
	RequestID string `json:"requestId"`

	// Outcome is how the request finished: "success", "failure", or
	// "timed_out".
	Outcome string `json:"outcome"`

	// CompletedAt is when the request finished.
	CompletedAt time.Time `json:"completedAt"`
}
