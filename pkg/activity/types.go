package activity

import (
	"errors"
	"time"
)

// Outcome classifies how a tracked request finished.
type Outcome string

const (
	// OutcomeSuccess marks a request that completed normally.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure marks a request that completed with an error.
	OutcomeFailure Outcome = "failure"

	// OutcomeTimedOut marks a request that was force-completed by the
	// sweeper after exceeding the configured maximum age.
	OutcomeTimedOut Outcome = "timed_out"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure, OutcomeTimedOut:
		return true
	}
	return false
}

// String returns the outcome label as used in logs and metrics.
func (o Outcome) String() string {
	return string(o)
}

var (
	// ErrDuplicateRequestID is returned by Begin when the request ID is
	// already active, for any user. The tracker state is unchanged.
	ErrDuplicateRequestID = errors.New("request id already active")

	// ErrUnknownRequestID is returned by End when the request ID does not
	// match any active request.
	ErrUnknownRequestID = errors.New("unknown request id")

	// ErrInvalidOutcome is returned by End when the outcome is not one of
	// the known values.
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// Metadata carries optional request attributes captured at Begin time.
// All fields are informational; the tracker never interprets them.
type Metadata struct {
	// Method is the HTTP method of the request, if applicable.
	Method string `json:"method,omitempty"`

	// Path is the request path, if applicable.
	Path string `json:"path,omitempty"`

	// Client identifies the calling client or agent, if known.
	Client string `json:"client,omitempty"`
}

// ActiveRequest describes a single in-flight request.
type ActiveRequest struct {
	// RequestID is the process-wide unique identifier of the request.
	RequestID string `json:"request_id"`

	// Metadata holds the attributes supplied at Begin time.
	Metadata Metadata `json:"metadata,omitempty"`

	// StartedAt is when the request was registered.
	StartedAt time.Time `json:"started_at"`
}

// CompletedRequest describes the most recent completion for a user.
type CompletedRequest struct {
	// RequestID is the identifier the request was tracked under.
	RequestID string `json:"request_id"`

	// Outcome records how the request finished.
	Outcome Outcome `json:"outcome"`

	// CompletedAt is when End was called, or when the sweeper removed
	// the request.
	CompletedAt time.Time `json:"completed_at"`
}

// UserStatus is one user's activity as reported by Snapshot.
type UserStatus struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ActiveCount is the number of in-flight requests. It always equals
	// len(ActiveRequests).
	ActiveCount int `json:"active_count"`

	// ActiveRequests lists the in-flight requests ordered by start time,
	// oldest first.
	ActiveRequests []ActiveRequest `json:"active_requests"`

	// LastRequest is the user's most recent completion, or nil if no
	// request has completed yet.
	LastRequest *CompletedRequest `json:"last_request,omitempty"`
}
