// Package types defines the wire types for the Callisto HTTP API.
//
// This package contains the data transfer objects used for HTTP
// request/response handling, independent of the domain types in
// pkg/activity and pkg/registry.
//
// # Core Types
//
// Status types:
//   - StatusResponse: Document returned by GET /v1/activity/status
//   - UserActivity: Per-user activity entry
//   - ActiveRequest: One in-flight request
//   - LastRequest: Most recent completion
//
// Error types:
//   - ErrorResponse: JSON error envelope
//   - ErrorDetail: Error details with message, type, code
//
// # JSON Serialization
//
// Status types use camelCase field names; the error envelope follows
// the common {"error": {"message", "type", "code"}} convention so
// clients can branch on the type string rather than parsing messages.
//
// WriteJSON and WriteError are the single path through which handlers
// and middleware emit responses, keeping the content-type header and
// status code handling in one place.
package types
