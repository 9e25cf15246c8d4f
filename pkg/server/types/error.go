package types

// ErrorResponse is the JSON error envelope returned for all error
// conditions.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "authentication_error",
	// "not_found", "rate_limit_exceeded", "server_error",
	// "service_unavailable", "gateway_timeout".
	Type string `json:"type"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeAuthentication indicates an authentication failure (401).
	ErrorTypeAuthentication = "authentication_error"

	// ErrorTypeNotFound indicates a resource was not found (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeRateLimitExceeded indicates too many requests (429).
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeServiceUnavailable indicates temporary unavailability (503).
	ErrorTypeServiceUnavailable = "service_unavailable"

	// ErrorTypeGatewayTimeout indicates the request timed out (504).
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error code constants for common scenarios.
const (
	// CodeMissingToken indicates no session token was supplied.
	CodeMissingToken = "missing_token"

	// CodeInvalidSession indicates the session token is not valid.
	CodeInvalidSession = "invalid_session"

	// CodeRateLimited indicates the per-user request budget is spent.
	CodeRateLimited = "rate_limited"

	// CodeRequestTimeout indicates the request exceeded the handler
	// timeout.
	CodeRequestTimeout = "request_timeout"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates an error response with the given details.
func NewErrorResponse(message, errorType, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid
// requests (400).
func NewInvalidRequestError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, "")
}

// NewAuthenticationError creates an error response for authentication
// failures (401).
func NewAuthenticationError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeAuthentication, code)
}

// NewNotFoundError creates an error response for unknown resources
// (404).
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "")
}

// NewRateLimitError creates an error response for exhausted request
// budgets (429).
func NewRateLimitError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeRateLimitExceeded, CodeRateLimited)
}

// NewServerError creates an error response for internal errors (500).
// Internal details never go into the message.
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, CodeInternalError)
}

// NewGatewayTimeoutError creates an error response for handler
// timeouts (504).
func NewGatewayTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeGatewayTimeout, CodeRequestTimeout)
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeAuthentication:
		return 401
	case ErrorTypeNotFound:
		return 404
	case ErrorTypeRateLimitExceeded:
		return 429
	case ErrorTypeServerError:
		return 500
	case ErrorTypeServiceUnavailable:
		return 503
	case ErrorTypeGatewayTimeout:
		return 504
	default:
		return 500
	}
}
