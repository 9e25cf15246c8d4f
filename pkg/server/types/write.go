package types

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the content-type header before writing.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteError writes an error response. The HTTP status code is derived
// from the error type.
func WriteError(w http.ResponseWriter, errResp *ErrorResponse) error {
	return WriteJSON(w, errResp.Error.HTTPStatusCode(), errResp)
}
