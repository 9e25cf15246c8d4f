package storage

import "fmt"

// Error describes a failed database operation.
type Error struct {
	// Op is the operation that failed (e.g. "open", "migrate", "record").
	Op string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
