package auth

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by SessionStore implementations when no
// session matches the presented token.
var ErrSessionNotFound = errors.New("session not found")

// Session represents an authenticated session bound to a user.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}

// SessionStore resolves session tokens.
//
// Implementations must return ErrSessionNotFound for unknown tokens so
// callers can distinguish a bad credential from a store failure.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (*Session, error)
}
