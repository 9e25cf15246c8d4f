package auth

import (
	"context"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"
)

// StaticStore is a SessionStore backed by the fixed session table from
// configuration. It serves dev and test deployments; production setups
// substitute their own SessionStore implementation.
type StaticStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStaticStore builds a store from the configured session table.
// Entries with an empty token or user ID are skipped.
func NewStaticStore(entries []config.SessionConfig) *StaticStore {
	sessions := make(map[string]*Session)
	now := time.Now()
	for _, e := range entries {
		if e.Token == "" || e.UserID == "" {
			continue
		}
		sessions[e.Token] = &Session{
			Token:     e.Token,
			UserID:    e.UserID,
			CreatedAt: now,
		}
	}

	return &StaticStore{sessions: sessions}
}

// GetSession returns the session for the given token, or
// ErrSessionNotFound when the token is unknown.
func (s *StaticStore) GetSession(_ context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// Add registers a session.
func (s *StaticStore) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
}

// Remove deletes the session for the given token.
func (s *StaticStore) Remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len returns the number of registered sessions.
func (s *StaticStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
