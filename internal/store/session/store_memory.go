package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// InMemoryStore holds provider browser sessions keyed by cookie value.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func New() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

// FindActive returns the session if it exists and has not expired.
func (s *InMemoryStore) FindActive(_ context.Context, id string, now time.Time) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if !session.IsActive(now) {
		return nil, fmt.Errorf("session %s: %w", id, sentinel.ErrExpired)
	}
	cp := *session
	return &cp, nil
}

// Delete ends a session. Unknown ids are ignored.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, session := range s.sessions {
		if !session.IsActive(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
