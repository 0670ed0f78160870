package grant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// InMemoryStore keeps grants by id plus an (account, client) index that
// points at the most recent grant for the pair.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[string]*models.Grant
	latest map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		grants: make(map[string]*models.Grant),
		latest: make(map[string]string),
	}
}

func pairKey(accountID, clientID string) string {
	return accountID + "|" + clientID
}

// Save finalizes a grant and returns its id.
func (s *InMemoryStore) Save(_ context.Context, g *models.Grant) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.grants[g.ID]; exists {
		return "", fmt.Errorf("grant %s: %w", g.ID, sentinel.ErrConflict)
	}
	cp := *g
	s.grants[g.ID] = &cp
	if g.AccountID != "" {
		s.latest[pairKey(g.AccountID, g.ClientID)] = g.ID
	}
	return g.ID, nil
}

func (s *InMemoryStore) Find(_ context.Context, id string, now time.Time) (*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	if g.IsExpired(now) {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrExpired)
	}
	cp := *g
	return &cp, nil
}

// FindLatest returns the newest live grant the account gave the client.
func (s *InMemoryStore) FindLatest(ctx context.Context, accountID, clientID string, now time.Time) (*models.Grant, error) {
	s.mu.RLock()
	id, ok := s.latest[pairKey(accountID, clientID)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("grant for %s/%s: %w", accountID, clientID, sentinel.ErrNotFound)
	}
	return s.Find(ctx, id, now)
}

// Delete removes a grant. Deleting an unknown grant is not an error.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return nil
	}
	delete(s.grants, id)
	key := pairKey(g.AccountID, g.ClientID)
	if s.latest[key] == id {
		delete(s.latest, key)
	}
	return nil
}

// DeleteExpired removes grants past their expiry as of now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, g := range s.grants {
		if g.IsExpired(now) {
			delete(s.grants, id)
			key := pairKey(g.AccountID, g.ClientID)
			if s.latest[key] == id {
				delete(s.latest, key)
			}
			deleted++
		}
	}
	return deleted, nil
}
