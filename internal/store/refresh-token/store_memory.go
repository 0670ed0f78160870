package refreshtoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// InMemoryStore tracks refresh tokens by jti for one-time rotation.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*models.RefreshTokenRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]*models.RefreshTokenRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.tokens[record.JTI] = &cp
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, jti string) (*models.RefreshTokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.tokens[jti]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
}

// Consume marks the token used. A replayed token yields ErrAlreadyUsed
// together with the record so the caller can revoke its grant.
func (s *InMemoryStore) Consume(_ context.Context, jti string, now time.Time) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[jti]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", sentinel.ErrNotFound)
	}
	if err := record.ValidateForConsume(now); err != nil {
		cp := *record
		return &cp, err
	}
	record.MarkUsed(now)
	cp := *record
	return &cp, nil
}

// DeleteByGrant drops every refresh token minted from the grant and
// returns their jtis.
func (s *InMemoryStore) DeleteByGrant(_ context.Context, grantID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jtis []string
	for jti, record := range s.tokens {
		if record.GrantID == grantID {
			delete(s.tokens, jti)
			jtis = append(jtis, jti)
		}
	}
	return jtis, nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for jti, record := range s.tokens {
		if record.ExpiresAt.Before(now) {
			delete(s.tokens, jti)
			deleted++
		}
	}
	return deleted, nil
}
