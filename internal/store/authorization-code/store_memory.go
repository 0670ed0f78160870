package authorizationcode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// InMemoryStore stores authorization codes in memory.
//
// Error contract:
//   - ErrNotFound when the code was never issued (or has been swept)
//   - ErrAlreadyUsed / ErrExpired / ErrInvalidState from consume validation
type InMemoryStore struct {
	mu    sync.RWMutex
	codes map[string]*models.AuthorizationCodeRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{codes: make(map[string]*models.AuthorizationCodeRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.AuthorizationCodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.codes[record.Code]; exists {
		return fmt.Errorf("authorization code: %w", sentinel.ErrConflict)
	}
	cp := *record
	s.codes[record.Code] = &cp
	return nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.AuthorizationCodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.codes[code]; ok {
		cp := *record
		return &cp, nil
	}
	return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
}

// Execute validates and mutates a code atomically. On validation failure
// the record is still returned so callers can detect replay.
func (s *InMemoryStore) Execute(
	_ context.Context,
	code string,
	validate func(*models.AuthorizationCodeRecord) error,
	mutate func(*models.AuthorizationCodeRecord),
) (*models.AuthorizationCodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok {
		return nil, fmt.Errorf("authorization code not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(record); err != nil {
		cp := *record
		return &cp, err
	}
	mutate(record)
	cp := *record
	return &cp, nil
}

// Consume marks the code used if it is unused, unexpired and bound to
// redirectURI.
func (s *InMemoryStore) Consume(ctx context.Context, code, redirectURI string, now time.Time) (*models.AuthorizationCodeRecord, error) {
	return s.Execute(ctx, code,
		func(r *models.AuthorizationCodeRecord) error { return r.ValidateForConsume(redirectURI, now) },
		func(r *models.AuthorizationCodeRecord) { r.MarkUsed() },
	)
}

// DeleteExpired removes codes that expired before now.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for code, record := range s.codes {
		if record.ExpiresAt.Before(now) {
			delete(s.codes, code)
			deleted++
		}
	}
	return deleted, nil
}
