package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// InMemory is the default client registry backend.
type InMemory struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[string]*models.Client)}
}

func (s *InMemory) Create(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ClientID]; exists {
		return fmt.Errorf("client %s: %w", c.ClientID, sentinel.ErrConflict)
	}
	s.clients[c.ClientID] = cloneClient(c)
	return nil
}

func (s *InMemory) Update(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ClientID]; !exists {
		return fmt.Errorf("client %s: %w", c.ClientID, sentinel.ErrNotFound)
	}
	s.clients[c.ClientID] = cloneClient(c)
	return nil
}

func (s *InMemory) FindByClientID(_ context.Context, clientID string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, sentinel.ErrNotFound)
	}
	return cloneClient(c), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

func cloneClient(c *models.Client) *models.Client {
	cp := *c
	cp.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	cp.PostLogoutRedirectURIs = append([]string(nil), c.PostLogoutRedirectURIs...)
	cp.GrantTypes = append([]models.GrantType(nil), c.GrantTypes...)
	cp.ResponseTypes = append([]models.ResponseType(nil), c.ResponseTypes...)
	cp.Scope = append([]string(nil), c.Scope...)
	return &cp
}
