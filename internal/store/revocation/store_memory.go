package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a process-local token revocation list.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

type InMemoryOption func(*InMemoryTRL)

func WithClock(clock Clock) InMemoryOption {
	return func(t *InMemoryTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func NewInMemoryTRL(opts ...InMemoryOption) *InMemoryTRL {
	t := &InMemoryTRL{revoked: make(map[string]time.Time), clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// RevokeToken records id until ttl elapses. Revoking twice extends the
// entry.
func (t *InMemoryTRL) RevokeToken(_ context.Context, id string, ttl time.Duration) error {
	if id == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[id] = t.clock().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, id string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	until, ok := t.revoked[id]
	if !ok {
		return false, nil
	}
	return t.clock().Before(until), nil
}

func (t *InMemoryTRL) RevokeMany(ctx context.Context, ids []string, ttl time.Duration) error {
	for _, id := range nonEmpty(ids) {
		if err := t.RevokeToken(ctx, id, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (t *InMemoryTRL) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	deleted := 0
	for id, until := range t.revoked {
		if !now.Before(until) {
			delete(t.revoked, id)
			deleted++
		}
	}
	return deleted, nil
}
