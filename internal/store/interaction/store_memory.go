package interaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

// DefaultSweepInterval is how often the in-memory sweeper runs.
const DefaultSweepInterval = 30 * time.Second

// InMemoryStore keeps interactions in a map guarded by a single mutex.
// Resolution and the sweeper share that mutex, so a sweep can never race a
// resolution of the same interaction.
//
// Expired interactions are marked abandoned on the first sweep after
// ExpiresAt and deleted once they have been expired for another full TTL,
// so late callers observe Expired rather than NotFound.
type InMemoryStore struct {
	mu           sync.Mutex
	interactions map[string]*models.Interaction

	sweepInterval time.Duration
	clock         func() time.Time
	stopSweep     chan struct{}
	sweepDone     chan struct{}
	startOnce     sync.Once
	closeOnce     sync.Once
	started       bool
}

type Option func(*InMemoryStore)

func WithSweepInterval(d time.Duration) Option {
	return func(s *InMemoryStore) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs the store. Call StartSweeper to run the
// background sweep and Close to stop it.
func NewInMemory(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		interactions:  make(map[string]*models.Interaction),
		sweepInterval: DefaultSweepInterval,
		clock:         time.Now,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, i *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.interactions[i.UUID]; exists {
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrConflict)
	}
	s.interactions[i.UUID] = clone(i)
	return nil
}

// Get returns a copy of the interaction. An expired interaction is marked
// abandoned on first observation and returned together with ErrExpired.
func (s *InMemoryStore) Get(_ context.Context, id string, now time.Time) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if i.IsExpired(now) {
		i.Abandon(now)
	}
	if i.Status == models.InteractionAbandoned {
		return clone(i), fmt.Errorf("interaction %s: %w", id, sentinel.ErrExpired)
	}
	return clone(i), nil
}

// Resolve applies res under the store lock. The status check and the
// transition happen in one critical section, so of two concurrent
// completions exactly one succeeds and the other sees ErrAlreadyResolved.
func (s *InMemoryStore) Resolve(_ context.Context, id string, res models.Resolution, now time.Time) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err := i.CanResolve(res, now); err != nil {
		return nil, err
	}
	i.ApplyResolution(res, now)
	return clone(i), nil
}

func (s *InMemoryStore) RecordLoginFailure(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[id]
	if !ok {
		return fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	return i.RecordLoginFailure(now)
}

// Abandon ends a pending interaction at the end-user's request.
func (s *InMemoryStore) Abandon(_ context.Context, id string, now time.Time) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.interactions[id]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err := abandonable(i, now); err != nil {
		return nil, err
	}
	i.Abandon(now)
	return clone(i), nil
}

// Sweep marks expired interactions abandoned and deletes those past their
// retention window.
func (s *InMemoryStore) Sweep(_ context.Context, now time.Time) (abandoned int, deleted int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, i := range s.interactions {
		if now.After(retainUntil(i)) {
			delete(s.interactions, id)
			deleted++
			continue
		}
		if i.IsExpired(now) && i.Abandon(now) {
			abandoned++
		}
	}
	return abandoned, deleted, nil
}

// StartSweeper launches the background sweep loop.
func (s *InMemoryStore) StartSweeper() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		go s.sweepLoop()
	})
}

func (s *InMemoryStore) sweepLoop() {
	defer close(s.sweepDone)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			_, _, _ = s.Sweep(context.Background(), s.clock())
		}
	}
}

// Close stops the sweeper, if running, and waits for it to exit.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	s.closeOnce.Do(func() {
		close(s.stopSweep)
	})
	if started {
		<-s.sweepDone
	}
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}

func abandonable(i *models.Interaction, now time.Time) error {
	switch {
	case i.Status == models.InteractionCompleted:
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrAlreadyResolved)
	case i.Status == models.InteractionAbandoned || i.IsExpired(now):
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrExpired)
	}
	return nil
}

// retainUntil is ExpiresAt plus one more TTL.
func retainUntil(i *models.Interaction) time.Time {
	return i.ExpiresAt.Add(i.ExpiresAt.Sub(i.CreatedAt))
}

func clone(i *models.Interaction) *models.Interaction {
	cp := *i
	cp.Params.Scope = append([]string(nil), i.Params.Scope...)
	cp.Params.Prompt = append([]string(nil), i.Params.Prompt...)
	return &cp
}
