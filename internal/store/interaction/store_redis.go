package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/metrics"
	"oidcprovider/pkg/platform/sentinel"
)

const (
	interactionKeyPrefix = "oidc:interaction:"

	// DefaultMaxRetries bounds WATCH/MULTI retries for one resolution.
	DefaultMaxRetries = 5
)

// RedisStore persists interactions as JSON documents. Keys carry a TTL of
// two interaction lifetimes; expiry and abandonment are derived at read
// time from ExpiresAt, so no sweeper is needed.
//
// Transitions run inside WATCH/MULTI: if another writer touches the key
// between read and write the transaction aborts and is retried.
type RedisStore struct {
	client     *redis.Client
	maxRetries int
	metrics    *metrics.Metrics
}

type RedisOption func(*RedisStore)

func WithMaxRetries(n int) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithRedisMetrics counts WATCH conflicts.
func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(s *RedisStore) {
		s.metrics = m
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, maxRetries: DefaultMaxRetries}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func interactionKey(id string) string {
	return interactionKeyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, i *models.Interaction) error {
	data, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	ok, err := s.client.SetNX(ctx, interactionKey(i.UUID), data, keyTTL(i, i.CreatedAt)).Result()
	if err != nil {
		return fmt.Errorf("store interaction: %w", err)
	}
	if !ok {
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrConflict)
	}
	return nil
}

// Get persists the abandonment of an expired interaction on first read.
func (s *RedisStore) Get(ctx context.Context, id string, now time.Time) (*models.Interaction, error) {
	i, err := load(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	if !i.Status.IsTerminal() && i.IsExpired(now) {
		err := s.update(ctx, id, now, func(cur *models.Interaction) error {
			cur.Abandon(now)
			i = cur
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if i.Status == models.InteractionAbandoned {
		return i, fmt.Errorf("interaction %s: %w", id, sentinel.ErrExpired)
	}
	return i, nil
}

func (s *RedisStore) Resolve(ctx context.Context, id string, res models.Resolution, now time.Time) (*models.Interaction, error) {
	var out *models.Interaction
	err := s.update(ctx, id, now, func(i *models.Interaction) error {
		if err := i.CanResolve(res, now); err != nil {
			return err
		}
		i.ApplyResolution(res, now)
		out = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) RecordLoginFailure(ctx context.Context, id string, now time.Time) error {
	return s.update(ctx, id, now, func(i *models.Interaction) error {
		return i.RecordLoginFailure(now)
	})
}

func (s *RedisStore) Abandon(ctx context.Context, id string, now time.Time) (*models.Interaction, error) {
	var out *models.Interaction
	err := s.update(ctx, id, now, func(i *models.Interaction) error {
		if err := abandonable(i, now); err != nil {
			return err
		}
		i.Abandon(now)
		out = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sweep is a no-op: key TTLs remove interactions and expiry is computed
// on read.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, int, error) {
	return 0, 0, nil
}

func (s *RedisStore) Close() error {
	return nil
}

// update runs mutate inside an optimistic transaction on the interaction
// key, retrying when a concurrent writer wins.
func (s *RedisStore) update(ctx context.Context, id string, now time.Time, mutate func(*models.Interaction) error) error {
	key := interactionKey(id)
	txf := func(tx *redis.Tx) error {
		i, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(i); err != nil {
			return err
		}
		data, err := json.Marshal(i)
		if err != nil {
			return fmt.Errorf("marshal interaction: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, keyTTL(i, now))
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.metrics.IncStoreConflict("interaction")
	}
	return fmt.Errorf("interaction %s: retries exhausted: %w", id, sentinel.ErrConflict)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, id string) (*models.Interaction, error) {
	data, err := c.Get(ctx, interactionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("interaction %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load interaction: %w", err)
	}
	var i models.Interaction
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, fmt.Errorf("unmarshal interaction: %w", err)
	}
	return &i, nil
}

// keyTTL keeps the key alive until the end of the retention window.
func keyTTL(i *models.Interaction, now time.Time) time.Duration {
	ttl := retainUntil(i).Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
