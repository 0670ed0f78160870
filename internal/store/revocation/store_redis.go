package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"oidcprovider/internal/platform/metrics"
)

const revokedKeyPrefix = "oidc:trl:"

// RedisTRL shares revocation state across provider instances. Each entry
// is a key whose TTL matches the lifetime of what it revokes.
type RedisTRL struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

type RedisOption func(*RedisTRL)

// WithRedisMetrics times IsRevoked lookups as operation "trl_lookup".
func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(t *RedisTRL) {
		t.metrics = m
	}
}

func NewRedisTRL(client *redis.Client, opts ...RedisOption) *RedisTRL {
	t := &RedisTRL{client: client}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *RedisTRL) RevokeToken(ctx context.Context, id string, ttl time.Duration) error {
	return t.RevokeMany(ctx, []string{id}, ttl)
}

// RevokeMany writes every entry in one pipeline round trip.
func (t *RedisTRL) RevokeMany(ctx context.Context, ids []string, ttl time.Duration) error {
	ids = nonEmpty(ids)
	if len(ids) == 0 {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	_, err := t.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, revokedKeyPrefix+id, 1, ttl)
		}
		return nil
	})
	return err
}

func (t *RedisTRL) IsRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	defer t.metrics.ObserveOperation("trl_lookup", time.Now())
	n, err := t.client.Exists(ctx, revokedKeyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired is a no-op; Redis expires entries itself.
func (t *RedisTRL) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
