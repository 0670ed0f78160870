package grant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

const (
	grantKeyPrefix = "oidc:grant:"
	indexKeyPrefix = "oidc:grant:latest:"
)

// RedisStore persists grants as JSON with a TTL matching the grant's
// expiry. The latest-grant index shares that TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, g *models.Grant) (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal grant: %w", err)
	}
	ttl := time.Until(g.ExpiresAt)
	if g.ExpiresAt.IsZero() || ttl <= 0 {
		ttl = 0
	}

	ok, err := s.client.SetNX(ctx, grantKeyPrefix+g.ID, data, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store grant: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("grant %s: %w", g.ID, sentinel.ErrConflict)
	}
	if g.AccountID != "" {
		if err := s.client.Set(ctx, indexKey(g.AccountID, g.ClientID), g.ID, ttl).Err(); err != nil {
			return "", fmt.Errorf("index grant: %w", err)
		}
	}
	return g.ID, nil
}

func (s *RedisStore) Find(ctx context.Context, id string, now time.Time) (*models.Grant, error) {
	data, err := s.client.Get(ctx, grantKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load grant: %w", err)
	}
	var g models.Grant
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal grant: %w", err)
	}
	if g.IsExpired(now) {
		return nil, fmt.Errorf("grant %s: %w", id, sentinel.ErrExpired)
	}
	return &g, nil
}

func (s *RedisStore) FindLatest(ctx context.Context, accountID, clientID string, now time.Time) (*models.Grant, error) {
	id, err := s.client.Get(ctx, indexKey(accountID, clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("grant for %s/%s: %w", accountID, clientID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load grant index: %w", err)
	}
	return s.Find(ctx, id, now)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	g, err := s.Find(ctx, id, time.Time{})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, grantKeyPrefix+id)
	if g.AccountID != "" {
		// only drop the index if it still points at this grant
		idx := indexKey(g.AccountID, g.ClientID)
		if cur, _ := s.client.Get(ctx, idx).Result(); cur == id {
			pipe.Del(ctx, idx)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteExpired is a no-op; Redis expires grant keys itself.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func indexKey(accountID, clientID string) string {
	return indexKeyPrefix + accountID + ":" + clientID
}
