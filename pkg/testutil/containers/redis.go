//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"oidcprovider/internal/platform/config"
	platformredis "oidcprovider/internal/platform/redis"
)

// RedisContainer is a disposable Redis reached through the same client
// constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *platformredis.Client
}

func newRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err == nil {
		var client *platformredis.Client
		client, err = platformredis.New(ctx, config.RedisConfig{URL: url})
		if err == nil {
			return &RedisContainer{Container: container, URL: url, Client: client}
		}
	}
	_ = container.Terminate(ctx)
	t.Fatalf("connect to redis container: %v", err)
	return nil
}

// FlushAll empties every database; call it between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
