package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/logger"
	authorizationcode "oidcprovider/internal/store/authorization-code"
)

type brokenStore struct{}

func (brokenStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func TestSweepDeletesExpiredAndLogsFailures(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	codes := authorizationcode.New()
	require.NoError(t, codes.Create(context.Background(), &models.AuthorizationCodeRecord{
		Code: "stale", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, codes.Create(context.Background(), &models.AuthorizationCodeRecord{
		Code: "fresh", ExpiresAt: now.Add(time.Minute),
	}))

	var buf bytes.Buffer
	s := &sweeper{
		interval: time.Hour,
		logger:   logger.NewWithWriter(&buf, "debug", "json"),
		stores:   map[string]expirer{"codes": codes, "broken": brokenStore{}},
	}
	s.sweep(context.Background(), now)

	_, err := codes.FindByCode(context.Background(), "stale")
	assert.Error(t, err)
	_, err = codes.FindByCode(context.Background(), "fresh")
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"store":"broken"`)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &sweeper{interval: time.Millisecond, logger: logger.New("error", "json"), stores: map[string]expirer{}}
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
