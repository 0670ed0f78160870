package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := New()

	require.NoError(t, st.Create(ctx, &models.Session{
		ID:        "sid",
		AccountID: "acct",
		AuthTime:  now,
		ExpiresAt: now.Add(time.Hour),
	}))

	got, err := st.FindActive(ctx, "sid", now)
	require.NoError(t, err)
	require.Equal(t, "acct", got.AccountID)

	_, err = st.FindActive(ctx, "sid", now.Add(2*time.Hour))
	require.ErrorIs(t, err, sentinel.ErrExpired)

	_, err = st.FindActive(ctx, "other", now)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	deleted, err := st.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	require.NoError(t, st.Delete(ctx, "sid"))
}
