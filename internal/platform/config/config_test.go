package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Server.Issuer)
	assert.Equal(t, "/interaction/{uuid}", cfg.Server.InteractionURL)
	assert.Equal(t, time.Hour, cfg.Lifetimes.IDToken)
	assert.Equal(t, 14*24*time.Hour, cfg.Lifetimes.RefreshToken)
	assert.Equal(t, time.Minute, cfg.Lifetimes.AuthorizationCode)
	assert.Equal(t, 10*time.Minute, cfg.Lifetimes.Interaction)
	assert.True(t, cfg.Features.Introspection)
	assert.False(t, cfg.Features.DevInteractions)
	assert.Equal(t, []string{"email", "email_verified"}, cfg.Claims["email"])

	require.Len(t, cfg.Clients, 1)
	assert.Equal(t, "foo", cfg.Clients[0].ClientID)
	assert.Equal(t, []string{"id_token token"}, cfg.Clients[0].ResponseTypes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OIDC_SERVER_ISSUER", "https://op.example.com")
	t.Setenv("OIDC_LIFETIMES_INTERACTION", "2m")
	t.Setenv("OIDC_FEATURES_REGISTRATION", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://op.example.com", cfg.Server.Issuer)
	assert.Equal(t, 2*time.Minute, cfg.Lifetimes.Interaction)
	assert.False(t, cfg.Features.Registration)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oidc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  issuer: https://id.example.org
clients:
  - client_id: web
    client_secret: s3cret
    redirect_uris: [https://rp.example.org/cb]
    response_types: [code]
    grant_types: [authorization_code, refresh_token]
accounts:
  - id: 23121d3c-84df-44ac-b458-3d63a9a05497
    email: foo@example.com
    email_verified: true
    password: secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://id.example.org", cfg.Server.Issuer)
	require.Len(t, cfg.Clients, 1)
	assert.Equal(t, "web", cfg.Clients[0].ClientID)
	require.Len(t, cfg.Accounts, 1)
	assert.True(t, cfg.Accounts[0].EmailVerified)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	t.Setenv("OIDC_STORAGE_BACKEND", "redis")
	_, err := Load("")
	assert.ErrorContains(t, err, "redis.url")

	t.Setenv("OIDC_STORAGE_BACKEND", "memory")
	t.Setenv("OIDC_FEATURES_DEV_INTERACTIONS", "true")
	_, err = Load("")
	assert.ErrorContains(t, err, "dev_interactions")
}
