package provider

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CodeStore,RevocationList

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"oidcprovider/internal/client"
	clientstore "oidcprovider/internal/client/store"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/config"
	"oidcprovider/internal/provider/mocks"
	"oidcprovider/internal/store/grant"
	refreshtoken "oidcprovider/internal/store/refresh-token"
	"oidcprovider/internal/token"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
)

func newMockedService(t *testing.T, codes CodeStore, trl RevocationList) *Service {
	t.Helper()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	clients := client.New(clientstore.NewInMemory(), client.WithClock(clock))
	require.NoError(t, clients.Seed(context.Background(), []config.ClientConfig{{
		ClientID:     "rp",
		ClientSecret: rpSecret,
		RedirectURIs: []string{rpRedirect},
		GrantTypes:   []string{"authorization_code", "client_credentials"},
	}}))
	key, err := token.GenerateKey(token.AlgES256, now)
	require.NoError(t, err)
	issuer := token.NewIssuer("http://localhost:3000", token.NewKeySet(key), token.WithClock(clock))

	return New(Deps{
		Clients:       clients,
		Grants:        grant.NewInMemory(),
		Codes:         codes,
		RefreshTokens: refreshtoken.New(),
		Revocations:   trl,
		Issuer:        issuer,
	}, WithClock(clock))
}

func TestTokenCodeStoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	codes := mocks.NewMockCodeStore(ctrl)
	trl := mocks.NewMockRevocationList(ctrl)
	svc := newMockedService(t, codes, trl)

	req := TokenRequest{Credentials: rpCreds(), GrantType: "authorization_code", Code: "abc", RedirectURI: rpRedirect}

	t.Run("storage error is a server error", func(t *testing.T) {
		codes.EXPECT().Consume(gomock.Any(), "abc", rpRedirect, gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := svc.Token(context.Background(), req)
		assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	})

	t.Run("replayed code revokes its grant", func(t *testing.T) {
		record := &models.AuthorizationCodeRecord{Code: "abc", ClientID: "rp", GrantID: "g-1", Used: true}
		codes.EXPECT().Consume(gomock.Any(), "abc", rpRedirect, gomock.Any()).
			Return(record, fmt.Errorf("authorization code: %w", sentinel.ErrAlreadyUsed))
		trl.EXPECT().RevokeToken(gomock.Any(), "gid:g-1", token.DefaultLifetimes().RefreshToken).Return(nil)
		trl.EXPECT().RevokeMany(gomock.Any(), gomock.Len(0), gomock.Any()).Return(nil)

		_, err := svc.Token(context.Background(), req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidGrant))
	})
}

func TestRevokeRevocationListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	trl := mocks.NewMockRevocationList(ctrl)
	svc := newMockedService(t, mocks.NewMockCodeStore(ctrl), trl)
	ctx := context.Background()

	resp, err := svc.Token(ctx, TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials"})
	require.NoError(t, err)

	trl.EXPECT().RevokeToken(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	err = svc.Revoke(ctx, rpCreds(), resp.AccessToken, "")
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
}
