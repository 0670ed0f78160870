package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"oidcprovider/internal/platform/config"
	dErrors "oidcprovider/pkg/domain-errors"
)

type AccountSuite struct {
	suite.Suite
	store *Store
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

func (s *AccountSuite) SetupTest() {
	store, err := NewStoreFromConfig([]config.AccountConfig{{
		ID:            "23121d3c-84df-44ac-b458-3d63a9a05497",
		Email:         "foo@example.com",
		EmailVerified: true,
		Password:      "secret",
		Name:          "Foo Bar",
	}})
	s.Require().NoError(err)
	s.store = store
}

func (s *AccountSuite) TestAuthenticate() {
	ctx := context.Background()

	s.Run("valid credentials", func() {
		a, err := s.store.Authenticate(ctx, "Foo@Example.com", "secret")
		s.Require().NoError(err)
		s.Equal("23121d3c-84df-44ac-b458-3d63a9a05497", a.ID)
	})

	s.Run("wrong password", func() {
		_, err := s.store.Authenticate(ctx, "foo@example.com", "nope")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})

	s.Run("unknown email looks the same", func() {
		_, err := s.store.Authenticate(ctx, "bar@example.com", "secret")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	})
}

func (s *AccountSuite) TestFindByID() {
	_, err := s.store.FindByID(context.Background(), "missing")
	s.True(IsNotFound(err))
}

func (s *AccountSuite) TestClaimsFollowScopeMapping() {
	a, err := s.store.FindByID(context.Background(), "23121d3c-84df-44ac-b458-3d63a9a05497")
	s.Require().NoError(err)
	mapping := config.DefaultClaims()

	openidOnly := a.Claims([]string{"openid"}, mapping)
	s.Equal(map[string]any{"sub": a.ID}, openidOnly)

	withEmail := a.Claims([]string{"openid", "email"}, mapping)
	s.Equal("foo@example.com", withEmail["email"])
	s.Equal(true, withEmail["email_verified"])
	s.NotContains(withEmail, "name")

	requested := a.Claims([]string{"openid"}, mapping, "email", "name")
	s.Equal("foo@example.com", requested["email"])
	s.NotContains(requested, "name", "claims outside the mapping are never released")

	mapping["profile"] = []string{"name"}
	withProfile := a.Claims([]string{"openid"}, mapping, "name")
	s.Equal("Foo Bar", withProfile["name"])

	s.ElementsMatch([]string{"sub", "email", "email_verified"}, SupportedClaims(mapping))
}
