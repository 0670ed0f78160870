package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"oidcprovider/pkg/platform/sentinel"
)

type InteractionSuite struct {
	suite.Suite
	now time.Time
}

func TestInteractionSuite(t *testing.T) {
	suite.Run(t, new(InteractionSuite))
}

func (s *InteractionSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InteractionSuite) newInteraction() *Interaction {
	params := AuthorizationParams{
		ClientID:     "foo",
		RedirectURI:  "http://localhost:3002/callback",
		ResponseType: ResponseTypeIDTokenToken,
		Scope:        []string{"openid", "email"},
		Nonce:        "n-0S6",
	}
	return NewInteraction("uuid-1", params, "", s.now, 10*time.Minute)
}

func (s *InteractionSuite) login() *Login {
	return &Login{AccountID: "acct-1", ACR: "urn:mace:incommon:iap:bronze", AuthTime: s.now}
}

func (s *InteractionSuite) TestBegin() {
	s.Run("login required enters needs_login and drops any login", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, s.login())
		s.Equal(InteractionNeedsLogin, i.Status)
		s.Nil(i.Login)
	})

	s.Run("client not authorized with a session login enters needs_consent", func() {
		i := s.newInteraction()
		i.Begin(ReasonClientNotAuthorized, s.login())
		s.Equal(InteractionNeedsConsent, i.Status)
		s.NotNil(i.Login)
	})

	s.Run("consent reason without a login falls back to needs_login", func() {
		i := s.newInteraction()
		i.Begin(ReasonConsentPrompt, nil)
		s.Equal(InteractionNeedsLogin, i.Status)
	})
}

func (s *InteractionSuite) TestResolve() {
	s.Run("consent before login is rejected", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		err := i.CanResolve(Resolution{Consent: &Consent{}, GrantID: "g"}, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("login and consent in one call completes", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		res := Resolution{Login: s.login(), Consent: &Consent{}, GrantID: "g-1"}
		s.Require().NoError(i.CanResolve(res, s.now))
		s.True(i.ApplyResolution(res, s.now))
		s.Equal(InteractionCompleted, i.Status)
		s.Equal("g-1", i.GrantID)
	})

	s.Run("login alone moves to needs_consent and updates the reason", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		res := Resolution{Login: s.login(), NextReason: ReasonClientNotAuthorized}
		s.Require().NoError(i.CanResolve(res, s.now))
		s.False(i.ApplyResolution(res, s.now))
		s.Equal(InteractionNeedsConsent, i.Status)
		s.Equal(ReasonClientNotAuthorized, i.Reason)
	})

	s.Run("login after the login step is rejected", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		first := s.login()
		i.ApplyResolution(Resolution{Login: first}, s.now)

		other := &Login{AccountID: "acct-2", AuthTime: s.now}
		s.ErrorIs(i.CanResolve(Resolution{Login: other}, s.now), sentinel.ErrInvalidState)
		s.ErrorIs(i.CanResolve(Resolution{Login: other, Consent: &Consent{}, GrantID: "g"}, s.now), sentinel.ErrInvalidState)
		s.Equal(first.AccountID, i.Login.AccountID)
	})

	s.Run("second resolution reports already resolved", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		res := Resolution{Login: s.login(), Consent: &Consent{}, GrantID: "g-1"}
		i.ApplyResolution(res, s.now)
		s.ErrorIs(i.CanResolve(res, s.now), sentinel.ErrAlreadyResolved)
	})

	s.Run("expired interaction reports expired", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		err := i.CanResolve(Resolution{Login: s.login()}, s.now.Add(11*time.Minute))
		s.ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("abandoned interaction reports expired", func() {
		i := s.newInteraction()
		i.Begin(ReasonLoginRequired, nil)
		s.True(i.Abandon(s.now))
		s.False(i.Abandon(s.now))
		s.ErrorIs(i.CanResolve(Resolution{Login: s.login()}, s.now), sentinel.ErrExpired)
	})
}

func (s *InteractionSuite) TestLoginFailure() {
	i := s.newInteraction()
	i.Begin(ReasonLoginRequired, nil)
	s.Require().NoError(i.RecordLoginFailure(s.now))
	s.Equal(LoginErrorInvalidCredentials, i.LastError)
	s.Equal(InteractionNeedsLogin, i.Status)

	i.ApplyResolution(Resolution{Login: s.login()}, s.now)
	s.Empty(i.LastError)
}

func (s *InteractionSuite) TestGrantedScope() {
	i := s.newInteraction()
	i.Begin(ReasonLoginRequired, nil)
	i.ApplyResolution(Resolution{Login: s.login(), Consent: &Consent{Scope: []string{"openid"}}, GrantID: "g"}, s.now)

	grant, err := NewGrantFromInteraction(i, s.now, time.Hour)
	s.Require().NoError(err)
	s.Equal([]string{"openid"}, grant.Scope)
	s.Equal("acct-1", grant.Subject())
	s.Equal("uuid-1", grant.InteractionID)
	s.True(grant.Covers([]string{"openid"}))
	s.False(grant.Covers([]string{"openid", "email"}))
}
