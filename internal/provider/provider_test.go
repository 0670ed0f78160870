package provider

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"oidcprovider/internal/account"
	"oidcprovider/internal/audit"
	"oidcprovider/internal/client"
	clientstore "oidcprovider/internal/client/store"
	"oidcprovider/internal/interaction"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/oidc/responder"
	"oidcprovider/internal/platform/config"
	"oidcprovider/internal/platform/metrics"
	authorizationcode "oidcprovider/internal/store/authorization-code"
	"oidcprovider/internal/store/grant"
	interactionstore "oidcprovider/internal/store/interaction"
	refreshtoken "oidcprovider/internal/store/refresh-token"
	"oidcprovider/internal/store/revocation"
	"oidcprovider/internal/store/session"
	"oidcprovider/internal/token"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/secrets"
)

const (
	rpSecret   = "rp-secret"
	verifier   = "dBjftJeZ4CVP-mJ92K9qmSVqlG3jxfVzHsDhpCuS9bQzlKk"
	rpRedirect = "https://rp.example.com/cb"
)

type ProviderSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	svc         *Service
	coordinator *interaction.Service
	sessions    *session.InMemoryStore
	sink        *audit.MemorySink
	publisher   *audit.Publisher
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderSuite))
}

func (s *ProviderSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s.svc = s.build(AllFeatures())
}

func (s *ProviderSuite) clock() time.Time { return s.now }

func (s *ProviderSuite) build(features Features) *Service {
	s.sink = audit.NewMemorySink()
	s.publisher = audit.NewPublisher(audit.WithBufferSize(256))
	clients := client.New(clientstore.NewInMemory(), client.WithClock(s.clock))
	s.Require().NoError(clients.Seed(s.ctx, config.DefaultClients()))
	s.Require().NoError(clients.Seed(s.ctx, []config.ClientConfig{
		{
			ClientID:               "rp",
			ClientSecret:           rpSecret,
			RedirectURIs:           []string{rpRedirect},
			PostLogoutRedirectURIs: []string{"https://rp.example.com/bye"},
			GrantTypes:             []string{"authorization_code", "refresh_token", "client_credentials"},
			ResponseTypes:          []string{"code"},
			Scope:                  "openid email offline_access api:read",
		},
		{
			ClientID:                "spa",
			RedirectURIs:            []string{"https://spa.example.com/cb"},
			TokenEndpointAuthMethod: "none",
		},
	}))

	hash, err := secrets.Hash("correct horse")
	s.Require().NoError(err)
	accounts := account.NewStore()
	s.Require().NoError(accounts.Add(&account.Account{
		ID: "acct-1", Email: "user@example.com", EmailVerified: true, PasswordHash: hash,
	}))

	key, err := token.GenerateKey(token.AlgRS256, s.now)
	s.Require().NoError(err)
	trl := revocation.NewInMemoryTRL(revocation.WithClock(s.clock))
	issuer := token.NewIssuer("http://localhost:3000", token.NewKeySet(key),
		token.WithClock(s.clock), token.WithRevocations(trl))

	codes := authorizationcode.New()
	claimsMapping := config.DefaultClaims()
	claimsMapping["api:read"] = nil
	resp := responder.New(issuer, codes, accounts, claimsMapping,
		responder.WithClock(s.clock), responder.WithClaimsParameter(features.ClaimsParameter))

	grants := grant.NewInMemory()
	s.sessions = session.New()
	s.coordinator = interaction.New(interactionstore.NewInMemory(interactionstore.WithClock(s.clock)),
		grants, s.sessions, accounts, clients, resp, interaction.DefaultConfig(),
		interaction.WithClock(s.clock))

	return New(Deps{
		Clients:       clients,
		Coordinator:   s.coordinator,
		Sessions:      s.sessions,
		Grants:        grants,
		Codes:         codes,
		RefreshTokens: refreshtoken.New(),
		Revocations:   trl,
		Issuer:        issuer,
		Claims:        resp,
	},
		WithFeatures(features),
		WithClaimsMapping(claimsMapping),
		WithClock(s.clock),
		WithAuditPublisher(s.publisher),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
}

func rpCreds() ClientCredentials {
	return ClientCredentials{ClientID: "rp", ClientSecret: rpSecret, Method: models.AuthMethodClientSecretBasic}
}

func challenge(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// login drives an authorization request through login and consent and
// returns the final redirect.
func (s *ProviderSuite) login(req AuthorizeRequest, remember bool) string {
	res, err := s.svc.Authorize(s.ctx, req)
	s.Require().NoError(err)
	s.Require().NotEmpty(res.InteractionID, "expected an interaction, got redirect %q", res.RedirectURL)
	_, err = s.coordinator.SubmitLogin(s.ctx, res.InteractionID, interaction.LoginInput{
		Email: "user@example.com", Password: "correct horse", Remember: remember,
	})
	s.Require().NoError(err)
	done, err := s.coordinator.Confirm(s.ctx, res.InteractionID)
	s.Require().NoError(err)
	return done.RedirectURL
}

func (s *ProviderSuite) codeFrom(redirect string) string {
	u, err := url.Parse(redirect)
	s.Require().NoError(err)
	code := u.Query().Get("code")
	s.Require().NotEmpty(code, redirect)
	return code
}

func (s *ProviderSuite) rpRequest(scopes string) AuthorizeRequest {
	return AuthorizeRequest{
		ClientID:            "rp",
		RedirectURI:         rpRedirect,
		ResponseType:        "code",
		Scope:               scopes,
		State:               "st",
		CodeChallenge:       challenge(verifier),
		CodeChallengeMethod: models.PKCEMethodS256,
	}
}

func (s *ProviderSuite) exchange(code, codeVerifier string) (*TokenResponse, error) {
	return s.svc.Token(s.ctx, TokenRequest{
		Credentials:  rpCreds(),
		GrantType:    "authorization_code",
		Code:         code,
		RedirectURI:  rpRedirect,
		CodeVerifier: codeVerifier,
	})
}

func (s *ProviderSuite) TestAuthorizeValidation() {
	fooReq := func() AuthorizeRequest {
		return AuthorizeRequest{
			ClientID:     "foo",
			RedirectURI:  "http://localhost:3002/callback",
			ResponseType: "id_token token",
			Scope:        "openid",
			Nonce:        "n",
			State:        "st",
		}
	}

	errorCases := []struct {
		name   string
		mutate func(*AuthorizeRequest)
		code   dErrors.Code
	}{
		{"missing client", func(r *AuthorizeRequest) { r.ClientID = "" }, dErrors.CodeInvalidRequest},
		{"unknown client", func(r *AuthorizeRequest) { r.ClientID = "nobody" }, dErrors.CodeUnknownClient},
		{"unregistered redirect", func(r *AuthorizeRequest) { r.RedirectURI = "http://localhost:3002/other" }, dErrors.CodeInvalidRequest},
	}
	for _, tc := range errorCases {
		s.Run(tc.name, func() {
			req := fooReq()
			tc.mutate(&req)
			_, err := s.svc.Authorize(s.ctx, req)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}

	redirectCases := []struct {
		name   string
		mutate func(*AuthorizeRequest)
		oauth  string
		sep    string
	}{
		{"missing response_type", func(r *AuthorizeRequest) { r.ResponseType = "" }, "invalid_request", "#"},
		{"unknown response_type", func(r *AuthorizeRequest) { r.ResponseType = "token" }, "unsupported_response_type", "#"},
		// code defaults to the query response mode
		{"unregistered response_type", func(r *AuthorizeRequest) { r.ResponseType = "code" }, "unauthorized_client", "?"},
		{"missing openid", func(r *AuthorizeRequest) { r.Scope = "email" }, "invalid_scope", "#"},
		{"missing nonce", func(r *AuthorizeRequest) { r.Nonce = "" }, "invalid_request", "#"},
		{"prompt none combined", func(r *AuthorizeRequest) { r.Prompt = "none login" }, "invalid_request", "#"},
		{"bad max_age", func(r *AuthorizeRequest) { r.MaxAge = "-1" }, "invalid_request", "#"},
		{"request object", func(r *AuthorizeRequest) { r.Request = "eyJ..." }, "request_not_supported", "#"},
		{"malformed claims", func(r *AuthorizeRequest) { r.Claims = "{" }, "invalid_request", "#"},
	}
	for _, tc := range redirectCases {
		s.Run(tc.name, func() {
			req := fooReq()
			tc.mutate(&req)
			res, err := s.svc.Authorize(s.ctx, req)
			s.Require().NoError(err)
			s.True(strings.HasPrefix(res.RedirectURL, "http://localhost:3002/callback"+tc.sep), res.RedirectURL)
			u, _ := url.Parse(res.RedirectURL)
			params := u.Query()
			if tc.sep == "#" {
				params, _ = url.ParseQuery(u.Fragment)
			}
			s.Equal(tc.oauth, params.Get("error"))
			s.Equal("st", params.Get("state"))
		})
	}

	s.Run("query mode for implicit", func() {
		req := fooReq()
		req.ResponseMode = "query"
		res, err := s.svc.Authorize(s.ctx, req)
		s.Require().NoError(err)
		s.Contains(res.RedirectURL, "error=invalid_request")
	})

	s.Run("public code client needs PKCE", func() {
		res, err := s.svc.Authorize(s.ctx, AuthorizeRequest{
			ClientID: "spa", RedirectURI: "https://spa.example.com/cb", ResponseType: "code", Scope: "openid",
		})
		s.Require().NoError(err)
		s.Contains(res.RedirectURL, "error=invalid_request")
	})

	s.Run("valid request opens an interaction", func() {
		res, err := s.svc.Authorize(s.ctx, fooReq())
		s.Require().NoError(err)
		s.Empty(res.RedirectURL)
		s.Equal("/interaction/"+res.InteractionID, res.InteractionURL)
	})

	s.Run("prompt none without session", func() {
		req := fooReq()
		req.Prompt = "none"
		res, err := s.svc.Authorize(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("http://localhost:3002/callback#error=login_required&state=st", res.RedirectURL)
	})
}

func (s *ProviderSuite) TestCodeFlowWithPKCE() {
	redirect := s.login(s.rpRequest("openid email offline_access"), true)

	s.Run("PKCE mismatch fails", func() {
		_, err := s.exchange(s.codeFrom(redirect), "wrong-verifier-wrong-verifier-wrong-verifier")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
	})

	redirect = s.login(s.rpRequest("openid email offline_access"), true)
	code := s.codeFrom(redirect)
	resp, err := s.exchange(code, verifier)
	s.Require().NoError(err)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(3600, resp.ExpiresIn)
	s.NotEmpty(resp.IDToken)
	s.NotEmpty(resp.RefreshToken)
	s.ElementsMatch([]string{"openid", "email", "offline_access"}, strings.Fields(resp.Scope))

	info, err := s.svc.UserInfo(s.ctx, resp.AccessToken)
	s.Require().NoError(err)
	s.Equal("acct-1", info["sub"])
	s.Equal("user@example.com", info["email"])

	s.Run("code replay fails and revokes the grant", func() {
		_, err := s.exchange(code, verifier)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))

		intro, err := s.svc.Introspect(s.ctx, rpCreds(), resp.AccessToken, "")
		s.Require().NoError(err)
		s.False(intro.Active)
		_, err = s.svc.UserInfo(s.ctx, resp.AccessToken)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})
}

func (s *ProviderSuite) TestRefreshRotationAndReplay() {
	code := s.codeFrom(s.login(s.rpRequest("openid offline_access"), true))
	first, err := s.exchange(code, verifier)
	s.Require().NoError(err)

	refresh := func(rt string) (*TokenResponse, error) {
		return s.svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "refresh_token", RefreshToken: rt})
	}

	second, err := refresh(first.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(first.RefreshToken, second.RefreshToken)
	s.NotEmpty(second.IDToken)

	intro, err := s.svc.Introspect(s.ctx, rpCreds(), second.RefreshToken, "refresh_token")
	s.Require().NoError(err)
	s.True(intro.Active)
	s.Empty(intro.TokenType, "refresh tokens are not bearer access tokens")
	s.Equal("refresh_token", intro.TokenUse)

	_, err = refresh(first.RefreshToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant), "replay fails")

	_, err = refresh(second.RefreshToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant), "replay revoked the whole grant")

	intro, err = s.svc.Introspect(s.ctx, rpCreds(), second.AccessToken, "access_token")
	s.Require().NoError(err)
	s.False(intro.Active)
}

func (s *ProviderSuite) TestRefreshScopeNarrowing() {
	code := s.codeFrom(s.login(s.rpRequest("openid email offline_access"), true))
	first, err := s.exchange(code, verifier)
	s.Require().NoError(err)

	_, err = s.svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "refresh_token", RefreshToken: first.RefreshToken, Scope: "openid api:read"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidScope))
}

func (s *ProviderSuite) TestOfflineAccessWithoutRememberHasNoRefreshToken() {
	code := s.codeFrom(s.login(s.rpRequest("openid offline_access"), false))
	resp, err := s.exchange(code, verifier)
	s.Require().NoError(err)
	s.Empty(resp.RefreshToken)
	s.Equal("openid", resp.Scope)
}

func (s *ProviderSuite) TestTokenEndpointErrors() {
	cases := []struct {
		name string
		req  TokenRequest
		code dErrors.Code
	}{
		{"no client", TokenRequest{GrantType: "client_credentials"}, dErrors.CodeUnknownClient},
		{"bad secret", TokenRequest{Credentials: ClientCredentials{ClientID: "rp", ClientSecret: "x", Method: models.AuthMethodClientSecretBasic}, GrantType: "client_credentials"}, dErrors.CodeUnknownClient},
		{"wrong method", TokenRequest{Credentials: ClientCredentials{ClientID: "rp", ClientSecret: rpSecret, Method: models.AuthMethodClientSecretPost}, GrantType: "client_credentials"}, dErrors.CodeUnknownClient},
		{"implicit at token endpoint", TokenRequest{Credentials: rpCreds(), GrantType: "implicit"}, dErrors.CodeUnsupportedGrantType},
		{"missing grant type", TokenRequest{Credentials: rpCreds()}, dErrors.CodeInvalidRequest},
		{"public client credentials", TokenRequest{Credentials: ClientCredentials{ClientID: "spa", Method: models.AuthMethodNone}, GrantType: "client_credentials"}, dErrors.CodeUnauthorizedClient},
		{"unknown code", TokenRequest{Credentials: rpCreds(), GrantType: "authorization_code", Code: "nope", RedirectURI: rpRedirect}, dErrors.CodeInvalidGrant},
		{"garbage refresh token", TokenRequest{Credentials: rpCreds(), GrantType: "refresh_token", RefreshToken: "abc"}, dErrors.CodeInvalidGrant},
		{"openid via client credentials", TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials", Scope: "openid"}, dErrors.CodeInvalidScope},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Token(s.ctx, tc.req)
			s.Equal(tc.code, dErrors.CodeOf(err), "got %v", err)
		})
	}
}

func (s *ProviderSuite) TestClientCredentials() {
	resp, err := s.svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials", Scope: "api:read"})
	s.Require().NoError(err)
	s.Empty(resp.IDToken)
	s.Empty(resp.RefreshToken)
	s.Equal("api:read", resp.Scope)

	intro, err := s.svc.Introspect(s.ctx, rpCreds(), resp.AccessToken, "")
	s.Require().NoError(err)
	s.True(intro.Active)
	s.Equal("rp", intro.Subject)
	s.Equal("api:read", intro.Scope)
	s.Equal("Bearer", intro.TokenType)
	s.Equal("access_token", intro.TokenUse)

	_, err = s.svc.UserInfo(s.ctx, resp.AccessToken)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))

	s.Run("disabled feature", func() {
		f := AllFeatures()
		f.ClientCredentials = false
		svc := s.build(f)
		_, err := svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnsupportedGrantType))
		s.NotContains(svc.Discovery().GrantTypesSupported, "client_credentials")
	})
}

func (s *ProviderSuite) TestIntrospectAndRevoke() {
	resp, err := s.svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials"})
	s.Require().NoError(err)

	intro, err := s.svc.Introspect(s.ctx, rpCreds(), "not-a-token", "")
	s.Require().NoError(err)
	s.Equal(&IntrospectionResponse{Active: false}, intro)

	_, err = s.svc.Introspect(s.ctx, ClientCredentials{ClientID: "rp", ClientSecret: "bad", Method: models.AuthMethodClientSecretBasic}, resp.AccessToken, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownClient))

	s.Require().NoError(s.svc.Revoke(s.ctx, rpCreds(), resp.AccessToken, "access_token"))
	s.Require().NoError(s.svc.Revoke(s.ctx, rpCreds(), resp.AccessToken, "access_token"), "idempotent")
	s.Require().NoError(s.svc.Revoke(s.ctx, rpCreds(), "unknown", ""))

	intro, err = s.svc.Introspect(s.ctx, rpCreds(), resp.AccessToken, "")
	s.Require().NoError(err)
	s.False(intro.Active)

	s.Run("expired tokens are inactive", func() {
		fresh, err := s.svc.Token(s.ctx, TokenRequest{Credentials: rpCreds(), GrantType: "client_credentials"})
		s.Require().NoError(err)
		s.now = s.now.Add(2 * time.Hour)
		intro, err := s.svc.Introspect(s.ctx, rpCreds(), fresh.AccessToken, "")
		s.Require().NoError(err)
		s.False(intro.Active)
	})
}

func (s *ProviderSuite) TestRevokeRefreshTokenRevokesGrant() {
	code := s.codeFrom(s.login(s.rpRequest("openid offline_access"), true))
	resp, err := s.exchange(code, verifier)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Revoke(s.ctx, rpCreds(), resp.RefreshToken, "refresh_token"))
	intro, err := s.svc.Introspect(s.ctx, rpCreds(), resp.AccessToken, "")
	s.Require().NoError(err)
	s.False(intro.Active)
}

func (s *ProviderSuite) TestSessionReuseAndEndSession() {
	res, err := s.svc.Authorize(s.ctx, s.rpRequest("openid"))
	s.Require().NoError(err)
	_, err = s.coordinator.SubmitLogin(s.ctx, res.InteractionID, interaction.LoginInput{Email: "user@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	done, err := s.coordinator.Confirm(s.ctx, res.InteractionID)
	s.Require().NoError(err)
	sid := done.Session.ID

	req := s.rpRequest("openid")
	req.SessionID = sid
	again, err := s.svc.Authorize(s.ctx, req)
	s.Require().NoError(err)
	s.Contains(again.RedirectURL, "code=", "remembered consent skips the interaction")

	tokens, err := s.exchange(s.codeFrom(done.RedirectURL), verifier)
	s.Require().NoError(err)

	_, err = s.svc.EndSession(s.ctx, EndSessionRequest{PostLogoutRedirectURI: "https://rp.example.com/bye"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))

	_, err = s.svc.EndSession(s.ctx, EndSessionRequest{IDTokenHint: tokens.IDToken, PostLogoutRedirectURI: "https://evil.example.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))

	redirect, err := s.svc.EndSession(s.ctx, EndSessionRequest{
		SessionID:             sid,
		IDTokenHint:           tokens.IDToken,
		PostLogoutRedirectURI: "https://rp.example.com/bye",
		State:                 "bye-state",
	})
	s.Require().NoError(err)
	s.Equal("https://rp.example.com/bye?state=bye-state", redirect)

	after, err := s.svc.Authorize(s.ctx, req)
	s.Require().NoError(err)
	s.NotEmpty(after.InteractionID, "ended session no longer skips login")
}

type unavailableSessions struct {
	SessionStore
}

func (unavailableSessions) FindActive(context.Context, string, time.Time) (*models.Session, error) {
	return nil, errors.New("connection refused")
}

func (s *ProviderSuite) TestEndSessionHintAndStoreErrors() {
	res, err := s.svc.Authorize(s.ctx, s.rpRequest("openid"))
	s.Require().NoError(err)
	_, err = s.coordinator.SubmitLogin(s.ctx, res.InteractionID, interaction.LoginInput{Email: "user@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	done, err := s.coordinator.Confirm(s.ctx, res.InteractionID)
	s.Require().NoError(err)
	tokens, err := s.exchange(s.codeFrom(done.RedirectURL), verifier)
	s.Require().NoError(err)

	s.Run("expired id_token_hint is still honored", func() {
		s.now = s.now.Add(3 * time.Hour)
		defer func() { s.now = s.now.Add(-3 * time.Hour) }()
		redirect, err := s.svc.EndSession(s.ctx, EndSessionRequest{
			IDTokenHint:           tokens.IDToken,
			PostLogoutRedirectURI: "https://rp.example.com/bye",
		})
		s.Require().NoError(err)
		s.Equal("https://rp.example.com/bye", redirect)
	})

	s.Run("tampered id_token_hint is rejected", func() {
		_, err := s.svc.EndSession(s.ctx, EndSessionRequest{
			IDTokenHint:           tokens.IDToken[:len(tokens.IDToken)-4] + "AAAA",
			PostLogoutRedirectURI: "https://rp.example.com/bye",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
	})

	s.Run("session lookup failure is surfaced", func() {
		s.svc.sessions = unavailableSessions{SessionStore: s.sessions}
		defer func() { s.svc.sessions = s.sessions }()
		_, err := s.svc.EndSession(s.ctx, EndSessionRequest{SessionID: done.Session.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		_, err = s.sessions.FindActive(s.ctx, done.Session.ID, s.now)
		s.NoError(err, "session survives a failed logout")
	})
}

func (s *ProviderSuite) TestDiscoveryAndJWKS() {
	d := s.svc.Discovery()
	s.Equal("http://localhost:3000", d.Issuer)
	s.Equal("http://localhost:3000/auth", d.AuthorizationEndpoint)
	s.Equal("http://localhost:3000/token/introspection", d.IntrospectionEndpoint)
	s.Equal([]string{"RS256"}, d.IDTokenSigningAlgValuesSupported)
	s.Contains(d.ScopesSupported, "email")
	s.Contains(d.ClaimsSupported, "email_verified")
	s.Contains(d.ResponseTypesSupported, "id_token token")
	s.True(d.ClaimsParameterSupported)

	s.Len(s.svc.JWKS().Keys, 1)

	svc := s.build(Features{Discovery: true})
	d = svc.Discovery()
	s.Empty(d.IntrospectionEndpoint)
	s.Empty(d.RevocationEndpoint)
	s.Empty(d.RegistrationEndpoint)
	s.Empty(d.EndSessionEndpoint)
	s.False(d.ClaimsParameterSupported)

	_, err := svc.Introspect(s.ctx, rpCreds(), "x", "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.True(dErrors.HasCode(svc.Revoke(s.ctx, rpCreds(), "x", ""), dErrors.CodeNotFound))
	_, err = svc.Register(s.ctx, client.RegistrationRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = svc.EndSession(s.ctx, EndSessionRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ProviderSuite) TestRegister() {
	resp, err := s.svc.Register(s.ctx, client.RegistrationRequest{
		RedirectURIs: []string{"https://new.example.com/cb"},
		ClientName:   "New RP",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.ClientID)
	s.NotEmpty(resp.ClientSecret)
	s.Equal([]string{"code"}, resp.ResponseTypes)
	s.Equal("client_secret_basic", resp.TokenEndpointAuthMethod)

	_, err = s.svc.Register(s.ctx, client.RegistrationRequest{RedirectURIs: []string{"relative/cb"}})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidClientConfig))
}

func (s *ProviderSuite) TestAuditTrail() {
	_, _ = s.svc.Token(s.ctx, TokenRequest{Credentials: ClientCredentials{ClientID: "rp", ClientSecret: "bad", Method: models.AuthMethodClientSecretBasic}, GrantType: "client_credentials"})
	select {
	case e := <-s.publisher.Events():
		s.Require().NoError(s.sink.Write(s.ctx, e))
	case <-time.After(time.Second):
		s.Fail("no audit event")
	}
	s.Contains(s.sink.Actions(), audit.EventClientAuthFailed)
}
