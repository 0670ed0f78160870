package provider

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/store/revocation"
	"oidcprovider/internal/token"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
)

// ClientCredentials are the credentials presented at an authenticated
// endpoint, with the method they were presented by.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	Method       models.AuthMethod
}

type TokenRequest struct {
	Credentials  ClientCredentials
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	Scope        string
}

// TokenTypeBearer is the only access token type the provider issues.
const TokenTypeBearer = "Bearer"

// TokenResponse is the RFC 6749 section 5.1 body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token runs the token endpoint for one grant type.
func (s *Service) Token(ctx context.Context, req TokenRequest) (resp *TokenResponse, err error) {
	ctx, end := s.observe(ctx, "token",
		attribute.String("oidc.grant_type", req.GrantType),
		attribute.String("oidc.client_id", req.Credentials.ClientID),
	)
	defer func() {
		if err != nil {
			s.metrics.IncTokenError(string(dErrors.CodeOf(err)))
		}
		end(&err)
	}()

	c, err := s.authenticateClient(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}

	grantType := models.GrantType(req.GrantType)
	switch grantType {
	case models.GrantAuthorizationCode, models.GrantRefreshToken:
	case models.GrantClientCredentials:
		if !s.features.ClientCredentials {
			return nil, dErrors.New(dErrors.CodeUnsupportedGrantType, "unsupported grant_type requested")
		}
	case "":
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'grant_type'")
	default:
		return nil, dErrors.New(dErrors.CodeUnsupportedGrantType, "unsupported grant_type requested")
	}
	if !c.CanUseGrant(grantType) {
		return nil, dErrors.New(dErrors.CodeUnauthorizedClient, "requested grant type is not allowed for this client")
	}

	switch grantType {
	case models.GrantAuthorizationCode:
		return s.exchangeCode(ctx, c, req)
	case models.GrantClientCredentials:
		return s.clientCredentials(ctx, c, req)
	default:
		return s.refreshGrant(ctx, c, req)
	}
}

func (s *Service) authenticateClient(ctx context.Context, creds ClientCredentials) (*models.Client, error) {
	if creds.ClientID == "" {
		return nil, dErrors.New(dErrors.CodeUnknownClient, "no client authentication mechanism provided")
	}
	c, err := s.clients.Authenticate(ctx, creds.ClientID, creds.ClientSecret, creds.Method)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnknownClient) {
			s.emit(ctx, audit.Event{Action: audit.EventClientAuthFailed, ClientID: creds.ClientID})
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) exchangeCode(ctx context.Context, c *models.Client, req TokenRequest) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'code'")
	}
	now := s.clock()
	record, err := s.codes.Consume(ctx, req.Code, req.RedirectURI, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) && record != nil {
			s.revokeGrant(ctx, record.GrantID, "authorization_code_replay")
		}
		return nil, invalidGrant(err, "authorization code")
	}
	if record.ClientID != c.ClientID {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "authorization code was issued to another client")
	}
	if err := verifyPKCE(record, req.CodeVerifier); err != nil {
		return nil, err
	}

	g, err := s.grants.Find(ctx, record.GrantID, now)
	if err != nil {
		return nil, invalidGrant(err, "grant")
	}
	resp, err := s.mint(ctx, c, g, record.Nonce, models.GrantAuthorizationCode)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.Event{Action: audit.EventTokenIssued, AccountID: g.AccountID, ClientID: c.ClientID, GrantID: g.ID})
	return resp, nil
}

func verifyPKCE(record *models.AuthorizationCodeRecord, verifier string) error {
	if record.CodeChallenge == "" {
		if verifier != "" {
			return dErrors.New(dErrors.CodeInvalidGrant, "code_verifier was not expected")
		}
		return nil
	}
	if verifier == "" {
		return dErrors.New(dErrors.CodeInvalidGrant, "missing code_verifier")
	}
	expected := verifier
	if record.CodeChallengeMethod == models.PKCEMethodS256 {
		sum := sha256.Sum256([]byte(verifier))
		expected = base64.RawURLEncoding.EncodeToString(sum[:])
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(record.CodeChallenge)) != 1 {
		return dErrors.New(dErrors.CodeInvalidGrant, "PKCE verification failed")
	}
	return nil
}

func (s *Service) clientCredentials(ctx context.Context, c *models.Client, req TokenRequest) (*TokenResponse, error) {
	requested := scope.Parse(req.Scope)
	granted := make([]string, 0, len(requested))
	for _, v := range c.AllowedScopes(requested) {
		if v == scope.OpenID || v == scope.OfflineAccess {
			continue
		}
		granted = append(granted, v)
	}
	if len(requested) > 0 && len(granted) < len(requested) {
		return nil, dErrors.New(dErrors.CodeInvalidScope, "requested scope is not allowed for this client")
	}

	now := s.clock()
	g := models.NewClientCredentialsGrant(uuid.NewString(), c.ClientID, granted, now, s.issuer.Lifetimes().AccessToken)
	if _, err := s.grants.Save(ctx, g); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save grant")
	}
	at, err := s.issuer.IssueAccessToken(ctx, g)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTokenIssued(string(models.TokenKindAccessToken), string(models.GrantClientCredentials))
	s.emit(ctx, audit.Event{Action: audit.EventTokenIssued, ClientID: c.ClientID, GrantID: g.ID})
	return &TokenResponse{
		AccessToken: at.Value,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   at.ExpiresIn(now),
		Scope:       scope.Join(granted),
	}, nil
}

func (s *Service) refreshGrant(ctx context.Context, c *models.Client, req TokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'refresh_token'")
	}
	claims, err := s.issuer.Verify(ctx, req.RefreshToken, models.TokenKindRefreshToken)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidGrant, "invalid refresh token")
	}
	if claims.ClientID != c.ClientID {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "refresh token was issued to another client")
	}

	now := s.clock()
	record, err := s.refresh.Consume(ctx, claims.ID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.logger.WarnContext(ctx, "refresh token replay detected",
				"client_id", c.ClientID,
				"grant_id", claims.GrantID,
			)
			s.emit(ctx, audit.Event{Action: audit.EventRefreshTokenReplay, ClientID: c.ClientID, GrantID: claims.GrantID})
			s.revokeGrant(ctx, claims.GrantID, "refresh_token_replay")
		}
		return nil, invalidGrant(err, "refresh token")
	}

	g, err := s.grants.Find(ctx, record.GrantID, now)
	if err != nil {
		return nil, invalidGrant(err, "grant")
	}
	if req.Scope != "" {
		narrowed := scope.Parse(req.Scope)
		if !g.Covers(narrowed) {
			return nil, dErrors.New(dErrors.CodeInvalidScope, "refresh token missing requested scope")
		}
		cp := *g
		cp.Scope = scope.Intersect(g.Scope, narrowed)
		g = &cp
	}

	resp, err := s.mint(ctx, c, g, "", models.GrantRefreshToken)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.Event{Action: audit.EventTokenRefreshed, AccountID: g.AccountID, ClientID: c.ClientID, GrantID: g.ID})
	return resp, nil
}

// mint issues the access token, an id_token when openid was granted and a
// rotated refresh token when the grant allows one.
func (s *Service) mint(ctx context.Context, c *models.Client, g *models.Grant, nonce string, grantType models.GrantType) (*TokenResponse, error) {
	now := s.clock()
	at, err := s.issuer.IssueAccessToken(ctx, g)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTokenIssued(string(models.TokenKindAccessToken), string(grantType))
	resp := &TokenResponse{
		AccessToken: at.Value,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   at.ExpiresIn(now),
		Scope:       scope.Join(g.Scope),
	}

	if g.HasScope(scope.OpenID) {
		claims, err := s.claims.IDTokenClaims(ctx, g)
		if err != nil {
			return nil, err
		}
		id, err := s.issuer.IssueIDToken(ctx, g, token.IDTokenInput{
			Nonce:       nonce,
			AccessToken: at.Value,
			Claims:      claims,
		})
		if err != nil {
			return nil, err
		}
		s.metrics.IncTokenIssued(string(models.TokenKindIDToken), string(grantType))
		resp.IDToken = id.Value
	}

	if token.RefreshAllowed(g, c) {
		rt, err := s.issuer.IssueRefreshToken(ctx, g)
		if err != nil {
			return nil, err
		}
		err = s.refresh.Create(ctx, &models.RefreshTokenRecord{
			JTI:       rt.JTI,
			GrantID:   g.ID,
			ClientID:  c.ClientID,
			ExpiresAt: rt.ExpiresAt,
			CreatedAt: now,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store refresh token")
		}
		s.metrics.IncTokenIssued(string(models.TokenKindRefreshToken), string(grantType))
		resp.RefreshToken = rt.Value
	}
	return resp, nil
}

// revokeGrant invalidates every token minted from the grant. Failures are
// logged; the caller has already decided to reject the request.
func (s *Service) revokeGrant(ctx context.Context, grantID, reason string) {
	if grantID == "" {
		return
	}
	ttl := s.issuer.Lifetimes().RefreshToken
	if err := s.revocations.RevokeToken(ctx, revocation.GrantEntry(grantID), ttl); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke grant", "grant_id", grantID, "error", err)
	}
	jtis, err := s.refresh.DeleteByGrant(ctx, grantID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete refresh tokens", "grant_id", grantID, "error", err)
	}
	if err := s.revocations.RevokeMany(ctx, jtis, ttl); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens", "grant_id", grantID, "error", err)
	}
	if err := s.grants.Delete(ctx, grantID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete grant", "grant_id", grantID, "error", err)
	}
	s.metrics.IncRevocation()
	s.logger.InfoContext(ctx, "grant revoked", "grant_id", grantID, "reason", reason)
	s.emit(ctx, audit.Event{Action: audit.EventTokenRevoked, GrantID: grantID, Reason: reason})
}

func invalidGrant(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeInvalidGrant, what+" not found")
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeInvalidGrant, what+" is expired")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeInvalidGrant, what+" has already been used")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidGrant, what+" does not match the request")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
}
