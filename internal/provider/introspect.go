package provider

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/token"
	dErrors "oidcprovider/pkg/domain-errors"
)

// IntrospectionResponse is the RFC 7662 body. Inactive tokens carry only
// Active=false.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Audience  string `json:"aud,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	JTI       string `json:"jti,omitempty"`
	// TokenType is the RFC 6749 type, Bearer for access tokens.
	TokenType string `json:"token_type,omitempty"`
	// TokenUse is the provider's token kind.
	TokenUse string `json:"token_use,omitempty"`
}

// Introspect reports whether a token is active. Every failure yields
// {active:false}; the reason only reaches the audit log.
func (s *Service) Introspect(ctx context.Context, creds ClientCredentials, raw, hint string) (resp *IntrospectionResponse, err error) {
	ctx, end := s.observe(ctx, "introspect", attribute.String("oidc.client_id", creds.ClientID))
	defer end(&err)

	if !s.features.Introspection {
		return nil, dErrors.New(dErrors.CodeNotFound, "introspection is not enabled")
	}
	c, err := s.authenticateClient(ctx, creds)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'token'")
	}

	claims, kind, reason := s.inspect(ctx, raw, hint)
	if reason == "" && claims.ClientID != c.ClientID {
		reason = "client_mismatch"
	}
	if reason != "" {
		s.metrics.IncIntrospection(false)
		s.emit(ctx, audit.Event{Action: audit.EventIntrospectionFailed, ClientID: c.ClientID, Reason: reason})
		return &IntrospectionResponse{Active: false}, nil
	}

	s.metrics.IncIntrospection(true)
	out := &IntrospectionResponse{
		Active:    true,
		Scope:     claims.Scope,
		ClientID:  claims.ClientID,
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		JTI:       claims.ID,
		TokenUse:  string(kind),
	}
	if kind == models.TokenKindAccessToken {
		out.TokenType = TokenTypeBearer
	}
	if len(claims.Audience) > 0 {
		out.Audience = claims.Audience[0]
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	return out, nil
}

// inspect verifies raw as each candidate kind, the hinted one first. It
// returns the claims or the reason the token is inactive.
func (s *Service) inspect(ctx context.Context, raw, hint string) (*token.Claims, models.TokenKind, string) {
	kinds := []models.TokenKind{models.TokenKindAccessToken, models.TokenKindRefreshToken}
	if models.TokenKind(hint) == models.TokenKindRefreshToken {
		kinds[0], kinds[1] = kinds[1], kinds[0]
	}
	for _, kind := range kinds {
		claims, err := s.issuer.Verify(ctx, raw, kind)
		if err == nil {
			if kind == models.TokenKindRefreshToken {
				if r := s.refreshReason(ctx, claims); r != "" {
					return nil, kind, r
				}
			}
			return claims, kind, ""
		}
		if !dErrors.HasCode(err, dErrors.CodeInvalidToken) {
			return nil, kind, string(dErrors.CodeOf(err))
		}
	}
	return nil, "", string(dErrors.CodeInvalidToken)
}

// refreshReason reports why a verified refresh token is no longer usable.
func (s *Service) refreshReason(ctx context.Context, claims *token.Claims) string {
	record, err := s.refresh.Find(ctx, claims.ID)
	if err != nil {
		return "not_found"
	}
	if err := record.ValidateForConsume(s.clock()); err != nil {
		return "consumed"
	}
	return ""
}
