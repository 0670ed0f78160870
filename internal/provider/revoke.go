package provider

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	dErrors "oidcprovider/pkg/domain-errors"
)

// Revoke implements RFC 7009. Unknown, expired, foreign and already
// revoked tokens all succeed. Revoking a refresh token revokes its grant.
func (s *Service) Revoke(ctx context.Context, creds ClientCredentials, raw, hint string) (err error) {
	ctx, end := s.observe(ctx, "revoke", attribute.String("oidc.client_id", creds.ClientID))
	defer end(&err)

	if !s.features.Revocation {
		return dErrors.New(dErrors.CodeNotFound, "revocation is not enabled")
	}
	c, err := s.authenticateClient(ctx, creds)
	if err != nil {
		return err
	}
	if raw == "" {
		return dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'token'")
	}

	claims, kind, reason := s.inspect(ctx, raw, hint)
	if reason != "" || claims.ClientID != c.ClientID {
		return nil
	}

	if kind == models.TokenKindRefreshToken {
		s.revokeGrant(ctx, claims.GrantID, "revocation_endpoint")
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.metrics.IncRevocation()
	s.emit(ctx, audit.Event{Action: audit.EventTokenRevoked, ClientID: c.ClientID, GrantID: claims.GrantID, Reason: "revocation_endpoint"})
	return nil
}
