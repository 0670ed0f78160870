package provider

import (
	"context"
	"errors"

	"oidcprovider/internal/oidc/models"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
)

// UserInfo returns the claims the access token's grant releases. Every
// token problem is CodeInvalidToken so the transport can answer with a
// Bearer challenge.
func (s *Service) UserInfo(ctx context.Context, accessToken string) (claims map[string]any, err error) {
	ctx, end := s.observe(ctx, "userinfo")
	defer end(&err)

	if accessToken == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "no access token provided")
	}
	tc, err := s.issuer.Verify(ctx, accessToken, models.TokenKindAccessToken)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "invalid access token")
	}
	g, err := s.grants.Find(ctx, tc.GrantID, s.clock())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "grant is no longer valid")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load grant")
	}
	if g.AccountID == "" || !scope.Contains(tc.Scopes(), scope.OpenID) {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "access token does not carry the openid scope")
	}

	cp := *g
	cp.Scope = tc.Scopes()
	claims, err = s.claims.UserInfoClaims(ctx, &cp)
	if err != nil {
		return nil, err
	}
	claims["sub"] = g.Subject()
	return claims, nil
}
