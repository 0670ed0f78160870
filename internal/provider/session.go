package provider

import (
	"context"
	"net/url"
	"strings"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	dErrors "oidcprovider/pkg/domain-errors"
)

type EndSessionRequest struct {
	SessionID             string
	IDTokenHint           string
	PostLogoutRedirectURI string
	State                 string
}

// EndSession logs the end-user out. It returns the post-logout redirect,
// or "" when the client did not ask for one. The id_token_hint may have
// expired but must carry a valid signature from this issuer.
func (s *Service) EndSession(ctx context.Context, req EndSessionRequest) (redirect string, err error) {
	ctx, end := s.observe(ctx, "end_session")
	defer end(&err)

	if !s.features.SessionManagement {
		return "", dErrors.New(dErrors.CodeNotFound, "session management is not enabled")
	}

	if req.PostLogoutRedirectURI != "" {
		if req.IDTokenHint == "" {
			return "", dErrors.New(dErrors.CodeInvalidRequest, "post_logout_redirect_uri requires id_token_hint")
		}
		claims, err := s.issuer.VerifyHint(ctx, req.IDTokenHint, models.TokenKindIDToken)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInvalidRequest, "could not validate id_token_hint")
		}
		c, err := s.clients.Lookup(ctx, claims.ClientID)
		if err != nil {
			return "", err
		}
		if !c.HasPostLogoutRedirectURI(req.PostLogoutRedirectURI) {
			return "", dErrors.New(dErrors.CodeInvalidRequest, "post_logout_redirect_uri not registered")
		}
		redirect = req.PostLogoutRedirectURI
		if req.State != "" {
			sep := "?"
			if strings.Contains(redirect, "?") {
				sep = "&"
			}
			redirect += sep + url.Values{"state": {req.State}}.Encode()
		}
	}

	if req.SessionID != "" {
		sess, err := s.activeSession(ctx, req.SessionID)
		if err != nil {
			return "", err
		}
		if err := s.sessions.Delete(ctx, req.SessionID); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
		}
		if sess != nil {
			s.logger.InfoContext(ctx, "session ended", "account_id", sess.AccountID)
			s.emit(ctx, audit.Event{Action: audit.EventSessionEnded, AccountID: sess.AccountID})
		}
	}
	return redirect, nil
}
