package interaction

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/oidc/responder"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
)

// Outcome of Start: exactly one of InteractionURL and RedirectURL is set.
type Outcome struct {
	Interaction    *models.Interaction
	InteractionURL string
	RedirectURL    string
}

// Start decides whether the validated request needs the end-user. When an
// active session and a remembered grant already cover it, the client
// redirect is produced directly; prompt=none turns a needed interaction
// into a login_required or consent_required redirect.
func (s *Service) Start(ctx context.Context, p models.AuthorizationParams, sess *models.Session) (*Outcome, error) {
	now := s.clock()
	reason, err := s.reason(ctx, p, sess)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		g := models.NewGrantFromSession(uuid.NewString(), sess, p, now, s.cfg.GrantTTL)
		if _, err := s.grants.Save(ctx, g); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save grant")
		}
		redirect, err := s.responder.Respond(ctx, g, p)
		if err != nil {
			return nil, err
		}
		s.metrics.IncInteraction("skipped")
		s.emit(ctx, audit.Event{
			Action:    audit.EventAuthorizeCompleted,
			AccountID: g.AccountID,
			ClientID:  g.ClientID,
			GrantID:   g.ID,
			Reason:    "session",
		})
		return &Outcome{RedirectURL: redirect}, nil
	}

	if p.HasPrompt(models.PromptNone) {
		code := dErrors.CodeConsentRequired
		if reason == models.ReasonLoginRequired {
			code = dErrors.CodeLoginRequired
		}
		s.metrics.IncInteraction("prompt_none")
		return &Outcome{RedirectURL: responder.ErrorRedirect(p, string(code), "")}, nil
	}

	sessionRef := ""
	var login *models.Login
	if sess != nil {
		sessionRef = sess.ID
		login = sess.Login()
	}
	i := models.NewInteraction(uuid.NewString(), p, sessionRef, now, s.cfg.InteractionTTL)
	i.Begin(reason, login)
	if err := s.store.Create(ctx, i); err != nil {
		return nil, translate(err, i.UUID)
	}

	s.logger.InfoContext(ctx, "interaction started",
		"interaction_id", i.UUID,
		"client_id", p.ClientID,
		"reason", reason,
		"status", i.Status,
	)
	s.metrics.IncInteraction("started")
	s.emit(ctx, audit.Event{
		Action:        audit.EventInteractionStarted,
		ClientID:      p.ClientID,
		InteractionID: i.UUID,
		Reason:        string(reason),
	})
	return &Outcome{Interaction: i, InteractionURL: s.URL(i.UUID)}, nil
}

// reason returns the interaction reason, or "" when none is needed.
func (s *Service) reason(ctx context.Context, p models.AuthorizationParams, sess *models.Session) (models.InteractionReason, error) {
	now := s.clock()
	if !sess.IsActive(now) || p.HasPrompt(models.PromptLogin) || !sess.SatisfiesMaxAge(p.MaxAge, now) {
		return models.ReasonLoginRequired, nil
	}
	reason, err := s.consentReason(ctx, sess.AccountID, p)
	if err != nil {
		return "", err
	}
	if reason == "" && p.HasPrompt(models.PromptConsent) {
		return models.ReasonConsentPrompt, nil
	}
	return reason, nil
}

// consentReason compares the account's latest grant for the client with
// the requested scope.
func (s *Service) consentReason(ctx context.Context, accountID string, p models.AuthorizationParams) (models.InteractionReason, error) {
	g, err := s.grants.FindLatest(ctx, accountID, p.ClientID, s.clock())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return models.ReasonClientNotAuthorized, nil
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load grant")
	}
	if !g.Covers(p.Scope) {
		return models.ReasonConsentPrompt, nil
	}
	return "", nil
}
