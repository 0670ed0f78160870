package interaction

import (
	"context"
	"time"

	"github.com/google/uuid"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/oidc/responder"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/scope"
)

// Completion is the result of a finished interaction.
type Completion struct {
	RedirectURL string
	Grant       *models.Grant
	// Session is set when the browser session was created or replaced.
	Session *models.Session
}

// Confirm records consent, completes the interaction and returns the
// client redirect. offline_access is only granted when the end-user asked
// to be remembered. The grant is persisted before the interaction is
// marked completed, so a failed save leaves the interaction confirmable.
func (s *Service) Confirm(ctx context.Context, id string) (*Completion, error) {
	now := s.clock()
	i, err := s.store.Get(ctx, id, now)
	if err != nil {
		return nil, translate(err, id)
	}
	if i.Login == nil {
		if err := i.CanResolve(models.Resolution{Consent: &models.Consent{}, GrantID: id}, now); err != nil {
			return nil, translate(err, id)
		}
		return nil, dErrors.New(dErrors.CodeInvalidResolution, "consent requires a login")
	}

	approved := i.Params.Scope
	if !i.Login.Remember {
		approved = withoutScope(approved, scope.OfflineAccess)
	}
	res := models.Resolution{
		Consent: &models.Consent{Scope: approved},
		GrantID: uuid.NewString(),
	}
	if err := i.CanResolve(res, now); err != nil {
		return nil, translate(err, id)
	}

	pending := *i
	pending.ApplyResolution(res, now)
	g, err := models.NewGrantFromInteraction(&pending, now, s.cfg.GrantTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build grant")
	}
	if _, err := s.grants.Save(ctx, g); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save grant")
	}

	completed, err := s.store.Resolve(ctx, id, res, now)
	if err != nil {
		return nil, translate(err, id)
	}

	sess, err := s.ensureSession(ctx, completed, now)
	if err != nil {
		return nil, err
	}
	redirect, err := s.responder.Respond(ctx, g, completed.Params)
	if err != nil {
		return nil, err
	}

	s.metrics.IncInteraction("completed")
	s.logger.InfoContext(ctx, "interaction completed",
		"interaction_id", id,
		"grant_id", g.ID,
		"client_id", g.ClientID,
	)
	s.emit(ctx, audit.Event{
		Action:        audit.EventConsentGranted,
		AccountID:     g.AccountID,
		ClientID:      g.ClientID,
		InteractionID: id,
		GrantID:       g.ID,
	})
	return &Completion{RedirectURL: redirect, Grant: g, Session: sess}, nil
}

// ensureSession keeps the session the interaction started with when it
// belongs to the same account; otherwise a new one is created.
func (s *Service) ensureSession(ctx context.Context, i *models.Interaction, now time.Time) (*models.Session, error) {
	if i.SessionRef != "" {
		existing, err := s.sessions.FindActive(ctx, i.SessionRef, now)
		if err == nil && existing.AccountID == i.Login.AccountID && existing.AuthTime.Equal(i.Login.AuthTime) {
			return nil, nil
		}
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		AccountID: i.Login.AccountID,
		ACR:       i.Login.ACR,
		AuthTime:  i.Login.AuthTime,
		Remember:  i.Login.Remember,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	return sess, nil
}

// Abort abandons the interaction and redirects the client with
// access_denied.
func (s *Service) Abort(ctx context.Context, id string) (string, error) {
	now := s.clock()
	i, err := s.store.Abandon(ctx, id, now)
	if err != nil {
		return "", translate(err, id)
	}
	s.metrics.IncInteraction("aborted")
	s.emit(ctx, audit.Event{
		Action:        audit.EventInteractionAborted,
		ClientID:      i.Params.ClientID,
		InteractionID: id,
	})
	return responder.ErrorRedirect(i.Params, string(dErrors.CodeAccessDenied), "End-User aborted interaction"), nil
}

func withoutScope(scopes []string, drop string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
