package interaction

import (
	"context"

	"oidcprovider/internal/audit"
	"oidcprovider/internal/oidc/models"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/platform/sentinel"
)

const (
	PromptLogin   = "login"
	PromptConsent = "consent"
)

// View is what the login/consent UI renders for an interaction.
type View struct {
	UUID       string                   `json:"uuid"`
	Prompt     string                   `json:"prompt"`
	Reason     models.InteractionReason `json:"reason"`
	Status     models.InteractionStatus `json:"status"`
	ClientID   string                   `json:"client_id"`
	ClientName string                   `json:"client_name,omitempty"`
	Scope      []string                 `json:"scope"`
	AccountID  string                   `json:"account_id,omitempty"`
	Error      string                   `json:"error,omitempty"`
	ExpiresAt  string                   `json:"expires_at"`
}

// Details returns the view for a live interaction.
func (s *Service) Details(ctx context.Context, id string) (*View, error) {
	i, err := s.store.Get(ctx, id, s.clock())
	if err != nil {
		return nil, translate(err, id)
	}
	if i.Status == models.InteractionCompleted {
		return nil, translate(sentinel.ErrAlreadyResolved, id)
	}
	client, err := s.clients.Lookup(ctx, i.Params.ClientID)
	if err != nil {
		return nil, err
	}
	v := &View{
		UUID:       i.UUID,
		Prompt:     PromptConsent,
		Reason:     i.Reason,
		Status:     i.Status,
		ClientID:   client.ClientID,
		ClientName: client.ClientName,
		Scope:      i.Params.Scope,
		Error:      i.LastError,
		ExpiresAt:  i.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if i.Status == models.InteractionNeedsLogin {
		v.Prompt = PromptLogin
	}
	if i.Login != nil {
		v.AccountID = i.Login.AccountID
	}
	return v, nil
}

// LoginInput is the submitted login form.
type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// SubmitLogin authenticates the end-user. A credential failure is
// recorded on the interaction, which stays retryable in needs_login.
func (s *Service) SubmitLogin(ctx context.Context, id string, in LoginInput) (*models.Interaction, error) {
	now := s.clock()
	i, err := s.store.Get(ctx, id, now)
	if err != nil {
		return nil, translate(err, id)
	}
	if i.Status != models.InteractionNeedsLogin {
		if i.Status == models.InteractionCompleted {
			return nil, translate(sentinel.ErrAlreadyResolved, id)
		}
		return nil, dErrors.New(dErrors.CodeInvalidResolution, "interaction "+id+" is not awaiting login")
	}

	acct, err := s.accounts.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			return nil, err
		}
		if ferr := s.store.RecordLoginFailure(ctx, id, now); ferr != nil {
			return nil, translate(ferr, id)
		}
		s.metrics.IncLoginFailure()
		s.logger.InfoContext(ctx, "login failed", "interaction_id", id)
		s.emit(ctx, audit.Event{
			Action:        audit.EventLoginFailed,
			ClientID:      i.Params.ClientID,
			InteractionID: id,
			Reason:        models.LoginErrorInvalidCredentials,
		})
		return nil, err
	}

	next, err := s.consentReason(ctx, acct.ID, i.Params)
	if err != nil {
		return nil, err
	}
	if next == "" {
		next = models.ReasonConsentPrompt
	}
	login := &models.Login{
		AccountID: acct.ID,
		ACR:       s.cfg.DefaultACR,
		Remember:  in.Remember,
		AuthTime:  now,
	}
	resolved, err := s.store.Resolve(ctx, id, models.Resolution{Login: login, NextReason: next}, now)
	if err != nil {
		return nil, translate(err, id)
	}
	s.metrics.IncInteraction("login")
	s.logger.InfoContext(ctx, "login succeeded", "interaction_id", id, "account_id", acct.ID)
	s.emit(ctx, audit.Event{
		Action:        audit.EventLoginSucceeded,
		AccountID:     acct.ID,
		ClientID:      i.Params.ClientID,
		InteractionID: id,
	})
	return resolved, nil
}
