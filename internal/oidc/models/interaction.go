package models

import (
	"fmt"
	"time"

	"oidcprovider/pkg/platform/sentinel"
)

type InteractionStatus string

const (
	InteractionInitiated    InteractionStatus = "initiated"
	InteractionNeedsLogin   InteractionStatus = "needs_login"
	InteractionNeedsConsent InteractionStatus = "needs_consent"
	InteractionCompleted    InteractionStatus = "completed"
	InteractionAbandoned    InteractionStatus = "abandoned"
)

func (s InteractionStatus) IsTerminal() bool {
	return s == InteractionCompleted || s == InteractionAbandoned
}

type InteractionReason string

const (
	ReasonLoginRequired       InteractionReason = "login_required"
	ReasonConsentPrompt       InteractionReason = "consent_prompt"
	ReasonClientNotAuthorized InteractionReason = "client_not_authorized"
)

// NeedsLogin maps a reason onto the state the interaction enters.
func (r InteractionReason) NeedsLogin() bool {
	return r == ReasonLoginRequired
}

// LoginErrorInvalidCredentials is the flag surfaced to the login view
// after a failed credential check.
const LoginErrorInvalidCredentials = "invalid_credentials"

// AuthorizationParams is the validated authorization request an
// interaction was opened for.
type AuthorizationParams struct {
	ClientID            string         `json:"client_id"`
	RedirectURI         string         `json:"redirect_uri"`
	ResponseType        ResponseType   `json:"response_type"`
	ResponseMode        string         `json:"response_mode"`
	Scope               []string       `json:"scope"`
	State               string         `json:"state,omitempty"`
	Nonce               string         `json:"nonce,omitempty"`
	Prompt              []string       `json:"prompt,omitempty"`
	MaxAge              *int           `json:"max_age,omitempty"`
	ACRValues           string         `json:"acr_values,omitempty"`
	CodeChallenge       string         `json:"code_challenge,omitempty"`
	CodeChallengeMethod string         `json:"code_challenge_method,omitempty"`
	Claims              *ClaimsRequest `json:"claims,omitempty"`
}

func (p AuthorizationParams) HasPrompt(prompt string) bool {
	for _, v := range p.Prompt {
		if v == prompt {
			return true
		}
	}
	return false
}

// Login records a successful end-user authentication.
type Login struct {
	AccountID string    `json:"account_id"`
	ACR       string    `json:"acr"`
	Remember  bool      `json:"remember"`
	AuthTime  time.Time `json:"auth_time"`
}

// Consent records the end-user's approval. An empty Scope approves every
// requested scope.
type Consent struct {
	Scope []string `json:"scope,omitempty"`
}

// Resolution is the input to a single interaction transition.
type Resolution struct {
	Login   *Login
	Consent *Consent
	// NextReason replaces the reason once login is accepted so the consent
	// view can tell a first-time authorization from a scope upgrade.
	NextReason InteractionReason
	// GrantID is assigned to the grant produced when the interaction
	// completes.
	GrantID string
}

// Interaction is one end-user pass through login and consent for a single
// authorization request.
//
// Invariants:
//   - status moves forward only: initiated → needs_login → needs_consent →
//     completed; abandoned is reachable from any non-terminal state
//   - consent is never accepted before a login is attached
//   - a terminal interaction never changes again
type Interaction struct {
	UUID       string              `json:"uuid"`
	Status     InteractionStatus   `json:"status"`
	Reason     InteractionReason   `json:"reason"`
	Params     AuthorizationParams `json:"params"`
	SessionRef string              `json:"session_ref,omitempty"`
	Login      *Login              `json:"login,omitempty"`
	Consent    *Consent            `json:"consent,omitempty"`
	LastError  string              `json:"last_error,omitempty"`
	GrantID    string              `json:"grant_id,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

// NewInteraction opens an interaction in the initiated state.
func NewInteraction(uuid string, params AuthorizationParams, sessionRef string, now time.Time, ttl time.Duration) *Interaction {
	return &Interaction{
		UUID:       uuid,
		Status:     InteractionInitiated,
		Params:     params,
		SessionRef: sessionRef,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// Begin moves an initiated interaction to the state its reason requires.
// An existing login (from an active session) skips straight to consent.
func (i *Interaction) Begin(reason InteractionReason, login *Login) {
	i.Reason = reason
	i.Login = login
	if reason.NeedsLogin() || login == nil {
		i.Status = InteractionNeedsLogin
		i.Login = nil
		return
	}
	i.Status = InteractionNeedsConsent
}

func (i *Interaction) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// CanResolve validates a resolution against the current state. Errors wrap
// sentinel values so stores can return them unchanged.
func (i *Interaction) CanResolve(res Resolution, now time.Time) error {
	switch {
	case i.Status == InteractionCompleted:
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrAlreadyResolved)
	case i.Status == InteractionAbandoned || i.IsExpired(now):
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrExpired)
	case i.Status == InteractionInitiated:
		return fmt.Errorf("interaction %s not started: %w", i.UUID, sentinel.ErrInvalidState)
	case res.Login != nil && i.Status != InteractionNeedsLogin:
		return fmt.Errorf("interaction %s: login already completed: %w", i.UUID, sentinel.ErrInvalidState)
	case res.Login == nil && res.Consent == nil:
		return fmt.Errorf("interaction %s: empty resolution: %w", i.UUID, sentinel.ErrInvalidState)
	case res.Consent != nil && res.Login == nil && i.Login == nil:
		return fmt.Errorf("interaction %s: consent requires login: %w", i.UUID, sentinel.ErrInvalidState)
	case res.Consent != nil && res.GrantID == "":
		return fmt.Errorf("interaction %s: completion requires a grant id: %w", i.UUID, sentinel.ErrInvalidState)
	}
	return nil
}

// ApplyResolution performs the transition validated by CanResolve and
// reports whether the interaction completed.
func (i *Interaction) ApplyResolution(res Resolution, now time.Time) bool {
	i.UpdatedAt = now
	if res.Login != nil {
		i.Login = res.Login
		i.LastError = ""
		i.Status = InteractionNeedsConsent
		if res.NextReason != "" {
			i.Reason = res.NextReason
		}
	}
	if res.Consent != nil {
		i.Consent = res.Consent
		i.GrantID = res.GrantID
		i.Status = InteractionCompleted
		return true
	}
	return false
}

// RecordLoginFailure flags the interaction for the login view. The
// interaction stays in needs_login and remains retryable.
func (i *Interaction) RecordLoginFailure(now time.Time) error {
	if i.Status.IsTerminal() || i.IsExpired(now) {
		return fmt.Errorf("interaction %s: %w", i.UUID, sentinel.ErrExpired)
	}
	i.LastError = LoginErrorInvalidCredentials
	i.UpdatedAt = now
	return nil
}

// Abandon marks a non-terminal interaction as abandoned. It reports
// whether the state changed.
func (i *Interaction) Abandon(now time.Time) bool {
	if i.Status.IsTerminal() {
		return false
	}
	i.Status = InteractionAbandoned
	i.UpdatedAt = now
	return true
}

// GrantedScope is the scope set a completed interaction grants.
func (i *Interaction) GrantedScope() []string {
	if i.Consent != nil && len(i.Consent.Scope) > 0 {
		out := make([]string, 0, len(i.Consent.Scope))
		for _, s := range i.Params.Scope {
			for _, c := range i.Consent.Scope {
				if s == c {
					out = append(out, s)
					break
				}
			}
		}
		return out
	}
	return i.Params.Scope
}
