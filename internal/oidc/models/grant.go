package models

import (
	"fmt"
	"time"

	"oidcprovider/pkg/platform/sentinel"
	"oidcprovider/pkg/scope"
)

// Grant records an end-user's (or, for client_credentials, a client's)
// authorization decision. Tokens reference it through their gid claim.
type Grant struct {
	ID            string         `json:"grant_id"`
	AccountID     string         `json:"account_id,omitempty"`
	ClientID      string         `json:"client_id"`
	Scope         []string       `json:"scope"`
	Claims        *ClaimsRequest `json:"claims,omitempty"`
	ACR           string         `json:"acr,omitempty"`
	AuthTime      time.Time      `json:"auth_time"`
	AuthorizedAt  time.Time      `json:"authorized_at"`
	Remember      bool           `json:"remember"`
	InteractionID string         `json:"interaction_id,omitempty"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// NewGrantFromInteraction builds the grant a completed interaction yields.
func NewGrantFromInteraction(i *Interaction, now time.Time, ttl time.Duration) (*Grant, error) {
	if i.Status != InteractionCompleted || i.Login == nil || i.GrantID == "" {
		return nil, fmt.Errorf("interaction %s has not completed: %w", i.UUID, sentinel.ErrInvalidState)
	}
	return &Grant{
		ID:            i.GrantID,
		AccountID:     i.Login.AccountID,
		ClientID:      i.Params.ClientID,
		Scope:         i.GrantedScope(),
		Claims:        i.Params.Claims,
		ACR:           i.Login.ACR,
		AuthTime:      i.Login.AuthTime,
		AuthorizedAt:  now,
		Remember:      i.Login.Remember,
		InteractionID: i.UUID,
		ExpiresAt:     now.Add(ttl),
	}, nil
}

// NewClientCredentialsGrant builds the grant for a client acting on its
// own behalf.
func NewClientCredentialsGrant(id, clientID string, scopes []string, now time.Time, ttl time.Duration) *Grant {
	return &Grant{
		ID:           id,
		ClientID:     clientID,
		Scope:        scopes,
		AuthTime:     now,
		AuthorizedAt: now,
		ExpiresAt:    now.Add(ttl),
	}
}

func (g *Grant) HasScope(s string) bool {
	return scope.Contains(g.Scope, s)
}

// Covers reports whether the grant already authorizes every scope in want.
func (g *Grant) Covers(want []string) bool {
	return scope.Subset(want, g.Scope)
}

func (g *Grant) IsExpired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}

// Subject is the sub claim for tokens minted from this grant.
func (g *Grant) Subject() string {
	if g.AccountID != "" {
		return g.AccountID
	}
	return g.ClientID
}

// NewGrantFromSession builds a grant for an authorization request that an
// active session and a remembered grant already satisfy.
func NewGrantFromSession(id string, s *Session, params AuthorizationParams, now time.Time, ttl time.Duration) *Grant {
	return &Grant{
		ID:           id,
		AccountID:    s.AccountID,
		ClientID:     params.ClientID,
		Scope:        params.Scope,
		Claims:       params.Claims,
		ACR:          s.ACR,
		AuthTime:     s.AuthTime,
		AuthorizedAt: now,
		Remember:     s.Remember,
		ExpiresAt:    now.Add(ttl),
	}
}
