package models

import (
	"fmt"
	"time"

	"oidcprovider/pkg/platform/sentinel"
)

// AuthorizationCodeRecord binds a one-time code to its grant and the
// request parameters the token endpoint must re-check.
type AuthorizationCodeRecord struct {
	Code                string    `json:"code"`
	GrantID             string    `json:"grant_id"`
	ClientID            string    `json:"client_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Nonce               string    `json:"nonce,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
	Used                bool      `json:"used"`
	CreatedAt           time.Time `json:"created_at"`
}

// ValidateForConsume checks the code can be exchanged at now for
// redirectURI.
func (r *AuthorizationCodeRecord) ValidateForConsume(redirectURI string, now time.Time) error {
	if r.Used {
		return fmt.Errorf("authorization code already used: %w", sentinel.ErrAlreadyUsed)
	}
	if now.After(r.ExpiresAt) {
		return fmt.Errorf("authorization code expired: %w", sentinel.ErrExpired)
	}
	if r.RedirectURI != redirectURI {
		return fmt.Errorf("redirect_uri mismatch: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func (r *AuthorizationCodeRecord) MarkUsed() {
	r.Used = true
}
