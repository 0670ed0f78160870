package models

import (
	"fmt"
	"time"

	"oidcprovider/pkg/platform/sentinel"
)

// RefreshTokenRecord tracks one issued refresh token by its jti so it can
// be rotated exactly once.
type RefreshTokenRecord struct {
	JTI       string     `json:"jti"`
	GrantID   string     `json:"grant_id"`
	ClientID  string     `json:"client_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *RefreshTokenRecord) ValidateForConsume(now time.Time) error {
	if r.Used {
		return fmt.Errorf("refresh token already used: %w", sentinel.ErrAlreadyUsed)
	}
	if now.After(r.ExpiresAt) {
		return fmt.Errorf("refresh token expired: %w", sentinel.ErrExpired)
	}
	return nil
}

func (r *RefreshTokenRecord) MarkUsed(now time.Time) {
	r.Used = true
	r.UsedAt = &now
}
