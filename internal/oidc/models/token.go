package models

import "time"

type TokenKind string

const (
	TokenKindIDToken      TokenKind = "id_token"
	TokenKindAccessToken  TokenKind = "access_token"
	TokenKindRefreshToken TokenKind = "refresh_token"
)

func (k TokenKind) IsValid() bool {
	switch k {
	case TokenKindIDToken, TokenKindAccessToken, TokenKindRefreshToken:
		return true
	}
	return false
}

// Token is a minted, signed token. Value is the compact JWS.
type Token struct {
	Kind      TokenKind `json:"kind"`
	JTI       string    `json:"jti"`
	Subject   string    `json:"sub"`
	Audience  string    `json:"aud"`
	GrantID   string    `json:"gid"`
	KeyID     string    `json:"kid"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
	Value     string    `json:"-"`
}

// ExpiresIn is the lifetime left at now, in whole seconds.
func (t *Token) ExpiresIn(now time.Time) int {
	secs := int(t.ExpiresAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// TokenSet is the token endpoint (or implicit authorization) response.
type TokenSet struct {
	AccessToken  *Token
	IDToken      *Token
	RefreshToken *Token
	Scope        []string
}
