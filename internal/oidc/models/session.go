package models

import "time"

// Session is the provider's browser session, referenced by cookie. It lets
// a later authorization request skip login.
type Session struct {
	ID        string    `json:"session_id"`
	AccountID string    `json:"account_id"`
	ACR       string    `json:"acr"`
	AuthTime  time.Time `json:"auth_time"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsActive(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// SatisfiesMaxAge reports whether the authentication is recent enough for
// a max_age request parameter.
func (s *Session) SatisfiesMaxAge(maxAge *int, now time.Time) bool {
	if maxAge == nil {
		return true
	}
	return now.Sub(s.AuthTime) <= time.Duration(*maxAge)*time.Second
}

// Login converts the session into the login an interaction carries.
func (s *Session) Login() *Login {
	return &Login{
		AccountID: s.AccountID,
		ACR:       s.ACR,
		Remember:  s.Remember,
		AuthTime:  s.AuthTime,
	}
}
