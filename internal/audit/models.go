package audit

import "time"

type Action string

const (
	EventInteractionStarted Action = "interaction_started"
	EventLoginSucceeded     Action = "login_succeeded"
	EventLoginFailed        Action = "login_failed"
	EventConsentGranted     Action = "consent_granted"
	EventInteractionAborted Action = "interaction_aborted"
	EventAuthorizeCompleted Action = "authorize_completed"

	EventTokenIssued         Action = "token_issued"
	EventTokenRefreshed      Action = "token_refreshed"
	EventRefreshTokenReplay  Action = "refresh_token_replay"
	EventTokenRevoked        Action = "token_revoked"
	EventIntrospectionFailed Action = "introspection_failed"
	EventClientAuthFailed    Action = "client_auth_failed"

	EventClientRegistered Action = "client_registered"
	EventClientUpdated    Action = "client_updated"
	EventSessionEnded     Action = "session_ended"
)

// Event is emitted by the provider for security-relevant actions. Request
// metadata is filled in by the Publisher.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	AccountID     string    `json:"account_id,omitempty"`
	ClientID      string    `json:"client_id,omitempty"`
	InteractionID string    `json:"interaction_id,omitempty"`
	GrantID       string    `json:"grant_id,omitempty"`
	// Reason carries the typed failure reason for events whose HTTP
	// response deliberately hides it (introspection, client auth).
	Reason string `json:"reason,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Mobile    bool   `json:"mobile,omitempty"`
}
