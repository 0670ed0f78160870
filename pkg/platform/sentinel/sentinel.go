package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: no record under the key
//   - ErrExpired: interaction, code or token past its lifetime
//   - ErrAlreadyUsed: one-time artifact (code, refresh token) already consumed
//   - ErrAlreadyResolved: interaction already reached a terminal state
//   - ErrInvalidState: record in the wrong state for the requested transition
//   - ErrConflict: concurrent writer won an optimistic transaction
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrAlreadyUsed     = errors.New("already used")
	ErrAlreadyResolved = errors.New("already resolved")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
