// Package domainerrors carries typed error codes across service and
// transport boundaries. Services return *Error values; handlers translate
// the code into an HTTP status and an OAuth-style error envelope.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest              Code = "bad_request"
	CodeInvalidRequest          Code = "invalid_request"
	CodeInvalidInput            Code = "invalid_input"
	CodeInvalidClientConfig     Code = "invalid_client_metadata"
	CodeUnknownClient           Code = "invalid_client"
	CodeInvalidCredentials      Code = "invalid_credentials"
	CodeUnauthorized            Code = "unauthorized"
	CodeNotFound                Code = "not_found"
	CodeExpired                 Code = "expired"
	CodeAlreadyResolved         Code = "already_resolved"
	CodeInvalidResolution       Code = "invalid_resolution"
	CodeInvalidGrant            Code = "invalid_grant"
	CodeUnauthorizedClient      Code = "unauthorized_client"
	CodeUnsupportedGrantType    Code = "unsupported_grant_type"
	CodeUnsupportedResponseType Code = "unsupported_response_type"
	CodeInvalidScope            Code = "invalid_scope"
	CodeAccessDenied            Code = "access_denied"
	CodeLoginRequired           Code = "login_required"
	CodeConsentRequired         Code = "consent_required"
	CodeInteractionRequired     Code = "interaction_required"
	CodeBadSignature            Code = "bad_signature"
	CodeRevoked                 Code = "revoked"
	CodeInvalidToken            Code = "invalid_token"
	CodeForbidden               Code = "forbidden"
	CodeConflict                Code = "conflict"
	CodeInvariantViolation      Code = "invariant_violation"
	CodeInternal                Code = "server_error"
)

// Error is a domain error with a stable code and a client-safe message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so tests can compare against a freshly
// constructed error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the outermost domain code, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message of the outermost domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal server error"
}

// ToHTTPStatus maps a code onto the status the transport layer returns.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidRequest, CodeInvalidInput, CodeInvalidClientConfig,
		CodeInvalidGrant, CodeUnauthorizedClient, CodeUnsupportedGrantType,
		CodeUnsupportedResponseType, CodeInvalidScope, CodeInvalidResolution,
		CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnknownClient, CodeInvalidCredentials, CodeUnauthorized, CodeBadSignature,
		CodeRevoked, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeAccessDenied, CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyResolved, CodeConflict:
		return http.StatusConflict
	case CodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
