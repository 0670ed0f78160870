package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"oidcprovider/pkg/requestcontext"
)

// NewFormRequest creates a POST request with a urlencoded body.
func NewFormRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// WithSessionCookie attaches the provider session cookie.
func WithSessionCookie(req *http.Request, name, sessionID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: name, Value: sessionID})
	return req
}

// WithBearer sets an RFC 6750 Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithBasicAuth sets client_secret_basic credentials, form-encoding both
// parts as RFC 6749 section 2.3.1 requires.
func WithBasicAuth(req *http.Request, clientID, secret string) *http.Request {
	req.SetBasicAuth(url.QueryEscape(clientID), url.QueryEscape(secret))
	return req
}

// WithSessionID injects the session id the cookie middleware would set.
func WithSessionID(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
