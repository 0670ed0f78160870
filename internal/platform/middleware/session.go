package middleware

import (
	"net/http"
	"time"

	"oidcprovider/pkg/requestcontext"
)

const SessionCookieName = "_session"

// SessionCookie copies the provider session cookie into the context.
func SessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
			r = r.WithContext(requestcontext.WithSessionID(r.Context(), c.Value))
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie issues the session cookie. A zero expiresAt yields a
// browser-session cookie.
func SetSessionCookie(w http.ResponseWriter, id string, expiresAt time.Time, secure bool) {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expiresAt.IsZero() {
		c.Expires = expiresAt
		c.MaxAge = int(time.Until(expiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
