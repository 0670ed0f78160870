package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKeyAccessToken struct{}

// GetAccessToken returns the bearer token RequireBearer extracted.
func GetAccessToken(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyAccessToken{}).(string)
	return token
}

// RequireBearer extracts an RFC 6750 access token from the Authorization
// header or, for form posts, the access_token parameter. Validation is
// left to the handler; a missing token is answered with a Bearer challenge.
func RequireBearer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				token = strings.TrimSpace(after)
			} else if r.Method == http.MethodPost {
				token = r.PostFormValue("access_token")
			}
			if token == "" {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", GetRequestID(r),
				)
				WriteBearerChallenge(w, "invalid_request", "no access token provided")
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyAccessToken{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteBearerChallenge answers 401 with a WWW-Authenticate header.
func WriteBearerChallenge(w http.ResponseWriter, code, description string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="oidc", error="`+code+`", error_description="`+description+`"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`))
}
