package httptransport

import (
	"net/http"
	"net/url"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/internal/platform/middleware"
	"oidcprovider/internal/provider"
	dErrors "oidcprovider/pkg/domain-errors"
	"oidcprovider/pkg/requestcontext"
)

func (h *Handler) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Discovery())
}

func (h *Handler) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.JWKS())
}

// params reads the query string for GET and the form body for POST.
func params(r *http.Request) (url.Values, error) {
	if r.Method == http.MethodGet {
		return r.URL.Query(), nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "could not parse request body")
	}
	return r.PostForm, nil
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := params(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.provider.Authorize(ctx, provider.AuthorizeRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseType:        q.Get("response_type"),
		ResponseMode:        q.Get("response_mode"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		Prompt:              q.Get("prompt"),
		MaxAge:              q.Get("max_age"),
		ACRValues:           q.Get("acr_values"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Claims:              q.Get("claims"),
		Request:             q.Get("request"),
		RequestURI:          q.Get("request_uri"),
		SessionID:           requestcontext.SessionID(ctx),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "authorization request failed before redirect",
			"client_id", q.Get("client_id"),
			"error", err,
			"request_id", middleware.GetRequestID(r),
		)
		writeError(w, err)
		return
	}
	if res.InteractionURL != "" {
		http.Redirect(w, r, res.InteractionURL, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, res.RedirectURL, http.StatusSeeOther)
}

// clientCredentials reads client_secret_basic, client_secret_post or a
// bare client_id for public clients. Mixing methods is rejected.
func clientCredentials(r *http.Request) (provider.ClientCredentials, error) {
	id, secret, hasBasic := r.BasicAuth()
	formID := r.PostFormValue("client_id")
	formSecret := r.PostFormValue("client_secret")

	if hasBasic {
		if formSecret != "" {
			return provider.ClientCredentials{}, dErrors.New(dErrors.CodeInvalidRequest, "client authentication must only be provided using one mechanism")
		}
		var err error
		if id, err = url.QueryUnescape(id); err != nil {
			return provider.ClientCredentials{}, dErrors.New(dErrors.CodeUnknownClient, "client_id invalid encoding")
		}
		if secret, err = url.QueryUnescape(secret); err != nil {
			return provider.ClientCredentials{}, dErrors.New(dErrors.CodeUnknownClient, "client_secret invalid encoding")
		}
		if formID != "" && formID != id {
			return provider.ClientCredentials{}, dErrors.New(dErrors.CodeInvalidRequest, "mismatch in body and authorization client ids")
		}
		return provider.ClientCredentials{ClientID: id, ClientSecret: secret, Method: models.AuthMethodClientSecretBasic}, nil
	}
	if formSecret != "" {
		return provider.ClientCredentials{ClientID: formID, ClientSecret: formSecret, Method: models.AuthMethodClientSecretPost}, nil
	}
	return provider.ClientCredentials{ClientID: formID, Method: models.AuthMethodNone}, nil
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "could not parse request body"))
		return
	}
	creds, err := clientCredentials(r)
	if err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	resp, err := h.provider.Token(r.Context(), provider.TokenRequest{
		Credentials:  creds,
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Scope:        r.PostFormValue("scope"),
	})
	if err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleIntrospection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "could not parse request body"))
		return
	}
	creds, err := clientCredentials(r)
	if err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	token := r.PostFormValue("token")
	if token == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidRequest, "missing required parameter 'token'"))
		return
	}
	resp, err := h.provider.Introspect(r.Context(), creds, token, r.PostFormValue("token_type_hint"))
	if err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRevocation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidRequest, "could not parse request body"))
		return
	}
	creds, err := clientCredentials(r)
	if err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	if err := h.provider.Revoke(r.Context(), creds, r.PostFormValue("token"), r.PostFormValue("token_type_hint")); err != nil {
		writeClientAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, err := h.provider.UserInfo(ctx, middleware.GetAccessToken(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			writeError(w, err)
			return
		}
		middleware.WriteBearerChallenge(w, "invalid_token", "invalid token provided")
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := params(r)
	if err != nil {
		writeError(w, err)
		return
	}
	redirect, err := h.provider.EndSession(ctx, provider.EndSessionRequest{
		SessionID:             requestcontext.SessionID(ctx),
		IDTokenHint:           q.Get("id_token_hint"),
		PostLogoutRedirectURI: q.Get("post_logout_redirect_uri"),
		State:                 q.Get("state"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.ClearSessionCookie(w, h.secureCookies)
	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
