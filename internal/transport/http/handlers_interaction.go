package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"oidcprovider/internal/interaction"
	"oidcprovider/internal/platform/middleware"
	dErrors "oidcprovider/pkg/domain-errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (h *Handler) handleInteractionDetails(w http.ResponseWriter, r *http.Request) {
	view, err := h.interactions.Details(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleInteractionLogin accepts a JSON body or a form post and sends the
// browser back to the interaction on success.
func (h *Handler) handleInteractionLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "uuid")

	var in loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
		in.Email = r.PostFormValue("email")
		in.Password = r.PostFormValue("password")
		in.Remember = isTruthy(r.PostFormValue("remember"))
	}

	if _, err := h.interactions.SubmitLogin(ctx, id, interaction.LoginInput{
		Email:    in.Email,
		Password: in.Password,
		Remember: in.Remember,
	}); err != nil {
		h.logger.InfoContext(ctx, "interaction login rejected",
			"interaction_id", id,
			"error", dErrors.CodeOf(err),
			"request_id", middleware.GetRequestID(r),
		)
		writeError(w, err)
		return
	}
	http.Redirect(w, r, h.interactions.URL(id), http.StatusSeeOther)
}

func (h *Handler) handleInteractionConfirm(w http.ResponseWriter, r *http.Request) {
	done, err := h.interactions.Confirm(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if s := done.Session; s != nil {
		var expires time.Time
		if s.Remember {
			expires = s.ExpiresAt
		}
		middleware.SetSessionCookie(w, s.ID, expires, h.secureCookies)
	}
	http.Redirect(w, r, done.RedirectURL, http.StatusSeeOther)
}

func (h *Handler) handleInteractionAbort(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.interactions.Abort(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
