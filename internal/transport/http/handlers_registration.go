package httptransport

import (
	"encoding/json"
	"net/http"

	"oidcprovider/internal/client"
	dErrors "oidcprovider/pkg/domain-errors"
)

const maxRegistrationBody = 64 << 10

func (h *Handler) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req client.RegistrationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRegistrationBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidClientConfig, "invalid client metadata document"))
		return
	}
	resp, err := h.provider.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
