package http

import (
	"net/http"

	"github.com/meridianhealth/account-security-service/internal/application"
)

func (h *Handler) validatePassword(w http.ResponseWriter, r *http.Request) {
	var req application.PasswordValidationRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "validate_password", err)
		return
	}

	result, err := h.service.ValidatePassword(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "validate_password", err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) passwordExpired(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "password_expired", err)
		return
	}

	expiry, err := h.service.IsPasswordExpired(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "password_expired", err)
		return
	}
	writeSuccess(w, http.StatusOK, expiry)
}
