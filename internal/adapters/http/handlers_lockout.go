package http

import (
	"net/http"
)

func (h *Handler) lockoutStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "lockout_status", err)
		return
	}

	status, err := h.service.CheckLockout(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "lockout_status", err)
		return
	}
	writeSuccess(w, http.StatusOK, status)
}

func (h *Handler) recordFailedAttempt(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "record_failed_attempt", err)
		return
	}

	outcome, err := h.service.RecordFailedAttempt(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "record_failed_attempt", err)
		return
	}
	writeSuccess(w, http.StatusOK, outcome)
}

func (h *Handler) recordSuccessfulAttempt(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "record_successful_attempt", err)
		return
	}

	if err := h.service.RecordSuccessfulAttempt(r.Context(), userID); err != nil {
		writeMappedError(r.Context(), w, "record_successful_attempt", err)
		return
	}
	writeMessage(w, http.StatusOK, "Failed attempt counter cleared")
}
