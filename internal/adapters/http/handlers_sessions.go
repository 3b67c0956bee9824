package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meridianhealth/account-security-service/internal/application"
)

type createSessionBody struct {
	UserID     uuid.UUID `json:"user_id"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Token      string    `json:"token"`
	TTLSeconds int       `json:"ttl_seconds,omitempty"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionBody
	if err := decodeBody(r, &body); err != nil {
		writeValidationError(r.Context(), w, "create_session", err)
		return
	}

	result, err := h.service.CreateSession(r.Context(), application.CreateSessionRequest{
		UserID:    body.UserID,
		IPAddress: body.IPAddress,
		UserAgent: body.UserAgent,
		Token:     body.Token,
		TTL:       time.Duration(body.TTLSeconds) * time.Second,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "create_session", err)
		return
	}
	writeSuccess(w, http.StatusCreated, result)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "list_sessions", err)
		return
	}

	items, err := h.service.ListActiveSessions(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": items})
}

func (h *Handler) touchSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathUUID(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "touch_session", err)
		return
	}

	if err := h.service.TouchSession(r.Context(), sessionID); err != nil {
		writeMappedError(r.Context(), w, "touch_session", err)
		return
	}
	writeMessage(w, http.StatusOK, "Session activity refreshed")
}

func (h *Handler) terminateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathUUID(r, "session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "terminate_session", err)
		return
	}
	actingUserID, err := queryUUID(r, "acting_user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "terminate_session", err)
		return
	}
	if actingUserID == nil {
		writeValidationError(r.Context(), w, "terminate_session", errors.New("acting_user_id is required"))
		return
	}

	if err := h.service.TerminateSession(r.Context(), sessionID, *actingUserID); err != nil {
		writeMappedError(r.Context(), w, "terminate_session", err)
		return
	}
	writeMessage(w, http.StatusOK, "Session terminated")
}

func (h *Handler) terminateAllSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "terminate_all_sessions", err)
		return
	}
	exceptID, err := queryUUID(r, "except_session_id")
	if err != nil {
		writeValidationError(r.Context(), w, "terminate_all_sessions", err)
		return
	}

	terminated, err := h.service.TerminateAllSessions(r.Context(), userID, exceptID)
	if err != nil {
		writeMappedError(r.Context(), w, "terminate_all_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"terminated_count": terminated})
}

func (h *Handler) sweepSessions(w http.ResponseWriter, r *http.Request) {
	swept, err := h.service.SweepExpiredSessions(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "sweep_sessions", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"swept_count": swept})
}
