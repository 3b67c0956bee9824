package http

import (
	"net/http"

	"github.com/meridianhealth/account-security-service/internal/application"
)

func (h *Handler) createPolicy(w http.ResponseWriter, r *http.Request) {
	var input application.PolicyInput
	if err := decodeBody(r, &input); err != nil {
		writeValidationError(r.Context(), w, "create_policy", err)
		return
	}

	item, err := h.service.CreatePolicy(r.Context(), input)
	if err != nil {
		writeMappedError(r.Context(), w, "create_policy", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"policy": item})
}

func (h *Handler) updatePolicy(w http.ResponseWriter, r *http.Request) {
	policyID, err := pathUUID(r, "policy_id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_policy", err)
		return
	}
	var input application.PolicyInput
	if err := decodeBody(r, &input); err != nil {
		writeValidationError(r.Context(), w, "update_policy", err)
		return
	}

	item, err := h.service.UpdatePolicy(r.Context(), policyID, input)
	if err != nil {
		writeMappedError(r.Context(), w, "update_policy", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"policy": item})
}

func (h *Handler) resolvePolicy(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_policy", err)
		return
	}
	explicitID, err := queryUUID(r, "policy_id")
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_policy", err)
		return
	}

	resolved, err := h.service.ResolvePolicy(r.Context(), userID, explicitID)
	if err != nil {
		writeMappedError(r.Context(), w, "resolve_policy", err)
		return
	}
	writeSuccess(w, http.StatusOK, resolved)
}
