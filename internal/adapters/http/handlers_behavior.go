package http

import (
	"net/http"
)

func (h *Handler) analyzeBehavior(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "analyze_behavior", err)
		return
	}
	windowDays := parseIntDefault(r.URL.Query().Get("window_days"), 0)

	report, err := h.service.AnalyzeUserBehavior(r.Context(), userID, windowDays)
	if err != nil {
		writeMappedError(r.Context(), w, "analyze_behavior", err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

func (h *Handler) createBaseline(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		writeValidationError(r.Context(), w, "create_baseline", err)
		return
	}

	result, err := h.service.CreateBaseline(r.Context(), userID)
	if err != nil {
		writeMappedError(r.Context(), w, "create_baseline", err)
		return
	}
	status := http.StatusCreated
	if !result.Created {
		// Not enough history is a normal outcome, reported without error.
		status = http.StatusOK
	}
	writeSuccess(w, status, result)
}

func (h *Handler) complianceReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetComplianceReport(r.Context())
	if err != nil {
		writeMappedError(r.Context(), w, "compliance_report", err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}
