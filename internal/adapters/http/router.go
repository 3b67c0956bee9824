package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meridianhealth/account-security-service/internal/application"
	"github.com/meridianhealth/account-security-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for account security use-cases.
// Keeping only application dependencies here preserves clean adapter boundaries.
type Handler struct {
	service  *application.Service
	verifier ports.ServiceTokenVerifier
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, verifier ports.ServiceTokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// NewRouter registers routes and the middleware stack. Every operational
// route sits behind service-token auth; only health probes are open.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/security/v1", func(r chi.Router) {
		r.Use(handler.serviceAuthMiddleware)

		r.Post("/policies", handler.createPolicy)
		r.Put("/policies/{policy_id}", handler.updatePolicy)
		r.Get("/users/{user_id}/policy", handler.resolvePolicy)

		r.Post("/password/validate", handler.validatePassword)
		r.Get("/users/{user_id}/password/expired", handler.passwordExpired)

		r.Get("/users/{user_id}/lockout", handler.lockoutStatus)
		r.Post("/users/{user_id}/attempts/failed", handler.recordFailedAttempt)
		r.Post("/users/{user_id}/attempts/succeeded", handler.recordSuccessfulAttempt)

		r.Post("/sessions", handler.createSession)
		r.Post("/sessions/sweep", handler.sweepSessions)
		r.Post("/sessions/{session_id}/touch", handler.touchSession)
		r.Delete("/sessions/{session_id}", handler.terminateSession)
		r.Get("/users/{user_id}/sessions", handler.listSessions)
		r.Delete("/users/{user_id}/sessions", handler.terminateAllSessions)

		r.Get("/users/{user_id}/behavior", handler.analyzeBehavior)
		r.Post("/users/{user_id}/baseline", handler.createBaseline)
		r.Get("/compliance/report", handler.complianceReport)
	})

	return r
}
