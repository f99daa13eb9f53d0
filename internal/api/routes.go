package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	// Users
	mux.Handle("POST /api/v1/users", chain(http.HandlerFunc(h.CreateUser)))
	mux.Handle("GET /api/v1/users", chain(http.HandlerFunc(h.ListUsers)))
	mux.Handle("GET /api/v1/users/{id}", chain(http.HandlerFunc(h.GetUser)))
	mux.Handle("PATCH /api/v1/users/{id}/email", chain(http.HandlerFunc(h.UpdateEmail)))
	mux.Handle("DELETE /api/v1/users/{id}", chain(http.HandlerFunc(h.DeleteUser)))

	// Flow
	mux.Handle("GET /api/v1/users/{id}/flow", chain(http.HandlerFunc(h.GetFlow)))
	mux.Handle("GET /api/v1/users/{id}/flow/current", chain(http.HandlerFunc(h.GetCurrentStep)))
	mux.Handle("GET /api/v1/users/{id}/flow/status", chain(http.HandlerFunc(h.GetFlowStatus)))

	// Flow progression
	mux.Handle("PUT /api/v1/users/{id}/flow/steps/{step}/tasks/{task}", chain(http.HandlerFunc(h.CompleteTask)))
	mux.Handle("PUT /api/v1/users/{id}/flow/steps/{step}/complete", chain(http.HandlerFunc(h.CompleteStep)))

	// Flow restructuring
	mux.Handle("POST /api/v1/users/{id}/flow/steps", chain(http.HandlerFunc(h.AddStep)))
	mux.Handle("DELETE /api/v1/users/{id}/flow/steps", chain(http.HandlerFunc(h.RemoveStep)))
	mux.Handle("PATCH /api/v1/users/{id}/flow/steps", chain(http.HandlerFunc(h.ModifyStep)))
}
