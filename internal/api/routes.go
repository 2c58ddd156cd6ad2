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

	mux.Handle("POST /plan", chain(http.HandlerFunc(h.CreatePlan)))
	mux.Handle("POST /execute", chain(http.HandlerFunc(h.ExecutePlan)))
	mux.Handle("GET /health", chain(http.HandlerFunc(h.Health)))
}

// Health обрабатывает GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
