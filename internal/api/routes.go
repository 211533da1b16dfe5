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
	)

	// Runs
	mux.Handle("POST /api/v1/runs", chain(http.HandlerFunc(h.KickoffRun)))
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/runs/{id}/stages", chain(http.HandlerFunc(h.ListRunStages)))

	// Graph
	mux.Handle("GET /api/v1/graph", chain(http.HandlerFunc(h.GetGraph)))

	// Health
	mux.Handle("GET /healthz", http.HandlerFunc(h.Healthz))
}
