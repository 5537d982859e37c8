package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/rankings", func(r chi.Router) {
			r.Get("/", s.handlers.Ranking.HandleGet)
			r.Post("/run", s.handlers.Ranking.HandleRun)
		})

		r.Get("/trend/{symbol}", s.handlers.Trend.HandleDetect)

		r.Get("/rebalance/plan", s.handlers.Rebalancing.HandlePlan)

		r.Get("/selection/{side}", s.handlers.Selection.HandleSelect)

		r.Route("/market", func(r chi.Router) {
			r.Get("/regime", s.handlers.Market.HandleRegime)
			r.Get("/momentum", s.handlers.Market.HandleMomentum)
		})
	})
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
