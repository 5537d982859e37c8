package selection

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles position selection HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new selection handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "selection").Logger(),
	}
}

// HandleSelect runs position selection for one side.
// GET /api/selection/{side}
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	side, err := ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := h.service.Select(r.Context(), side)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"side":       side,
		"count":      len(candidates),
		"candidates": candidates,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
