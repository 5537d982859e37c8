package rebalancing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/config"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *Service
	cfg     config.Portfolio
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *Service, cfg config.Portfolio, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandlePlan builds and returns a fresh allocation plan from the configured
// portfolio file.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if h.cfg.File == "" {
		h.writeError(w, http.StatusBadRequest, "no portfolio file configured")
		return
	}

	holdings, err := LoadHoldingsCSV(h.cfg.File)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan, err := h.service.BuildPlan(r.Context(), holdings, Options{
		Exclude:        h.cfg.ExcludeStocks,
		NegativeWeight: h.cfg.NegativeWeight,
		Period:         h.cfg.Period(),
	})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ErrDegenerateInput) || errors.Is(err, ErrEmptyOptimizationSet) {
			status = http.StatusUnprocessableEntity
		}
		h.writeError(w, status, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
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
