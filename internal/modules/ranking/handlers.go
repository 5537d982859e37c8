package ranking

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles ranking HTTP requests
type Handler struct {
	service *Service
	repo    *Repository
	opts    Options
	log     zerolog.Logger
}

// NewHandler creates a new ranking handler
func NewHandler(service *Service, repo *Repository, opts Options, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		opts:    opts,
		log:     log.With().Str("handler", "ranking").Logger(),
	}
}

// HandleGet returns the most recently saved ranking table.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.Load()
	if err != nil {
		h.writeError(w, http.StatusNotFound, "no ranking table available: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// HandleRun executes a full ranking run and saves the resulting table.
// Optional query params: limit, years.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	opts := h.opts
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			opts.UniverseLimit = limit
		}
	}
	if v := r.URL.Query().Get("years"); v != "" {
		if years, err := strconv.Atoi(v); err == nil && years > 0 {
			opts.Years = years
		}
	}

	records, err := h.service.Run(r.Context(), opts)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.repo.Save(records); err != nil {
		h.log.Error().Err(err).Msg("Failed to save ranking table")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
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
