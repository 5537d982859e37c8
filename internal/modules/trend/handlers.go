package trend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quantscope/equity-analyzer/internal/domain"
)

// PriceProvider supplies the OHLCV history the detector scores.
type PriceProvider interface {
	PriceBars(ctx context.Context, symbol, period, interval string) ([]domain.PriceBar, error)
}

// Handler handles trend detection HTTP requests
type Handler struct {
	detector *Detector
	prices   PriceProvider
	period   string
	log      zerolog.Logger
}

// NewHandler creates a new trend handler
func NewHandler(detector *Detector, prices PriceProvider, period string, log zerolog.Logger) *Handler {
	return &Handler{
		detector: detector,
		prices:   prices,
		period:   period,
		log:      log.With().Str("handler", "trend").Logger(),
	}
}

// HandleDetect evaluates the trend signal for one symbol.
// GET /api/trend/{symbol}?direction=up
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	dir, err := ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := h.prices.PriceBars(r.Context(), symbol, h.period, "1d")
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	signal, err := h.detector.Detect(bars, dir)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if signal == nil {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol": symbol,
			"signal": nil,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"signal": signal,
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
