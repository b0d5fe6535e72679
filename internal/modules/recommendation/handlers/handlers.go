// Package handlers provides HTTP handlers for indicators and rebalance recommendations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/recommendation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles recommendation HTTP requests
type Handler struct {
	service          *recommendation.Service
	history          *recommendation.LogRepository
	defaultTargets   map[string]float64
	defaultThreshold float64
	log              zerolog.Logger
}

// NewHandler creates a new recommendation handler. history may be nil.
func NewHandler(
	service *recommendation.Service,
	history *recommendation.LogRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service: service,
		history: history,
		log:     log.With().Str("handler", "recommendation").Logger(),
	}
}

// SetDefaults sets the target allocation and threshold used when a request
// omits them
func (h *Handler) SetDefaults(targets map[string]float64, threshold float64) {
	h.defaultTargets = targets
	h.defaultThreshold = threshold
}

// RebalanceRequest is the JSON accepted by POST /api/recommendations/rebalance
type RebalanceRequest struct {
	Holdings  map[string]float64 `json:"holdings"`
	Targets   map[string]float64 `json:"targets"`
	Threshold float64            `json:"threshold"`
}

// HandleRebalance handles POST /api/recommendations/rebalance
func (h *Handler) HandleRebalance(w http.ResponseWriter, r *http.Request) {
	var req RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "invalid JSON body")
		return
	}

	if len(req.Targets) == 0 {
		req.Targets = h.defaultTargets
	}
	if req.Threshold == 0 {
		req.Threshold = h.defaultThreshold
	}

	report := h.service.RecommendRebalance(r.Context(), req.Holdings, req.Targets, req.Threshold)

	status := http.StatusOK
	switch report.Status {
	case domain.StatusInvalidInput:
		status = http.StatusBadRequest
	case domain.StatusError:
		status = http.StatusInternalServerError
	}
	h.writeData(w, status, report)
}

// HandleHistory handles GET /api/recommendations/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusServiceUnavailable, domain.StatusError, "recommendation log is disabled")
		return
	}

	filter := recommendation.LogFilter{
		Asset:   strings.ToUpper(r.URL.Query().Get("asset")),
		BatchID: r.URL.Query().Get("batch_id"),
		Limit:   100,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	entries, err := h.history.List(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recommendation history")
		h.writeError(w, http.StatusInternalServerError, domain.StatusError, "failed to list recommendation history")
		return
	}
	if entries == nil {
		entries = []recommendation.LogEntry{}
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleIndicators handles GET /api/indicators/{symbol}
func (h *Handler) HandleIndicators(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "symbol is required")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			h.writeError(w, http.StatusNotFound, domain.StatusNoData, err.Error())
			return
		}
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to analyze symbol")
		h.writeError(w, http.StatusBadGateway, domain.StatusError, "market data unavailable")
		return
	}

	h.writeData(w, http.StatusOK, analysis)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, status domain.Status, message string) {
	h.writeJSON(w, code, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeData(w http.ResponseWriter, code int, data interface{}) {
	h.writeJSON(w, code, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
