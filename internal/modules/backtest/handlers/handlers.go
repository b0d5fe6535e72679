// Package handlers provides HTTP handlers for backtests.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/rs/zerolog"
)

// Handler handles backtest HTTP requests
type Handler struct {
	engine *backtest.Engine
	log    zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(engine *backtest.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "backtest").Logger(),
	}
}

// RunRequest is the JSON accepted by POST /api/backtest
type RunRequest struct {
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	InitialCapital  float64  `json:"initial_capital"`
	Symbols         []string `json:"symbols"`
	Strategy        string   `json:"strategy"`
	SignalThreshold float64  `json:"signal_threshold"`
}

// HandleRun handles POST /api/backtest
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "invalid JSON body")
		return
	}

	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidDates, "invalid start_date: "+err.Error())
		return
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidDates, "invalid end_date: "+err.Error())
		return
	}

	result := h.engine.Run(r.Context(), backtest.Request{
		StartDate:       start,
		EndDate:         end,
		InitialCapital:  req.InitialCapital,
		Symbols:         req.Symbols,
		Strategy:        req.Strategy,
		SignalThreshold: req.SignalThreshold,
	})

	status := http.StatusOK
	switch result.Status {
	case domain.StatusInvalidInput, domain.StatusInvalidDates:
		status = http.StatusBadRequest
	case domain.StatusError:
		h.log.Error().Str("run_id", result.RunID).Str("message", result.Message).Msg("Backtest failed")
		status = http.StatusInternalServerError
	}
	h.writeData(w, status, result)
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
