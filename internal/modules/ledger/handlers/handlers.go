// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles ledger HTTP requests
type Handler struct {
	repo *ledger.TransactionRepository
	pnl  *ledger.PNLService
	log  zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	repo *ledger.TransactionRepository,
	pnl *ledger.PNLService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		repo: repo,
		pnl:  pnl,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

// TransactionInput is the JSON accepted by POST /api/transactions
type TransactionInput struct {
	Exchange   string  `json:"exchange"`
	Asset      string  `json:"asset"`
	Type       string  `json:"type"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	PriceUSD   float64 `json:"price_usd"`
	Commission float64 `json:"commission"`
}

func (in TransactionInput) toDomain() (domain.Transaction, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.Transaction{}, err
	}
	typ, err := domain.ParseTransactionType(in.Type)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		Exchange:   in.Exchange,
		Asset:      in.Asset,
		Type:       typ,
		Date:       date,
		Amount:     in.Amount,
		PriceUSD:   in.PriceUSD,
		Commission: in.Commission,
	}, nil
}

// HandleCreateTransactions handles POST /api/transactions.
// The body is either one transaction or {"transactions": [...]}.
func (h *Handler) HandleCreateTransactions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TransactionInput
		Transactions []TransactionInput `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "invalid JSON body")
		return
	}

	inputs := body.Transactions
	if len(inputs) == 0 {
		inputs = []TransactionInput{body.TransactionInput}
	}

	txs := make([]domain.Transaction, 0, len(inputs))
	for _, in := range inputs {
		tx, err := in.toDomain()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, err.Error())
			return
		}
		txs = append(txs, tx)
	}

	ids, err := h.repo.CreateMany(r.Context(), txs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransaction) || errors.Is(err, ledger.ErrInsufficientLots) {
			h.writeError(w, http.StatusUnprocessableEntity, domain.StatusInvalidInput, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to store transactions")
		h.writeError(w, http.StatusInternalServerError, domain.StatusError, "failed to store transactions")
		return
	}

	h.writeData(w, http.StatusCreated, map[string]interface{}{
		"ids":   ids,
		"count": len(ids),
	})
}

// HandleListTransactions handles GET /api/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := ledger.TransactionFilter{
		Exchange: r.URL.Query().Get("exchange"),
		Asset:    r.URL.Query().Get("asset"),
		Limit:    100,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	txs, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, domain.StatusError, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// HandleGetPNL handles GET /api/pnl/{exchange}/{asset}?price=&amount=
func (h *Handler) HandleGetPNL(w http.ResponseWriter, r *http.Request) {
	price, err := strconv.ParseFloat(r.URL.Query().Get("price"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "price query parameter is required")
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "amount query parameter is required")
		return
	}

	report := h.pnl.ReportPNL(r.Context(), chi.URLParam(r, "exchange"), chi.URLParam(r, "asset"), price, amount)
	h.writeReport(w, report)
}

// HandlePortfolioPNL handles POST /api/pnl/portfolio
func (h *Handler) HandlePortfolioPNL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Balances []domain.Balance `json:"balances"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.StatusInvalidInput, "invalid JSON body")
		return
	}

	h.writeReport(w, h.pnl.ReportPortfolio(r.Context(), body.Balances))
}

// HandleRealizedPNL handles GET /api/pnl/realized
func (h *Handler) HandleRealizedPNL(w http.ResponseWriter, r *http.Request) {
	h.writeReport(w, h.pnl.ReportRealized(r.Context()))
}

func (h *Handler) writeReport(w http.ResponseWriter, report ledger.Report) {
	status := http.StatusOK
	switch report.Status {
	case domain.StatusInvalidInput:
		status = http.StatusBadRequest
	case domain.StatusError:
		status = http.StatusInternalServerError
	}
	h.writeData(w, status, report)
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

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
