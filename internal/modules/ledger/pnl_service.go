package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// money values are reported with 8 decimal places
const pnlPrecision = 8

// PNLStatus classifies a position by the sign of its total PNL
type PNLStatus string

const (
	PNLStatusProfit    PNLStatus = "profit"
	PNLStatusLoss      PNLStatus = "loss"
	PNLStatusBreakEven PNLStatus = "break_even"
)

// PNLResult is the derived profit and loss of one (exchange, asset) holding
type PNLResult struct {
	Asset         string    `json:"asset"`
	Exchange      string    `json:"exchange"`
	Status        PNLStatus `json:"status"`
	CurrentAmount float64   `json:"current_amount"`
	CurrentPrice  float64   `json:"current_price"`
	Invested      float64   `json:"invested"`
	RealizedPNL   float64   `json:"realized_pnl"`
	UnrealizedPNL float64   `json:"unrealized_pnl"`
	PNL           float64   `json:"pnl"`
	PNLPercent    float64   `json:"pnl_percent"`
}

// PortfolioPNL aggregates the PNL of every balance
type PortfolioPNL struct {
	Positions       []PNLResult `json:"positions"`
	TotalInvested   float64     `json:"total_invested"`
	TotalRealized   float64     `json:"total_realized_pnl"`
	TotalUnrealized float64     `json:"total_unrealized_pnl"`
	TotalPNL        float64     `json:"total_pnl"`
	TotalPNLPercent float64     `json:"total_pnl_percent"`
}

// RealizedEntry is the realized PNL of one (exchange, asset) pair
type RealizedEntry struct {
	Exchange    string  `json:"exchange"`
	Asset       string  `json:"asset"`
	RealizedPNL float64 `json:"realized_pnl"`
}

// RealizedSummary is the realized PNL across the whole transaction history
type RealizedSummary struct {
	Pairs []RealizedEntry `json:"pairs"`
	Total float64         `json:"total"`
}

// PNLService computes PNL from the transaction history and current prices
type PNLService struct {
	store domain.TransactionStore
	log   zerolog.Logger
}

// NewPNLService creates a new PNL service
func NewPNLService(store domain.TransactionStore, log zerolog.Logger) *PNLService {
	return &PNLService{
		store: store,
		log:   log.With().Str("service", "pnl").Logger(),
	}
}

// CalculatePNL returns the PNL of one holding marked at currentPrice.
// Returns nil (and no error) when the pair has no transactions or no open amount.
func (s *PNLService) CalculatePNL(ctx context.Context, exchange, asset string, currentPrice, currentAmount float64) (*PNLResult, error) {
	txs, err := s.store.GetTransactionsForAsset(ctx, exchange, asset)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}

	l, err := Replay(exchange, asset, txs)
	if err != nil {
		return nil, err
	}
	if !l.RemainingAmount().IsPositive() {
		return nil, nil
	}

	invested := l.CostBasis()
	realized := l.RealizedPNL()
	marketValue := decimal.NewFromFloat(currentAmount).Mul(decimal.NewFromFloat(currentPrice))
	unrealized := marketValue.Sub(invested)
	total := realized.Add(unrealized)

	percent := decimal.Zero
	if invested.IsPositive() {
		percent = unrealized.Div(invested).Mul(decimal.NewFromInt(100))
	}

	return &PNLResult{
		Asset:         asset,
		Exchange:      exchange,
		Status:        statusFor(total),
		CurrentAmount: currentAmount,
		CurrentPrice:  currentPrice,
		Invested:      invested.Round(pnlPrecision).InexactFloat64(),
		RealizedPNL:   realized.Round(pnlPrecision).InexactFloat64(),
		UnrealizedPNL: unrealized.Round(pnlPrecision).InexactFloat64(),
		PNL:           total.Round(pnlPrecision).InexactFloat64(),
		PNLPercent:    percent.Round(pnlPrecision).InexactFloat64(),
	}, nil
}

// GetAllPNL calculates PNL for every balance, pricing each one at
// value_usdt / amount. Balances with no amount or no value are skipped.
func (s *PNLService) GetAllPNL(ctx context.Context, balances []domain.Balance) (*PortfolioPNL, error) {
	summary := &PortfolioPNL{Positions: []PNLResult{}}

	for _, b := range balances {
		if b.Amount <= 0 || b.ValueUSDT <= 0 {
			continue
		}

		price := b.ValueUSDT / b.Amount
		result, err := s.CalculatePNL(ctx, b.Exchange, b.Asset, price, b.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate pnl for %s/%s: %w", b.Exchange, b.Asset, err)
		}
		if result == nil {
			continue
		}

		summary.Positions = append(summary.Positions, *result)
		summary.TotalInvested += result.Invested
		summary.TotalRealized += result.RealizedPNL
		summary.TotalUnrealized += result.UnrealizedPNL
		summary.TotalPNL += result.PNL
	}

	if summary.TotalInvested > 0 {
		summary.TotalPNLPercent = summary.TotalUnrealized / summary.TotalInvested * 100
	}

	return summary, nil
}

// GetTotalRealizedPNL replays every pair and sums the realized PNL
func (s *PNLService) GetTotalRealizedPNL(ctx context.Context) (*RealizedSummary, error) {
	txs, err := s.store.GetAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	ledgers, err := ReplayAll(txs)
	if err != nil {
		return nil, err
	}

	summary := &RealizedSummary{Pairs: make([]RealizedEntry, 0, len(ledgers))}
	total := decimal.Zero
	for _, l := range ledgers {
		realized := l.RealizedPNL()
		total = total.Add(realized)
		summary.Pairs = append(summary.Pairs, RealizedEntry{
			Exchange:    l.Exchange(),
			Asset:       l.Asset(),
			RealizedPNL: realized.Round(pnlPrecision).InexactFloat64(),
		})
	}
	summary.Total = total.Round(pnlPrecision).InexactFloat64()

	return summary, nil
}

func statusFor(pnl decimal.Decimal) PNLStatus {
	switch pnl.Sign() {
	case 1:
		return PNLStatusProfit
	case -1:
		return PNLStatusLoss
	default:
		return PNLStatusBreakEven
	}
}

// Report is the envelope returned by the public PNL entry points
type Report struct {
	Status    domain.Status    `json:"status"`
	Message   string           `json:"message,omitempty"`
	PNL       *PNLResult       `json:"pnl,omitempty"`
	Portfolio *PortfolioPNL    `json:"portfolio,omitempty"`
	Realized  *RealizedSummary `json:"realized,omitempty"`
}

// ReportPNL wraps CalculatePNL for callers that need a status instead of an error
func (s *PNLService) ReportPNL(ctx context.Context, exchange, asset string, currentPrice, currentAmount float64) (report Report) {
	defer s.recoverInto(&report)

	if strings.TrimSpace(exchange) == "" || strings.TrimSpace(asset) == "" {
		return Report{Status: domain.StatusInvalidInput, Message: "exchange and asset are required"}
	}
	if currentPrice < 0 || currentAmount < 0 {
		return Report{Status: domain.StatusInvalidInput, Message: "price and amount must not be negative"}
	}

	result, err := s.CalculatePNL(ctx, exchange, asset, currentPrice, currentAmount)
	if err != nil {
		return s.errorReport(err)
	}
	return Report{Status: domain.StatusSuccess, PNL: result}
}

// ReportPortfolio wraps GetAllPNL
func (s *PNLService) ReportPortfolio(ctx context.Context, balances []domain.Balance) (report Report) {
	defer s.recoverInto(&report)

	summary, err := s.GetAllPNL(ctx, balances)
	if err != nil {
		return s.errorReport(err)
	}
	return Report{Status: domain.StatusSuccess, Portfolio: summary}
}

// ReportRealized wraps GetTotalRealizedPNL
func (s *PNLService) ReportRealized(ctx context.Context) (report Report) {
	defer s.recoverInto(&report)

	summary, err := s.GetTotalRealizedPNL(ctx)
	if err != nil {
		return s.errorReport(err)
	}
	return Report{Status: domain.StatusSuccess, Realized: summary}
}

func (s *PNLService) errorReport(err error) Report {
	if errors.Is(err, ErrInsufficientLots) {
		s.log.Warn().Err(err).Msg("Stored history oversells a pair")
		return Report{Status: domain.StatusInvalidInput, Message: err.Error()}
	}
	s.log.Error().Err(err).Msg("PNL calculation failed")
	return Report{Status: domain.StatusError, Message: err.Error()}
}

func (s *PNLService) recoverInto(report *Report) {
	if r := recover(); r != nil {
		s.log.Error().Interface("panic", r).Msg("PNL calculation panicked")
		*report = Report{Status: domain.StatusError, Message: fmt.Sprintf("%v", r)}
	}
}
