package backtest

import (
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// Strategy names accepted by Run
const (
	StrategyBuyAndHold         = "buy_and_hold"
	StrategyFollowAI           = "follow_ai"
	StrategyHighConfidence     = "high_confidence"
	StrategyWeightedAllocation = "weighted_allocation"
)

// DefaultSignalThreshold is the |signal| a follow_ai trade needs when the
// request leaves it unset.
const DefaultSignalThreshold = 20.0

// HighConfidenceSignal is the fixed |signal| cut used by high_confidence
const HighConfidenceSignal = 50.0

// PeriodsPerYear annualises weekly metrics
const PeriodsPerYear = 52

// Request describes one backtest run
type Request struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	InitialCapital  float64   `json:"initial_capital"`
	Symbols         []string  `json:"symbols"`
	Strategy        string    `json:"strategy"`
	SignalThreshold float64   `json:"signal_threshold"`
}

// EquityPoint is the portfolio value at one timeline date
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Trade is one executed order
type Trade struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	Action string    `json:"action"`
	Shares float64   `json:"shares"`
	Price  float64   `json:"price"`
}

// Metrics summarises a finished run
type Metrics struct {
	TotalReturn      float64 `json:"total_return"`
	Sharpe           float64 `json:"sharpe"` // per weekly period, not annualised
	AnnualizedSharpe float64 `json:"annualized_sharpe"`
	CAGR             float64 `json:"cagr"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	TotalTrades      int     `json:"total_trades"`
	FinalValue       float64 `json:"final_value"`
}

// Result is the outcome of Run
type Result struct {
	RunID          string        `json:"run_id"`
	Status         domain.Status `json:"status"`
	Message        string        `json:"message,omitempty"`
	Strategy       string        `json:"strategy"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	InitialCapital float64       `json:"initial_capital"`
	Symbols        []string      `json:"symbols"`
	DroppedSymbols []string      `json:"dropped_symbols"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	TradeHistory   []Trade       `json:"trade_history"`
	Metrics        *Metrics      `json:"metrics,omitempty"`
}

// Step is the portfolio state a strategy sees at one timeline date.
// Prices holds the carried-forward close of every symbol that has traded
// by Date; Positions holds share counts.
type Step struct {
	Index     int
	Date      time.Time
	Symbols   []string
	Prices    map[string]float64
	Positions map[string]float64
	Cash      float64
}

// Value is cash plus the marked-to-market positions
func (s Step) Value() float64 {
	total := s.Cash
	for symbol, shares := range s.Positions {
		total += shares * s.Prices[symbol]
	}
	return total
}

// Holdings returns each symbol's share of the portfolio value
func (s Step) Holdings() map[string]float64 {
	out := make(map[string]float64, len(s.Symbols))
	value := s.Value()
	for _, symbol := range s.Symbols {
		if value > 0 {
			out[symbol] = s.Positions[symbol] * s.Prices[symbol] / value
		} else {
			out[symbol] = 0
		}
	}
	return out
}

// TradeIntent is a strategy's wish for one symbol. Sells liquidate the
// whole position; buys share the available cash by Weight.
type TradeIntent struct {
	Symbol string
	Action string
	Weight float64
}
