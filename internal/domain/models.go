// Package domain provides core domain models and types.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTransaction is returned when a transaction fails validation
var ErrInvalidTransaction = errors.New("invalid transaction")

// ErrNoData is returned by market data providers when no bars are available
var ErrNoData = errors.New("no market data")

// TransactionType represents the side of a transaction
type TransactionType string

const (
	// TransactionTypeBuy adds a lot to the ledger
	TransactionTypeBuy TransactionType = "buy"
	// TransactionTypeSell consumes lots from the ledger
	TransactionTypeSell TransactionType = "sell"
)

// ParseTransactionType normalises a side string ("BUY", "sell", ...)
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionTypeBuy:
		return TransactionTypeBuy, nil
	case TransactionTypeSell:
		return TransactionTypeSell, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, s)
}

// Transaction represents a single buy or sell of an asset on an exchange.
// Transactions are immutable once stored.
type Transaction struct {
	Date       time.Time       `json:"date"`
	Exchange   string          `json:"exchange"`
	Asset      string          `json:"asset"`
	Type       TransactionType `json:"type"`
	ID         int64           `json:"id"`
	Amount     float64         `json:"amount"`
	PriceUSD   float64         `json:"price_usd"`
	Commission float64         `json:"commission"`
}

// Validate checks the invariants every stored transaction must hold
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Exchange) == "" {
		return fmt.Errorf("%w: exchange is required", ErrInvalidTransaction)
	}
	if strings.TrimSpace(t.Asset) == "" {
		return fmt.Errorf("%w: asset is required", ErrInvalidTransaction)
	}
	if t.Type != TransactionTypeBuy && t.Type != TransactionTypeSell {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if t.PriceUSD <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidTransaction)
	}
	if t.Commission < 0 {
		return fmt.Errorf("%w: commission must not be negative", ErrInvalidTransaction)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidTransaction)
	}
	return nil
}

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates (UTC)
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("malformed date %q", s)
}

// Balance is a holding reported by an exchange account
type Balance struct {
	Exchange  string  `json:"exchange"`
	Asset     string  `json:"asset"`
	Amount    float64 `json:"amount"`
	ValueUSDT float64 `json:"value_usdt"`
}

// Interval is the bar granularity of a price series
type Interval string

const (
	IntervalHour Interval = "1h"
	IntervalDay  Interval = "1d"
	IntervalWeek Interval = "1wk"
)

// IntervalForHorizon picks the bar size for a history horizon:
// hourly up to a week, daily up to two years, weekly beyond.
func IntervalForHorizon(days int) Interval {
	switch {
	case days <= 7:
		return IntervalHour
	case days <= 730:
		return IntervalDay
	default:
		return IntervalWeek
	}
}

// Bar is one OHLCV candle
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Bars is an ascending-by-date series of candles
type Bars []Bar

func (b Bars) series(pick func(Bar) float64) []float64 {
	out := make([]float64, len(b))
	for i, bar := range b {
		out[i] = pick(bar)
	}
	return out
}

func (b Bars) Opens() []float64   { return b.series(func(x Bar) float64 { return x.Open }) }
func (b Bars) Highs() []float64   { return b.series(func(x Bar) float64 { return x.High }) }
func (b Bars) Lows() []float64    { return b.series(func(x Bar) float64 { return x.Low }) }
func (b Bars) Closes() []float64  { return b.series(func(x Bar) float64 { return x.Close }) }
func (b Bars) Volumes() []float64 { return b.series(func(x Bar) float64 { return x.Volume }) }

// HistoryRequest asks a provider for bars covering HorizonDays back from now.
// A zero Interval lets the provider choose via IntervalForHorizon.
type HistoryRequest struct {
	Symbol      string   `json:"symbol"`
	Interval    Interval `json:"interval"`
	HorizonDays int      `json:"horizon_days"`
}

// ResolvedInterval returns the requested interval or the horizon default
func (r HistoryRequest) ResolvedInterval() Interval {
	if r.Interval != "" {
		return r.Interval
	}
	return IntervalForHorizon(r.HorizonDays)
}

// Signal is the direction an indicator or pattern votes for
type Signal string

const (
	SignalBuy     Signal = "buy"
	SignalSell    Signal = "sell"
	SignalNeutral Signal = "neutral"
)

// Status is the outcome reported by the public entry points
type Status string

const (
	StatusSuccess      Status = "success"
	StatusInvalidInput Status = "invalid_input"
	StatusInvalidDates Status = "invalid_dates"
	StatusNoData       Status = "no_data"
	StatusError        Status = "error"
)
