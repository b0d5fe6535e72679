// Package yahoo serves market history from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// DefaultOverrides maps bare crypto tickers to their Yahoo USD pairs
var DefaultOverrides = map[string]string{
	"BTC":   "BTC-USD",
	"ETH":   "ETH-USD",
	"SOL":   "SOL-USD",
	"BNB":   "BNB-USD",
	"XRP":   "XRP-USD",
	"ADA":   "ADA-USD",
	"DOGE":  "DOGE-USD",
	"DOT":   "DOT-USD",
	"AVAX":  "AVAX-USD",
	"LINK":  "LINK-USD",
	"LTC":   "LTC-USD",
	"MATIC": "MATIC-USD",
	"USDT":  "USDT-USD",
	"USDC":  "USDC-USD",
	"DAI":   "DAI-USD",
}

type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Client implements domain.MarketDataProvider on top of go-yfinance
type Client struct {
	overrides map[string]string
	history   historyFunc
	log       zerolog.Logger
}

// NewClient creates a Yahoo client. overrides extend DefaultOverrides.
func NewClient(overrides map[string]string, log zerolog.Logger) *Client {
	merged := make(map[string]string, len(DefaultOverrides)+len(overrides))
	for k, v := range DefaultOverrides {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[strings.ToUpper(k)] = v
	}
	return &Client{
		overrides: merged,
		history:   fetchHistory,
		log:       log.With().Str("client", "yahoo").Logger(),
	}
}

// YahooSymbol resolves the ticker Yahoo knows symbol by
func (c *Client) YahooSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if override, ok := c.overrides[symbol]; ok {
		return override
	}
	return symbol
}

// GetHistory implements domain.MarketDataProvider. The go-yfinance call is
// not cancellable, so it runs in a goroutine and ctx bounds the wait.
func (c *Client) GetHistory(ctx context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	interval := req.ResolvedInterval()
	yahooSymbol := c.YahooSymbol(req.Symbol)
	params := models.HistoryParams{
		Period:     PeriodForHorizon(req.HorizonDays),
		Interval:   string(interval),
		AutoAdjust: true,
	}

	type outcome struct {
		bars []models.Bar
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("yahoo history panicked: %v", r)}
			}
		}()
		bars, err := c.history(yahooSymbol, params)
		done <- outcome{bars: bars, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, interval, fmt.Errorf("yahoo history for %s: %w", yahooSymbol, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, interval, fmt.Errorf("failed to get history for %s: %w", yahooSymbol, res.err)
		}
		bars := convert(res.bars)
		c.log.Debug().
			Str("symbol", req.Symbol).
			Str("yahoo_symbol", yahooSymbol).
			Str("period", params.Period).
			Str("interval", params.Interval).
			Int("bars", len(bars)).
			Msg("Fetched history")
		return bars, interval, nil
	}
}

// PeriodForHorizon maps a horizon in days to the smallest Yahoo period covering it
func PeriodForHorizon(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	case days <= 3650:
		return "10y"
	default:
		return "max"
	}
}

// convert drops rows without a usable close and sorts ascending
func convert(in []models.Bar) []domain.Bar {
	out := make([]domain.Bar, 0, len(in))
	for _, b := range in {
		if b.Close <= 0 || math.IsNaN(b.Close) || b.Date.IsZero() {
			continue
		}
		out = append(out, domain.Bar{
			Date:   b.Date.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func fetchHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	return t.History(params)
}
