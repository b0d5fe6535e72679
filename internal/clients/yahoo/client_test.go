package yahoo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnjoon/go-yfinance/pkg/models"
)

func newTestClient(fn historyFunc) *Client {
	c := NewClient(map[string]string{"xau": "GC=F"}, zerolog.New(nil).Level(zerolog.Disabled))
	c.history = fn
	return c
}

func TestYahooSymbol(t *testing.T) {
	c := newTestClient(nil)

	tests := []struct {
		symbol   string
		expected string
	}{
		{symbol: "btc", expected: "BTC-USD"},
		{symbol: "ETH", expected: "ETH-USD"},
		{symbol: "XAU", expected: "GC=F"},
		{symbol: "AAPL", expected: "AAPL"},
		{symbol: " msft ", expected: "MSFT"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.YahooSymbol(tt.symbol))
		})
	}
}

func TestPeriodForHorizon(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{days: 1, expected: "5d"},
		{days: 30, expected: "1mo"},
		{days: 60, expected: "3mo"},
		{days: 180, expected: "6mo"},
		{days: 365, expected: "1y"},
		{days: 366, expected: "2y"},
		{days: 1825, expected: "5y"},
		{days: 3000, expected: "10y"},
		{days: 9000, expected: "max"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, PeriodForHorizon(tt.days))
		})
	}
}

func TestGetHistory(t *testing.T) {
	d0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	var gotSymbol string
	var gotParams models.HistoryParams
	c := newTestClient(func(symbol string, params models.HistoryParams) ([]models.Bar, error) {
		gotSymbol = symbol
		gotParams = params
		return []models.Bar{
			{Date: d0.AddDate(0, 0, 7), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 20},
			{Date: d0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
			{Date: d0.AddDate(0, 0, 14), Close: 0},
		}, nil
	})

	bars, interval, err := c.GetHistory(context.Background(), domain.HistoryRequest{Symbol: "BTC", HorizonDays: 1825})
	require.NoError(t, err)

	assert.Equal(t, domain.IntervalWeek, interval)
	assert.Equal(t, "BTC-USD", gotSymbol)
	assert.Equal(t, models.HistoryParams{Period: "5y", Interval: "1wk", AutoAdjust: true}, gotParams)
	assert.Equal(t, []domain.Bar{
		{Date: d0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Date: d0.AddDate(0, 0, 7), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}, bars)
}

func TestGetHistory_Errors(t *testing.T) {
	c := newTestClient(func(string, models.HistoryParams) ([]models.Bar, error) {
		return nil, errors.New("rate limited")
	})
	_, _, err := c.GetHistory(context.Background(), domain.HistoryRequest{Symbol: "AAPL", Interval: domain.IntervalDay})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	c = newTestClient(func(string, models.HistoryParams) ([]models.Bar, error) {
		panic("decode failure")
	})
	_, _, err = c.GetHistory(context.Background(), domain.HistoryRequest{Symbol: "AAPL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestGetHistory_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(func(string, models.HistoryParams) ([]models.Bar, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := c.GetHistory(ctx, domain.HistoryRequest{Symbol: "AAPL"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
