package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		Exchange: "binance",
		Asset:    "BTC",
		Type:     TransactionTypeBuy,
		Amount:   1,
		PriceUSD: 20000,
		Date:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Transaction) {}},
		{name: "missing exchange", mutate: func(tx *Transaction) { tx.Exchange = " " }, wantErr: true},
		{name: "missing asset", mutate: func(tx *Transaction) { tx.Asset = "" }, wantErr: true},
		{name: "unknown type", mutate: func(tx *Transaction) { tx.Type = "hold" }, wantErr: true},
		{name: "zero amount", mutate: func(tx *Transaction) { tx.Amount = 0 }, wantErr: true},
		{name: "negative price", mutate: func(tx *Transaction) { tx.PriceUSD = -1 }, wantErr: true},
		{name: "negative commission", mutate: func(tx *Transaction) { tx.Commission = -0.1 }, wantErr: true},
		{name: "zero date", mutate: func(tx *Transaction) { tx.Date = time.Time{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTransaction))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	typ, err := ParseTransactionType(" BUY ")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeBuy, typ)

	typ, err = ParseTransactionType("Sell")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeSell, typ)

	_, err = ParseTransactionType("transfer")
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2023-03-15T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 15, 8, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("15/03/2023")
	assert.Error(t, err)
}

func TestIntervalForHorizon(t *testing.T) {
	tests := []struct {
		days     int
		expected Interval
	}{
		{days: 1, expected: IntervalHour},
		{days: 7, expected: IntervalHour},
		{days: 8, expected: IntervalDay},
		{days: 365, expected: IntervalDay},
		{days: 730, expected: IntervalDay},
		{days: 731, expected: IntervalWeek},
		{days: 1825, expected: IntervalWeek},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, tt.expected, IntervalForHorizon(tt.days))
		})
	}
}

func TestHistoryRequestResolvedInterval(t *testing.T) {
	assert.Equal(t, IntervalWeek, HistoryRequest{HorizonDays: 30, Interval: IntervalWeek}.ResolvedInterval())
	assert.Equal(t, IntervalDay, HistoryRequest{HorizonDays: 30}.ResolvedInterval())
}

func TestBarsSeries(t *testing.T) {
	bars := Bars{
		{Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 100},
		{Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 200},
	}

	assert.Equal(t, []float64{1, 2}, bars.Opens())
	assert.Equal(t, []float64{3, 4}, bars.Highs())
	assert.Equal(t, []float64{0.5, 1.5}, bars.Lows())
	assert.Equal(t, []float64{2, 3}, bars.Closes())
	assert.Equal(t, []float64{100, 200}, bars.Volumes())
}
