package ledger

import (
	"errors"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		"expected %s, got %s", expected, actual.String())
}

func buy(amount, price float64, date string) domain.Transaction {
	return testingpkg.Tx("binance", "BTC", domain.TransactionTypeBuy, amount, price, date)
}

func sell(amount, price float64, date string) domain.Transaction {
	return testingpkg.Tx("binance", "BTC", domain.TransactionTypeSell, amount, price, date)
}

func TestReplay_BTCScenario(t *testing.T) {
	txs := []domain.Transaction{
		buy(1, 10000, "2024-01-01"),
		buy(1, 20000, "2024-02-01"),
		sell(1.5, 30000, "2024-03-01"),
	}

	l, err := Replay("binance", "BTC", txs)
	require.NoError(t, err)

	assertDecimal(t, "25000", l.RealizedPNL())
	assertDecimal(t, "0.5", l.RemainingAmount())
	assertDecimal(t, "10000", l.CostBasis())

	lots := l.Lots()
	require.Len(t, lots, 1)
	assertDecimal(t, "20000", lots[0].PriceUSD)
	assertDecimal(t, "1", lots[0].OriginalAmount)

	matches := l.Matches()
	require.Len(t, matches, 2)
	assertDecimal(t, "1", matches[0].Amount)
	assertDecimal(t, "20000", matches[0].RealizedPNL)
	assertDecimal(t, "0.5", matches[1].Amount)
	assertDecimal(t, "5000", matches[1].RealizedPNL)
}

func TestReplay_SortsByDate(t *testing.T) {
	txs := []domain.Transaction{
		sell(1.5, 30000, "2024-03-01"),
		buy(1, 20000, "2024-02-01"),
		buy(1, 10000, "2024-01-01"),
	}

	l, err := Replay("binance", "BTC", txs)
	require.NoError(t, err)
	assertDecimal(t, "25000", l.RealizedPNL())
}

func TestReplay_ConsumesLotsInOrder(t *testing.T) {
	txs := []domain.Transaction{
		buy(1, 100, "2024-01-01"),
		buy(2, 200, "2024-01-02"),
		buy(3, 300, "2024-01-03"),
		sell(2.5, 400, "2024-01-04"),
	}

	l, err := Replay("binance", "BTC", txs)
	require.NoError(t, err)

	matches := l.Matches()
	require.Len(t, matches, 2)
	assertDecimal(t, "100", matches[0].LotPrice)
	assertDecimal(t, "1", matches[0].Amount)
	assertDecimal(t, "200", matches[1].LotPrice)
	assertDecimal(t, "1.5", matches[1].Amount)

	// (400-100)*1 + (400-200)*1.5
	assertDecimal(t, "600", l.RealizedPNL())

	lots := l.Lots()
	require.Len(t, lots, 2)
	assertDecimal(t, "0.5", lots[0].Amount)
	assertDecimal(t, "3", lots[1].Amount)
}

func TestReplay_FullLotRemovedOnExactMatch(t *testing.T) {
	l, err := Replay("binance", "BTC", []domain.Transaction{
		buy(1, 100, "2024-01-01"),
		sell(1, 120, "2024-01-02"),
	})
	require.NoError(t, err)

	assert.Empty(t, l.Lots())
	assertDecimal(t, "0", l.RemainingAmount())
	assertDecimal(t, "20", l.RealizedPNL())
}

func TestReplay_Commissions(t *testing.T) {
	b := buy(2, 100, "2024-01-01")
	b.Commission = 2
	s := sell(1, 150, "2024-01-02")
	s.Commission = 1

	l, err := Replay("binance", "BTC", []domain.Transaction{b, s})
	require.NoError(t, err)

	// 150 - 100 - 1 (full sell commission) - 1 (half of buy commission)
	assertDecimal(t, "48", l.RealizedPNL())
	// remaining 1 @ 100 plus the other half of the buy commission
	assertDecimal(t, "101", l.CostBasis())
}

func TestReplay_OversellRejected(t *testing.T) {
	l := NewLedger("binance", "BTC")
	require.NoError(t, l.Apply(buy(1, 100, "2024-01-01")))

	err := l.Apply(sell(2, 150, "2024-01-02"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientLots))

	var lotsErr *InsufficientLotsError
	require.True(t, errors.As(err, &lotsErr))
	assertDecimal(t, "2", lotsErr.Requested)
	assertDecimal(t, "1", lotsErr.Available)
	assert.Contains(t, lotsErr.Error(), "BTC")

	// ledger untouched
	assertDecimal(t, "1", l.RemainingAmount())
	assertDecimal(t, "0", l.RealizedPNL())
	assert.Empty(t, l.Matches())
}

func TestReplay_RemainingNeverNegative(t *testing.T) {
	txs := []domain.Transaction{
		buy(0.1, 100, "2024-01-01"),
		buy(0.2, 110, "2024-01-02"),
		sell(0.15, 120, "2024-01-03"),
		buy(0.7, 90, "2024-01-04"),
		sell(0.3, 95, "2024-01-05"),
		sell(0.55, 130, "2024-01-06"),
	}

	l := NewLedger("binance", "BTC")
	for _, tx := range txs {
		require.NoError(t, l.Apply(tx))
		for _, lot := range l.Lots() {
			assert.False(t, lot.Amount.IsNegative())
		}
		assert.False(t, l.CostBasis().IsNegative())
	}
	assertDecimal(t, "0", l.RemainingAmount())
}

func TestReplayAll_GroupsPairs(t *testing.T) {
	txs := []domain.Transaction{
		buy(1, 100, "2024-01-01"),
		testingpkg.Tx("kraken", "ETH", domain.TransactionTypeBuy, 2, 10, "2024-01-01"),
		sell(1, 150, "2024-01-02"),
		testingpkg.Tx("kraken", "ETH", domain.TransactionTypeSell, 1, 5, "2024-01-03"),
	}

	ledgers, err := ReplayAll(txs)
	require.NoError(t, err)
	require.Len(t, ledgers, 2)

	assert.Equal(t, "binance", ledgers[0].Exchange())
	assertDecimal(t, "50", ledgers[0].RealizedPNL())
	assert.Equal(t, "ETH", ledgers[1].Asset())
	assertDecimal(t, "-5", ledgers[1].RealizedPNL())
}

func TestApply_UnknownType(t *testing.T) {
	l := NewLedger("binance", "BTC")
	err := l.Apply(domain.Transaction{Type: "transfer", Amount: 1, PriceUSD: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidTransaction)
}
