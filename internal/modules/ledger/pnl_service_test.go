package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	testingpkg "github.com/aristath/advisor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func btcScenarioStore() *testingpkg.MockTransactionStore {
	return testingpkg.NewMockTransactionStore(
		buy(1, 10000, "2024-01-01"),
		buy(1, 20000, "2024-02-01"),
		sell(1.5, 30000, "2024-03-01"),
	)
}

func newTestService(store domain.TransactionStore) *PNLService {
	return NewPNLService(store, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestCalculatePNL_BTCScenario(t *testing.T) {
	service := newTestService(btcScenarioStore())

	result, err := service.CalculatePNL(context.Background(), "binance", "BTC", 30000, 0.5)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 10000.0, result.Invested)
	assert.Equal(t, 25000.0, result.RealizedPNL)
	assert.Equal(t, 5000.0, result.UnrealizedPNL)
	assert.Equal(t, 30000.0, result.PNL)
	assert.Equal(t, 50.0, result.PNLPercent)
	assert.Equal(t, PNLStatusProfit, result.Status)
}

func TestCalculatePNL_NoTransactions(t *testing.T) {
	service := newTestService(testingpkg.NewMockTransactionStore())

	result, err := service.CalculatePNL(context.Background(), "binance", "BTC", 30000, 1)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCalculatePNL_FullySold(t *testing.T) {
	service := newTestService(testingpkg.NewMockTransactionStore(
		buy(1, 100, "2024-01-01"),
		sell(1, 150, "2024-01-02"),
	))

	result, err := service.CalculatePNL(context.Background(), "binance", "BTC", 200, 0)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCalculatePNL_StoreError(t *testing.T) {
	store := testingpkg.NewMockTransactionStore()
	store.SetError(errors.New("db down"))
	service := newTestService(store)

	_, err := service.CalculatePNL(context.Background(), "binance", "BTC", 1, 1)
	assert.Error(t, err)
}

func TestCalculatePNL_PercentSignMatchesUnrealized(t *testing.T) {
	service := newTestService(btcScenarioStore())

	tests := []struct {
		name   string
		price  float64
		status PNLStatus
	}{
		{name: "above cost", price: 25000, status: PNLStatusProfit},
		{name: "at cost", price: 20000, status: PNLStatusProfit},
		{name: "below cost", price: 15000, status: PNLStatusProfit},
		{name: "far below cost", price: 1000, status: PNLStatusProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.CalculatePNL(context.Background(), "binance", "BTC", tt.price, 0.5)
			require.NoError(t, err)
			require.NotNil(t, result)

			switch {
			case result.UnrealizedPNL > 0:
				assert.Greater(t, result.PNLPercent, 0.0)
			case result.UnrealizedPNL < 0:
				assert.Less(t, result.PNLPercent, 0.0)
			default:
				assert.Equal(t, 0.0, result.PNLPercent)
			}
			// realized 25000 dominates any unrealized loss on 0.5 BTC
			assert.Equal(t, tt.status, result.Status)
		})
	}
}

func TestCalculatePNL_LossAndBreakEven(t *testing.T) {
	service := newTestService(testingpkg.NewMockTransactionStore(buy(2, 100, "2024-01-01")))
	ctx := context.Background()

	loss, err := service.CalculatePNL(ctx, "binance", "BTC", 50, 2)
	require.NoError(t, err)
	assert.Equal(t, PNLStatusLoss, loss.Status)
	assert.Equal(t, -100.0, loss.UnrealizedPNL)
	assert.Equal(t, -50.0, loss.PNLPercent)

	even, err := service.CalculatePNL(ctx, "binance", "BTC", 100, 2)
	require.NoError(t, err)
	assert.Equal(t, PNLStatusBreakEven, even.Status)
	assert.Equal(t, 0.0, even.PNLPercent)
}

func TestCalculatePNL_Idempotent(t *testing.T) {
	service := newTestService(btcScenarioStore())
	ctx := context.Background()

	first, err := service.CalculatePNL(ctx, "binance", "BTC", 31234.5, 0.5)
	require.NoError(t, err)
	second, err := service.CalculatePNL(ctx, "binance", "BTC", 31234.5, 0.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetAllPNL(t *testing.T) {
	store := btcScenarioStore()
	store.Add(testingpkg.Tx("kraken", "ETH", domain.TransactionTypeBuy, 2, 1000, "2024-01-01"))
	service := newTestService(store)

	balances := []domain.Balance{
		{Exchange: "binance", Asset: "BTC", Amount: 0.5, ValueUSDT: 15000},
		{Exchange: "kraken", Asset: "ETH", Amount: 2, ValueUSDT: 3000},
		{Exchange: "kraken", Asset: "DOGE", Amount: 0, ValueUSDT: 10},
		{Exchange: "kraken", Asset: "SOL", Amount: 3, ValueUSDT: 0},
		{Exchange: "kraken", Asset: "ADA", Amount: 10, ValueUSDT: 5},
	}

	summary, err := service.GetAllPNL(context.Background(), balances)
	require.NoError(t, err)
	require.Len(t, summary.Positions, 2)

	assert.Equal(t, 30000.0, summary.Positions[0].CurrentPrice)
	assert.Equal(t, 1500.0, summary.Positions[1].CurrentPrice)
	assert.Equal(t, 12000.0, summary.TotalInvested)
	assert.Equal(t, 25000.0, summary.TotalRealized)
	assert.Equal(t, 6000.0, summary.TotalUnrealized)
	assert.Equal(t, 31000.0, summary.TotalPNL)
	assert.InDelta(t, 50.0, summary.TotalPNLPercent, 1e-9)
}

func TestGetTotalRealizedPNL(t *testing.T) {
	store := btcScenarioStore()
	store.Add(
		testingpkg.Tx("kraken", "ETH", domain.TransactionTypeBuy, 2, 1000, "2024-01-01"),
		testingpkg.Tx("kraken", "ETH", domain.TransactionTypeSell, 1, 900, "2024-01-05"),
	)
	service := newTestService(store)

	summary, err := service.GetTotalRealizedPNL(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 24900.0, summary.Total)
	assert.Len(t, summary.Pairs, 2)
}

func TestReports(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		report := newTestService(btcScenarioStore()).ReportPNL(ctx, "binance", "BTC", 30000, 0.5)
		assert.Equal(t, domain.StatusSuccess, report.Status)
		require.NotNil(t, report.PNL)
	})

	t.Run("invalid input", func(t *testing.T) {
		report := newTestService(btcScenarioStore()).ReportPNL(ctx, "", "BTC", 30000, 0.5)
		assert.Equal(t, domain.StatusInvalidInput, report.Status)

		report = newTestService(btcScenarioStore()).ReportPNL(ctx, "binance", "BTC", -1, 0.5)
		assert.Equal(t, domain.StatusInvalidInput, report.Status)
	})

	t.Run("stored oversell", func(t *testing.T) {
		store := testingpkg.NewMockTransactionStore(buy(1, 100, "2024-01-01"), sell(2, 100, "2024-01-02"))
		report := newTestService(store).ReportRealized(ctx)
		assert.Equal(t, domain.StatusInvalidInput, report.Status)
		assert.NotEmpty(t, report.Message)
	})

	t.Run("store failure", func(t *testing.T) {
		store := testingpkg.NewMockTransactionStore()
		store.SetError(errors.New("db down"))
		report := newTestService(store).ReportPortfolio(ctx, []domain.Balance{
			{Exchange: "binance", Asset: "BTC", Amount: 1, ValueUSDT: 1},
		})
		assert.Equal(t, domain.StatusError, report.Status)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		report := NewPNLService(nil, zerolog.New(nil).Level(zerolog.Disabled)).ReportRealized(ctx)
		assert.Equal(t, domain.StatusError, report.Status)
	})
}
