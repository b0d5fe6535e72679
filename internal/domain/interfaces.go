package domain

import "context"

// TransactionStore provides read access to the transaction history.
// Implementations return transactions in any order; consumers sort before replay.
type TransactionStore interface {
	GetTransactionsForAsset(ctx context.Context, exchange, asset string) ([]Transaction, error)
	GetAllTransactions(ctx context.Context) ([]Transaction, error)
}

// MarketDataProvider returns OHLCV history for a symbol.
// It returns the bars (ascending by date) and the interval actually served.
// An empty slice with a nil error means the symbol is known but has no data.
type MarketDataProvider interface {
	GetHistory(ctx context.Context, req HistoryRequest) ([]Bar, Interval, error)
}
