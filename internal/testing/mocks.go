package testing

import (
	"context"
	"sync"

	"github.com/aristath/advisor/internal/domain"
)

// MockTransactionStore is an in-memory domain.TransactionStore
type MockTransactionStore struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	err          error
}

// NewMockTransactionStore creates a store holding txs
func NewMockTransactionStore(txs ...domain.Transaction) *MockTransactionStore {
	return &MockTransactionStore{transactions: append([]domain.Transaction(nil), txs...)}
}

// Add appends transactions
func (m *MockTransactionStore) Add(txs ...domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, txs...)
}

// SetError makes every read fail with err
func (m *MockTransactionStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetTransactionsForAsset returns the transactions of one pair
func (m *MockTransactionStore) GetTransactionsForAsset(_ context.Context, exchange, asset string) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []domain.Transaction
	for _, tx := range m.transactions {
		if tx.Exchange == exchange && tx.Asset == asset {
			out = append(out, tx)
		}
	}
	return out, nil
}

// GetAllTransactions returns every transaction
func (m *MockTransactionStore) GetAllTransactions(_ context.Context) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Transaction(nil), m.transactions...), nil
}

// MockMarketDataProvider serves fixed bar series per symbol and interval.
// Symbols without a series return no bars; symbols with an error return it.
type MockMarketDataProvider struct {
	mu     sync.RWMutex
	series map[string]map[domain.Interval][]domain.Bar
	errs   map[string]error
	panics map[string]bool
	calls  []domain.HistoryRequest
}

// NewMockMarketDataProvider creates an empty provider
func NewMockMarketDataProvider() *MockMarketDataProvider {
	return &MockMarketDataProvider{
		series: make(map[string]map[domain.Interval][]domain.Bar),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

// SetBars registers the series returned for (symbol, interval)
func (m *MockMarketDataProvider) SetBars(symbol string, interval domain.Interval, bars []domain.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.series[symbol] == nil {
		m.series[symbol] = make(map[domain.Interval][]domain.Bar)
	}
	m.series[symbol][interval] = bars
}

// SetError makes requests for symbol fail
func (m *MockMarketDataProvider) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// SetPanic makes requests for symbol panic
func (m *MockMarketDataProvider) SetPanic(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[symbol] = true
}

// Calls returns the requests received so far
func (m *MockMarketDataProvider) Calls() []domain.HistoryRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.HistoryRequest(nil), m.calls...)
}

// GetHistory implements domain.MarketDataProvider
func (m *MockMarketDataProvider) GetHistory(_ context.Context, req domain.HistoryRequest) ([]domain.Bar, domain.Interval, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	interval := req.ResolvedInterval()
	if m.panics[req.Symbol] {
		panic("mock provider panic for " + req.Symbol)
	}
	if err := m.errs[req.Symbol]; err != nil {
		return nil, interval, err
	}
	bars := m.series[req.Symbol][interval]
	return append([]domain.Bar(nil), bars...), interval, nil
}
