package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// transactionsColumns is the list of columns read by scanTransaction
const transactionsColumns = `id, exchange, asset, type, amount, price_usd, commission, date`

// TransactionFilter narrows List results
type TransactionFilter struct {
	Exchange string
	Asset    string
	Limit    int
}

// TransactionRepository stores transactions in the ledger database and
// implements domain.TransactionStore
type TransactionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transaction").Logger(),
	}
}

// Normalize trims identifiers, lower-cases the exchange and upper-cases the asset
func Normalize(tx domain.Transaction) domain.Transaction {
	tx.Exchange = strings.ToLower(strings.TrimSpace(tx.Exchange))
	tx.Asset = strings.ToUpper(strings.TrimSpace(tx.Asset))
	return tx
}

// Create validates and inserts one transaction, returning its ID.
// A sell that would oversell the pair is rejected with *InsufficientLotsError.
func (r *TransactionRepository) Create(ctx context.Context, tx domain.Transaction) (int64, error) {
	ids, err := r.CreateMany(ctx, []domain.Transaction{tx})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateMany inserts a batch atomically. Every affected pair is replayed with
// the new transactions first; if any pair would oversell, nothing is written.
func (r *TransactionRepository) CreateMany(ctx context.Context, txs []domain.Transaction) ([]int64, error) {
	normalized := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx = Normalize(tx)
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("failed to create transaction %d: %w", i, err)
		}
		normalized[i] = tx
	}

	ids := make([]int64, 0, len(normalized))
	err := database.WithTransactionContext(ctx, r.ledgerDB, func(sqlTx *sql.Tx) error {
		if err := r.checkReplay(ctx, sqlTx, normalized); err != nil {
			return err
		}

		now := time.Now().Unix()
		for _, tx := range normalized {
			res, err := sqlTx.ExecContext(ctx, `
				INSERT INTO transactions
				(exchange, asset, type, amount, price_usd, commission, date, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, tx.Exchange, tx.Asset, string(tx.Type), tx.Amount, tx.PriceUSD, tx.Commission, tx.Date.Unix(), now)
			if err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read transaction id: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Int("count", len(ids)).
		Msg("Transactions created")

	return ids, nil
}

// checkReplay replays each affected pair's stored history plus the new
// transactions and fails on the first oversell
func (r *TransactionRepository) checkReplay(ctx context.Context, sqlTx *sql.Tx, incoming []domain.Transaction) error {
	pending := make(map[pairKey][]domain.Transaction)
	var order []pairKey
	for _, tx := range incoming {
		key := pairKey{exchange: tx.Exchange, asset: tx.Asset}
		if _, ok := pending[key]; !ok {
			order = append(order, key)
		}
		pending[key] = append(pending[key], tx)
	}

	for _, key := range order {
		existing, err := queryTransactions(ctx, sqlTx,
			"SELECT "+transactionsColumns+" FROM transactions WHERE exchange = ? AND asset = ? ORDER BY date ASC, id ASC",
			key.exchange, key.asset)
		if err != nil {
			return err
		}
		if _, err := Replay(key.exchange, key.asset, append(existing, pending[key]...)); err != nil {
			return err
		}
	}
	return nil
}

// GetTransactionsForAsset returns one pair's transactions, oldest first
func (r *TransactionRepository) GetTransactionsForAsset(ctx context.Context, exchange, asset string) ([]domain.Transaction, error) {
	key := Normalize(domain.Transaction{Exchange: exchange, Asset: asset})
	txs, err := queryTransactions(ctx, r.ledgerDB,
		"SELECT "+transactionsColumns+" FROM transactions WHERE exchange = ? AND asset = ? ORDER BY date ASC, id ASC",
		key.Exchange, key.Asset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s/%s: %w", key.Exchange, key.Asset, err)
	}
	return txs, nil
}

// GetAllTransactions returns every transaction, oldest first
func (r *TransactionRepository) GetAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := queryTransactions(ctx, r.ledgerDB,
		"SELECT "+transactionsColumns+" FROM transactions ORDER BY date ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get all transactions: %w", err)
	}
	return txs, nil
}

// List returns transactions most recent first, optionally filtered
func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	query := "SELECT " + transactionsColumns + " FROM transactions WHERE 1=1"
	var args []interface{}

	if filter.Exchange != "" {
		query += " AND exchange = ?"
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Exchange)))
	}
	if filter.Asset != "" {
		query += " AND asset = ?"
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Asset)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY date DESC, id DESC LIMIT ?"
	args = append(args, limit)

	txs, err := queryTransactions(ctx, r.ledgerDB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Symbols returns the distinct assets present in the ledger
func (r *TransactionRepository) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, "SELECT DISTINCT asset FROM transactions ORDER BY asset")
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryTransactions(ctx context.Context, q queryer, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var tx domain.Transaction
	var typ string
	var date int64

	if err := rows.Scan(&tx.ID, &tx.Exchange, &tx.Asset, &typ, &tx.Amount, &tx.PriceUSD, &tx.Commission, &date); err != nil {
		return tx, err
	}
	tx.Type = domain.TransactionType(typ)
	tx.Date = time.Unix(date, 0).UTC()
	return tx, nil
}
