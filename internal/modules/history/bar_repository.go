// Package history stores price bars locally and serves them ahead of the
// upstream market data provider.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// BarRepository persists OHLCV bars in the history database
type BarRepository struct {
	historyDB *sql.DB
	now       func() time.Time
	log       zerolog.Logger
}

// NewBarRepository creates a new bar repository
func NewBarRepository(historyDB *sql.DB, log zerolog.Logger) *BarRepository {
	return &BarRepository{
		historyDB: historyDB,
		now:       time.Now,
		log:       log.With().Str("repo", "bars").Logger(),
	}
}

// Coverage is how far back the stored bars of a pair reach and when they
// were last fetched
type Coverage struct {
	SyncedAt     time.Time
	CoveredSince time.Time
}

// Covers reports whether the stored bars reach back to since
func (c Coverage) Covers(since time.Time) bool {
	return !c.CoveredSince.After(since)
}

// Save upserts bars fetched for a horizon starting at since and stamps the
// pair as synced. Coverage only ever widens because older bars are kept.
func (r *BarRepository) Save(ctx context.Context, symbol string, interval domain.Interval, since time.Time, bars []domain.Bar) error {
	symbol = strings.ToUpper(symbol)
	err := database.WithTransactionContext(ctx, r.historyDB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO bars
			(symbol, interval, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx, symbol, string(interval), b.Date.Unix(),
				b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				return fmt.Errorf("failed to insert bar for %s: %w", b.Date.Format(time.RFC3339), err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bar_coverage (symbol, interval, synced_at, covered_since)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol, interval) DO UPDATE SET
				synced_at = excluded.synced_at,
				covered_since = MIN(covered_since, excluded.covered_since)
		`, symbol, string(interval), r.now().Unix(), since.Unix())
		if err != nil {
			return fmt.Errorf("failed to record sync: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save bars for %s: %w", symbol, err)
	}

	r.log.Debug().
		Str("symbol", symbol).
		Str("interval", string(interval)).
		Int("count", len(bars)).
		Msg("Saved bars")
	return nil
}

// Get returns stored bars dated at or after since, ascending
func (r *BarRepository) Get(ctx context.Context, symbol string, interval domain.Interval, since time.Time) ([]domain.Bar, error) {
	rows, err := r.historyDB.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND date >= ?
		ORDER BY date ASC
	`, strings.ToUpper(symbol), string(interval), since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var date int64
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Date = time.Unix(date, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}
	return bars, nil
}

// Coverage returns the stored coverage of the pair. ok is false if it was
// never saved.
func (r *BarRepository) Coverage(ctx context.Context, symbol string, interval domain.Interval) (c Coverage, ok bool, err error) {
	var syncedAt, coveredSince int64
	err = r.historyDB.QueryRowContext(ctx, `
		SELECT synced_at, covered_since FROM bar_coverage WHERE symbol = ? AND interval = ?
	`, strings.ToUpper(symbol), string(interval)).Scan(&syncedAt, &coveredSince)
	if errors.Is(err, sql.ErrNoRows) {
		return Coverage{}, false, nil
	}
	if err != nil {
		return Coverage{}, false, fmt.Errorf("failed to query coverage: %w", err)
	}
	return Coverage{
		SyncedAt:     time.Unix(syncedAt, 0).UTC(),
		CoveredSince: time.Unix(coveredSince, 0).UTC(),
	}, true, nil
}

// DeleteBefore removes bars older than cutoff and returns how many went.
// Coverage that reached past cutoff is pulled forward to it.
func (r *BarRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := database.WithTransactionContext(ctx, r.historyDB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM bars WHERE date < ?`, cutoff.Unix())
		if err != nil {
			return fmt.Errorf("failed to delete old bars: %w", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to count deleted bars: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE bar_coverage SET covered_since = ? WHERE covered_since < ?
		`, cutoff.Unix(), cutoff.Unix())
		if err != nil {
			return fmt.Errorf("failed to trim coverage: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
