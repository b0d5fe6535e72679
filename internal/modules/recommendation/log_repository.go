package recommendation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/modules/indicators"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// LogEntry is one stored recommendation
type LogEntry struct {
	ID             string                         `json:"id"`
	BatchID        string                         `json:"batch_id"`
	Asset          string                         `json:"asset"`
	Action         Action                         `json:"action"`
	Priority       Priority                       `json:"priority"`
	SignalStrength float64                        `json:"signal_strength"`
	Confidence     float64                        `json:"confidence"`
	CompositeScore float64                        `json:"composite_score"`
	Timeframe      string                         `json:"timeframe"`
	Reason         string                         `json:"reason"`
	Metrics        map[string]indicators.Snapshot `json:"metrics,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
}

// LogFilter narrows List results
type LogFilter struct {
	Asset   string
	BatchID string
	Limit   int
}

// LogRepository persists recommendations for later outcome verification.
// Database: ledger.db (recommendation_log table)
type LogRepository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewLogRepository creates a new recommendation log repository
func NewLogRepository(db *sql.DB, log zerolog.Logger) *LogRepository {
	return &LogRepository{
		db:  db,
		log: log.With().Str("repo", "recommendation_log").Logger(),
		now: time.Now,
	}
}

// Append stores a batch of recommendations atomically
func (r *LogRepository) Append(ctx context.Context, batchID string, recs []Recommendation) error {
	createdAt := r.now().Unix()

	return database.WithTransactionContext(ctx, r.db, func(tx *sql.Tx) error {
		for _, rec := range recs {
			var metrics []byte
			if len(rec.Metrics) > 0 {
				encoded, err := msgpack.Marshal(rec.Metrics)
				if err != nil {
					return fmt.Errorf("failed to encode metrics for %s: %w", rec.Asset, err)
				}
				metrics = encoded
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO recommendation_log
				(id, batch_id, asset, action, priority, signal_strength, confidence,
				 composite_score, timeframe, reason, metrics, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				uuid.New().String(),
				batchID,
				rec.Asset,
				string(rec.Action),
				string(rec.Priority),
				rec.SignalStrength,
				rec.Confidence,
				rec.CompositeScore,
				rec.Timeframe,
				rec.Reason,
				metrics,
				createdAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation for %s: %w", rec.Asset, err)
			}
		}

		r.log.Debug().Str("batch_id", batchID).Int("count", len(recs)).Msg("Recommendations logged")
		return nil
	})
}

// List returns logged recommendations, newest first
func (r *LogRepository) List(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	query := `
		SELECT id, batch_id, asset, action, priority, signal_strength, confidence,
		       composite_score, timeframe, reason, metrics, created_at
		FROM recommendation_log
		WHERE 1 = 1
	`
	var args []interface{}
	if filter.Asset != "" {
		query += " AND asset = ?"
		args = append(args, filter.Asset)
	}
	if filter.BatchID != "" {
		query += " AND batch_id = ?"
		args = append(args, filter.BatchID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at DESC, rowid ASC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var action, priority string
		var reason sql.NullString
		var metrics []byte
		var createdAt int64

		if err := rows.Scan(
			&e.ID,
			&e.BatchID,
			&e.Asset,
			&action,
			&priority,
			&e.SignalStrength,
			&e.Confidence,
			&e.CompositeScore,
			&e.Timeframe,
			&reason,
			&metrics,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation log: %w", err)
		}

		e.Action = Action(action)
		e.Priority = Priority(priority)
		e.Reason = reason.String
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		if len(metrics) > 0 {
			if err := msgpack.Unmarshal(metrics, &e.Metrics); err != nil {
				r.log.Warn().Err(err).Str("id", e.ID).Msg("Failed to decode logged metrics")
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendation log: %w", err)
	}
	return entries, nil
}
