package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// HistoryRepository implements the ports.HistoryRepository interface over
// the quote_history table. Rows are append-only; nothing ever updates them.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(db *DB) ports.HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores one history record
func (r *HistoryRepository) Append(ctx context.Context, record *domain.HistoryRecord) error {
	query := `
		INSERT INTO quote_history (symbol, price, source, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.Symbol,
		record.Price,
		record.Source,
		record.Timestamp,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return nil
}

// AppendBatch stores multiple history records atomically
func (r *HistoryRepository) AppendBatch(ctx context.Context, records []*domain.HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quote_history (symbol, price, source, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for _, record := range records {
		err := tx.QueryRow(ctx, query,
			record.Symbol,
			record.Price,
			record.Source,
			record.Timestamp,
		).Scan(&record.ID)

		if err != nil {
			return fmt.Errorf("failed to append history for %s: %w", record.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryRecent returns up to limit records for a symbol with
// timestamp >= since, newest first
func (r *HistoryRepository) QueryRecent(ctx context.Context, symbol string, since time.Time, limit int) ([]*domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT id, symbol, price, source, timestamp
		FROM quote_history
		WHERE symbol = $1 AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		var priceStr string

		if err := rows.Scan(&rec.ID, &rec.Symbol, &priceStr, &rec.Source, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		rec.Price, err = decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history records: %w", err)
	}

	return records, nil
}

// Prune removes records older than the given time
func (r *HistoryRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `DELETE FROM quote_history WHERE timestamp < $1`

	result, err := r.db.Pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	return result.RowsAffected(), nil
}

// Count returns total number of history records
func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history records: %w", err)
	}

	return count, nil
}

// CountBySymbol returns number of history records for a symbol
func (r *HistoryRepository) CountBySymbol(ctx context.Context, symbol string) (int64, error) {
	query := `SELECT COUNT(*) FROM quote_history WHERE symbol = $1`

	var count int64
	if err := r.db.Pool.QueryRow(ctx, query, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history by symbol: %w", err)
	}

	return count, nil
}

// Ensure HistoryRepository implements ports.HistoryRepository
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
