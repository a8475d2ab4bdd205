package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// QuoteRepository implements the ports.QuoteRepository interface over the
// quotes table. The symbol column is unique: writes are upserts and at most
// one row exists per symbol.
type QuoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new PostgreSQL quote repository
func NewQuoteRepository(db *DB) ports.QuoteRepository {
	return &QuoteRepository{db: db}
}

// Find retrieves the cache entry for a symbol
func (r *QuoteRepository) Find(ctx context.Context, symbol string) (*domain.Quote, error) {
	query := `
		SELECT symbol, price, source, last_updated
		FROM quotes
		WHERE symbol = $1
	`

	var quote domain.Quote
	var priceStr string

	err := r.db.Pool.QueryRow(ctx, query, symbol).Scan(
		&quote.Symbol,
		&priceStr,
		&quote.Source,
		&quote.LastUpdated,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find quote: %w", err)
	}

	quote.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &quote, nil
}

// Upsert creates or overwrites the cache entry for quote.Symbol.
// Last write wins for concurrent writers of the same symbol.
func (r *QuoteRepository) Upsert(ctx context.Context, quote *domain.Quote) error {
	query := `
		INSERT INTO quotes (symbol, price, source, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO UPDATE
		SET price = EXCLUDED.price,
		    source = EXCLUDED.source,
		    last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Pool.Exec(ctx, query,
		quote.Symbol,
		quote.Price,
		quote.Source,
		quote.LastUpdated,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert quote: %w", err)
	}

	return nil
}

// Stats summarizes the cache by staleness tier as of now
func (r *QuoteRepository) Stats(ctx context.Context, thresholds domain.StalenessThresholds) (*domain.CacheStats, error) {
	now := time.Now().UTC()
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_updated > $1),
			COUNT(*) FILTER (WHERE last_updated <= $1 AND last_updated > $2),
			COUNT(*) FILTER (WHERE last_updated <= $2 AND last_updated > $3),
			MIN(last_updated),
			MAX(last_updated)
		FROM quotes
	`

	var stats domain.CacheStats
	err := r.db.Pool.QueryRow(ctx, query,
		now.Add(-thresholds.Fresh),
		now.Add(-thresholds.Stale),
		now.Add(-thresholds.MaxAge),
	).Scan(
		&stats.Count,
		&stats.FreshCount,
		&stats.StaleCount,
		&stats.ExpiredCount,
		&stats.OldestEntry,
		&stats.NewestEntry,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get cache stats: %w", err)
	}

	return &stats, nil
}

// DeleteOrphaned removes cache entries whose symbol is no longer tracked
func (r *QuoteRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM quotes
		WHERE symbol NOT IN (SELECT name FROM symbols)
	`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned quotes: %w", err)
	}

	return result.RowsAffected(), nil
}

// Clear removes all cache entries
func (r *QuoteRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM quotes`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear quotes: %w", err)
	}

	return result.RowsAffected(), nil
}

// Count returns total number of cache entries
func (r *QuoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	return count, nil
}

// Ensure QuoteRepository implements ports.QuoteRepository
var _ ports.QuoteRepository = (*QuoteRepository)(nil)
