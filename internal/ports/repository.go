package ports

import (
	"context"
	"time"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
)

// QuoteRepository defines the contract for the symbol-keyed quote cache.
// Writes are upserts: at most one entry exists per symbol.
type QuoteRepository interface {
	// Find retrieves the cache entry for a symbol
	Find(ctx context.Context, symbol string) (*domain.Quote, error)

	// Upsert creates or overwrites the cache entry for quote.Symbol
	Upsert(ctx context.Context, quote *domain.Quote) error

	// Stats summarizes the cache by staleness tier as of now
	Stats(ctx context.Context, thresholds domain.StalenessThresholds) (*domain.CacheStats, error)

	// DeleteOrphaned removes entries whose symbol is no longer tracked
	DeleteOrphaned(ctx context.Context) (int64, error)

	// Clear removes all cache entries
	Clear(ctx context.Context) (int64, error)

	// Count returns total number of cache entries
	Count(ctx context.Context) (int, error)
}

// HistoryRepository defines the contract for the append-only quote log.
// Records are immutable once written and retrieved newest-first.
type HistoryRepository interface {
	// Append stores one history record
	Append(ctx context.Context, record *domain.HistoryRecord) error

	// AppendBatch stores multiple history records atomically
	AppendBatch(ctx context.Context, records []*domain.HistoryRecord) error

	// QueryRecent returns up to limit records for a symbol with
	// timestamp >= since, newest first
	QueryRecent(ctx context.Context, symbol string, since time.Time, limit int) ([]*domain.HistoryRecord, error)

	// Prune removes records older than the given time
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Count returns total number of history records
	Count(ctx context.Context) (int64, error)

	// CountBySymbol returns number of history records for a symbol
	CountBySymbol(ctx context.Context, symbol string) (int64, error)
}

// SymbolRepository defines the contract for tracked-symbol persistence
type SymbolRepository interface {
	// Create adds a new symbol to track
	Create(ctx context.Context, symbol *domain.TrackedSymbol) error

	// GetByName retrieves a symbol by its name
	GetByName(ctx context.Context, name string) (*domain.TrackedSymbol, error)

	// List returns all tracked symbols
	List(ctx context.Context) ([]*domain.TrackedSymbol, error)

	// ListActive returns only active symbols
	ListActive(ctx context.Context) ([]*domain.TrackedSymbol, error)

	// Delete removes a symbol by name
	Delete(ctx context.Context, name string) error

	// Update modifies an existing symbol
	Update(ctx context.Context, symbol *domain.TrackedSymbol) error

	// Count returns total number of symbols
	Count(ctx context.Context) (int, error)

	// CountActive returns number of active symbols
	CountActive(ctx context.Context) (int, error)

	// Exists checks if a symbol is tracked
	Exists(ctx context.Context, name string) (bool, error)
}
