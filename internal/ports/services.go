package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
)

// PriceService is the resolution facade the rest of the application calls.
// Every failure short of total fallback exhaustion degrades into a
// lower-confidence ResolvedPrice; only DataNotFoundError ever propagates.
type PriceService interface {
	// GetPrice resolves a price and returns just the number, raising on
	// total failure
	GetPrice(ctx context.Context, symbol string, forceRefresh bool) (decimal.Decimal, error)

	// GetPriceWithFallback resolves a price through the full
	// fetch-then-degrade pipeline
	GetPriceWithFallback(ctx context.Context, symbol string, forceRefresh bool) (*domain.ResolvedPrice, error)

	// BatchGetPrices resolves many symbols with a single bulk upstream
	// request; per-symbol failures become error entries, never a batch
	// failure
	BatchGetPrices(ctx context.Context, symbols []string) ([]domain.BatchResult, error)

	// GetCachedPrice classifies the cache entry for a symbol without any
	// network call
	GetCachedPrice(ctx context.Context, symbol string) (*domain.AgedQuote, error)
}

// FallbackResolver walks the degradation ladder for a symbol when a fresh
// fetch is unavailable: stale cache, expired cache, historical average,
// then DataNotFoundError.
type FallbackResolver interface {
	Resolve(ctx context.Context, symbol string) (*domain.ResolvedPrice, error)
}

// SymbolService defines the contract for tracked-symbol management
type SymbolService interface {
	// TrackSymbol registers a symbol referenced by a holding
	TrackSymbol(ctx context.Context, name string) (*domain.TrackedSymbol, error)

	// UntrackSymbol stops tracking a symbol
	UntrackSymbol(ctx context.Context, name string) error

	// ListSymbols returns all tracked symbols
	ListSymbols(ctx context.Context) ([]*domain.TrackedSymbol, error)

	// GetSymbol retrieves a specific symbol
	GetSymbol(ctx context.Context, name string) (*domain.TrackedSymbol, error)

	// SymbolExists checks if a symbol is being tracked
	SymbolExists(ctx context.Context, name string) (bool, error)
}

// MaintenanceService defines cache and history housekeeping
type MaintenanceService interface {
	// CacheStats summarizes the quote cache by staleness tier
	CacheStats(ctx context.Context) (*domain.CacheStats, error)

	// CleanupOrphanedQuotes removes cache entries for untracked symbols
	CleanupOrphanedQuotes(ctx context.Context) (int64, error)

	// PruneHistory removes history older than daysToKeep days
	PruneHistory(ctx context.Context, daysToKeep int) (int64, error)
}

// MetricsService defines the contract for operational metrics
type MetricsService interface {
	// GetMetrics returns current operational metrics
	GetMetrics(ctx context.Context) (*domain.Metrics, error)

	// RecordRefreshSuccess records a successful refresh cycle
	RecordRefreshSuccess(duration time.Duration)

	// RecordRefreshError records a failed refresh cycle
	RecordRefreshError(duration time.Duration)

	// RecordFallback records one degraded (non-fresh) resolution
	RecordFallback()

	// GetLastRefreshTime returns the time of the last refresh cycle
	GetLastRefreshTime() *time.Time
}

// RefreshService defines the contract for bulk refresh orchestration
type RefreshService interface {
	// RefreshAll bulk-refreshes quotes for every active tracked symbol
	RefreshAll(ctx context.Context) error
}
