package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// Hand-written fakes for the ports. Each method delegates to an optional
// func field; unset fields return zero values.

type mockQuoteRepo struct {
	findFn           func(ctx context.Context, symbol string) (*domain.Quote, error)
	upsertFn         func(ctx context.Context, quote *domain.Quote) error
	statsFn          func(ctx context.Context, th domain.StalenessThresholds) (*domain.CacheStats, error)
	deleteOrphanedFn func(ctx context.Context) (int64, error)
	clearFn          func(ctx context.Context) (int64, error)
	countFn          func(ctx context.Context) (int, error)

	upserted []*domain.Quote
}

func (m *mockQuoteRepo) Find(ctx context.Context, symbol string) (*domain.Quote, error) {
	if m.findFn != nil {
		return m.findFn(ctx, symbol)
	}
	return nil, domain.ErrQuoteNotFound
}

func (m *mockQuoteRepo) Upsert(ctx context.Context, quote *domain.Quote) error {
	m.upserted = append(m.upserted, quote)
	if m.upsertFn != nil {
		return m.upsertFn(ctx, quote)
	}
	return nil
}

func (m *mockQuoteRepo) Stats(ctx context.Context, th domain.StalenessThresholds) (*domain.CacheStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, th)
	}
	return &domain.CacheStats{}, nil
}

func (m *mockQuoteRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	if m.deleteOrphanedFn != nil {
		return m.deleteOrphanedFn(ctx)
	}
	return 0, nil
}

func (m *mockQuoteRepo) Clear(ctx context.Context) (int64, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return 0, nil
}

func (m *mockQuoteRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockHistoryRepo struct {
	appendFn        func(ctx context.Context, record *domain.HistoryRecord) error
	appendBatchFn   func(ctx context.Context, records []*domain.HistoryRecord) error
	queryRecentFn   func(ctx context.Context, symbol string, since time.Time, limit int) ([]*domain.HistoryRecord, error)
	pruneFn         func(ctx context.Context, olderThan time.Time) (int64, error)
	countFn         func(ctx context.Context) (int64, error)
	countBySymbolFn func(ctx context.Context, symbol string) (int64, error)

	appended []*domain.HistoryRecord
}

func (m *mockHistoryRepo) Append(ctx context.Context, record *domain.HistoryRecord) error {
	m.appended = append(m.appended, record)
	if m.appendFn != nil {
		return m.appendFn(ctx, record)
	}
	return nil
}

func (m *mockHistoryRepo) AppendBatch(ctx context.Context, records []*domain.HistoryRecord) error {
	m.appended = append(m.appended, records...)
	if m.appendBatchFn != nil {
		return m.appendBatchFn(ctx, records)
	}
	return nil
}

func (m *mockHistoryRepo) QueryRecent(ctx context.Context, symbol string, since time.Time, limit int) ([]*domain.HistoryRecord, error) {
	if m.queryRecentFn != nil {
		return m.queryRecentFn(ctx, symbol, since, limit)
	}
	return nil, nil
}

func (m *mockHistoryRepo) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if m.pruneFn != nil {
		return m.pruneFn(ctx, olderThan)
	}
	return 0, nil
}

func (m *mockHistoryRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockHistoryRepo) CountBySymbol(ctx context.Context, symbol string) (int64, error) {
	if m.countBySymbolFn != nil {
		return m.countBySymbolFn(ctx, symbol)
	}
	return 0, nil
}

type mockSymbolRepo struct {
	createFn      func(ctx context.Context, symbol *domain.TrackedSymbol) error
	getByNameFn   func(ctx context.Context, name string) (*domain.TrackedSymbol, error)
	listFn        func(ctx context.Context) ([]*domain.TrackedSymbol, error)
	listActiveFn  func(ctx context.Context) ([]*domain.TrackedSymbol, error)
	deleteFn      func(ctx context.Context, name string) error
	updateFn      func(ctx context.Context, symbol *domain.TrackedSymbol) error
	countFn       func(ctx context.Context) (int, error)
	countActiveFn func(ctx context.Context) (int, error)
	existsFn      func(ctx context.Context, name string) (bool, error)
}

func (m *mockSymbolRepo) Create(ctx context.Context, symbol *domain.TrackedSymbol) error {
	if m.createFn != nil {
		return m.createFn(ctx, symbol)
	}
	return nil
}

func (m *mockSymbolRepo) GetByName(ctx context.Context, name string) (*domain.TrackedSymbol, error) {
	if m.getByNameFn != nil {
		return m.getByNameFn(ctx, name)
	}
	return nil, domain.ErrSymbolNotFound
}

func (m *mockSymbolRepo) List(ctx context.Context) ([]*domain.TrackedSymbol, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepo) ListActive(ctx context.Context) ([]*domain.TrackedSymbol, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockSymbolRepo) Update(ctx context.Context, symbol *domain.TrackedSymbol) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, symbol)
	}
	return nil
}

func (m *mockSymbolRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockSymbolRepo) CountActive(ctx context.Context) (int, error) {
	if m.countActiveFn != nil {
		return m.countActiveFn(ctx)
	}
	return 0, nil
}

func (m *mockSymbolRepo) Exists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

type mockProvider struct {
	serviceKey    string
	fetchQuotesFn func(ctx context.Context, qualifiedSymbols []string) (map[string]decimal.Decimal, error)
	pingFn        func(ctx context.Context) error

	fetchCalls [][]string
}

func (m *mockProvider) ServiceKey() string {
	if m.serviceKey != "" {
		return m.serviceKey
	}
	return "GOOGLE_SCRIPT"
}

func (m *mockProvider) FetchQuotes(ctx context.Context, qualifiedSymbols []string) (map[string]decimal.Decimal, error) {
	m.fetchCalls = append(m.fetchCalls, qualifiedSymbols)
	if m.fetchQuotesFn != nil {
		return m.fetchQuotesFn(ctx, qualifiedSymbols)
	}
	return nil, domain.ErrUpstreamUnavailable
}

func (m *mockProvider) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

type mockFallback struct {
	resolveFn func(ctx context.Context, symbol string) (*domain.ResolvedPrice, error)

	resolveCalls []string
}

func (m *mockFallback) Resolve(ctx context.Context, symbol string) (*domain.ResolvedPrice, error) {
	m.resolveCalls = append(m.resolveCalls, symbol)
	if m.resolveFn != nil {
		return m.resolveFn(ctx, symbol)
	}
	return nil, domain.NewDataNotFoundError(symbol)
}

type mockMetrics struct {
	fallbackCount   int
	refreshSuccess  int
	refreshError    int
	lastRefreshTime *time.Time
}

func (m *mockMetrics) GetMetrics(ctx context.Context) (*domain.Metrics, error) {
	return &domain.Metrics{}, nil
}

func (m *mockMetrics) RecordRefreshSuccess(duration time.Duration) { m.refreshSuccess++ }
func (m *mockMetrics) RecordRefreshError(duration time.Duration)   { m.refreshError++ }
func (m *mockMetrics) RecordFallback()                             { m.fallbackCount++ }
func (m *mockMetrics) GetLastRefreshTime() *time.Time              { return m.lastRefreshTime }

type mockPriceService struct {
	getPriceWithFallbackFn func(ctx context.Context, symbol string, forceRefresh bool) (*domain.ResolvedPrice, error)
	batchGetPricesFn       func(ctx context.Context, symbols []string) ([]domain.BatchResult, error)

	batchCalls [][]string
}

func (m *mockPriceService) GetPrice(ctx context.Context, symbol string, forceRefresh bool) (decimal.Decimal, error) {
	resolved, err := m.GetPriceWithFallback(ctx, symbol, forceRefresh)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return resolved.Price, nil
}

func (m *mockPriceService) GetPriceWithFallback(ctx context.Context, symbol string, forceRefresh bool) (*domain.ResolvedPrice, error) {
	if m.getPriceWithFallbackFn != nil {
		return m.getPriceWithFallbackFn(ctx, symbol, forceRefresh)
	}
	return nil, domain.NewDataNotFoundError(symbol)
}

func (m *mockPriceService) BatchGetPrices(ctx context.Context, symbols []string) ([]domain.BatchResult, error) {
	m.batchCalls = append(m.batchCalls, symbols)
	if m.batchGetPricesFn != nil {
		return m.batchGetPricesFn(ctx, symbols)
	}
	return nil, nil
}

func (m *mockPriceService) GetCachedPrice(ctx context.Context, symbol string) (*domain.AgedQuote, error) {
	return nil, domain.ErrQuoteNotFound
}

// Interface conformance for the fakes
var (
	_ ports.QuoteRepository   = (*mockQuoteRepo)(nil)
	_ ports.HistoryRepository = (*mockHistoryRepo)(nil)
	_ ports.SymbolRepository  = (*mockSymbolRepo)(nil)
	_ ports.QuoteProvider     = (*mockProvider)(nil)
	_ ports.FallbackResolver  = (*mockFallback)(nil)
	_ ports.MetricsService    = (*mockMetrics)(nil)
	_ ports.PriceService      = (*mockPriceService)(nil)
)
