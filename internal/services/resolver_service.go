package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
	"github.com/prxgr4mmer/price-resolver/pkg/ratelimit"
)

// ResolverService implements the ports.PriceService facade. Per resolution:
// rate-limit admission, fresh-cache short-circuit, retried+timed upstream
// fetch, cache and history write-back, and degradation through the fallback
// ladder on any fresh-path failure. Only DataNotFoundError ever reaches the
// caller; everything else becomes a lower-confidence result with warnings.
type ResolverService struct {
	provider    ports.QuoteProvider
	quoteRepo   ports.QuoteRepository
	historyRepo ports.HistoryRepository
	fallback    ports.FallbackResolver
	limiter     *ratelimit.Limiter
	metrics     ports.MetricsService
	thresholds  domain.StalenessThresholds
	logger      *slog.Logger
}

// NewResolverService creates a new price resolution facade
func NewResolverService(
	provider ports.QuoteProvider,
	quoteRepo ports.QuoteRepository,
	historyRepo ports.HistoryRepository,
	fallback ports.FallbackResolver,
	limiter *ratelimit.Limiter,
	metrics ports.MetricsService,
	thresholds domain.StalenessThresholds,
	logger *slog.Logger,
) *ResolverService {
	return &ResolverService{
		provider:    provider,
		quoteRepo:   quoteRepo,
		historyRepo: historyRepo,
		fallback:    fallback,
		limiter:     limiter,
		metrics:     metrics,
		thresholds:  thresholds,
		logger:      logger.With("component", "resolver_service"),
	}
}

// GetPrice resolves a price and returns just the number
func (s *ResolverService) GetPrice(ctx context.Context, symbol string, forceRefresh bool) (decimal.Decimal, error) {
	resolved, err := s.GetPriceWithFallback(ctx, symbol, forceRefresh)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return resolved.Price, nil
}

// GetPriceWithFallback resolves a price through the full pipeline
func (s *ResolverService) GetPriceWithFallback(ctx context.Context, symbol string, forceRefresh bool) (*domain.ResolvedPrice, error) {
	symbol = normalizeSymbol(symbol)

	// Admission is checked before the cache: a rejection skips the fetch
	// and degrades straight to the ladder, which still serves a fresh
	// cache entry at full confidence when one exists.
	if err := s.limiter.Check(s.provider.ServiceKey()); err != nil {
		s.logger.Warn("rate limit rejected fresh fetch", "symbol", symbol, "error", err)
		return s.degrade(ctx, symbol)
	}

	if !forceRefresh {
		if quote, err := s.quoteRepo.Find(ctx, symbol); err == nil {
			aged := domain.NewAgedQuote(quote, s.thresholds, time.Now().UTC())
			if aged.IsFresh() {
				return &domain.ResolvedPrice{
					Symbol:       symbol,
					Price:        quote.Price,
					Source:       quote.Source,
					Cached:       true,
					FallbackUsed: false,
					Confidence:   domain.ConfidenceHigh,
				}, nil
			}
		} else if !errors.Is(err, domain.ErrQuoteNotFound) {
			s.logger.Error("cache read failed", "symbol", symbol, "error", err)
		}
	}

	qualified := domain.QualifySymbol(symbol)

	prices, err := s.provider.FetchQuotes(ctx, []string{qualified})
	if err != nil {
		s.logger.Warn("fresh fetch failed, degrading", "symbol", symbol, "error", err)
		return s.degrade(ctx, symbol)
	}

	price, ok := prices[qualified]
	if !ok {
		s.logger.Warn("symbol absent from upstream response", "symbol", symbol, "qualified", qualified)
		return s.degrade(ctx, symbol)
	}

	s.store(ctx, symbol, price)

	return &domain.ResolvedPrice{
		Symbol:       symbol,
		Price:        price,
		Source:       s.provider.ServiceKey(),
		Cached:       false,
		FallbackUsed: false,
		Confidence:   domain.ConfidenceHigh,
	}, nil
}

// BatchGetPrices resolves many symbols with a single bulk upstream request.
// Symbols missing from a successful response become per-symbol error
// entries. A total bulk failure degrades every symbol to a raw cache
// lookup; the historical-average ladder is deliberately not consulted here.
func (s *ResolverService) BatchGetPrices(ctx context.Context, symbols []string) ([]domain.BatchResult, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(symbols))
	qualified := make([]string, len(symbols))
	for i, sym := range symbols {
		normalized[i] = normalizeSymbol(sym)
		qualified[i] = domain.QualifySymbol(normalized[i])
	}

	if err := s.limiter.Check(s.provider.ServiceKey()); err != nil {
		s.logger.Warn("rate limit rejected bulk fetch", "symbols", len(symbols), "error", err)
		return s.batchFromCache(ctx, normalized), nil
	}

	prices, err := s.provider.FetchQuotes(ctx, qualified)
	if err != nil {
		s.logger.Error("bulk fetch failed, serving cached prices", "symbols", len(symbols), "error", err)
		return s.batchFromCache(ctx, normalized), nil
	}

	now := time.Now().UTC()
	results := make([]domain.BatchResult, len(normalized))
	var records []*domain.HistoryRecord

	for i, sym := range normalized {
		price, ok := prices[qualified[i]]
		if !ok {
			results[i] = domain.BatchResult{Symbol: sym, Error: "not available"}
			continue
		}

		p := price
		results[i] = domain.BatchResult{Symbol: sym, Price: &p}

		quote := &domain.Quote{
			Symbol:      sym,
			Price:       price,
			Source:      s.provider.ServiceKey(),
			LastUpdated: now,
		}
		if err := s.quoteRepo.Upsert(ctx, quote); err != nil {
			s.logger.Error("cache write failed", "symbol", sym, "error", err)
		}

		records = append(records, &domain.HistoryRecord{
			Symbol:    sym,
			Price:     price,
			Source:    s.provider.ServiceKey(),
			Timestamp: now,
		})
	}

	if len(records) > 0 {
		if err := s.historyRepo.AppendBatch(ctx, records); err != nil {
			s.logger.Error("history write failed", "records", len(records), "error", err)
		}
	}

	return results, nil
}

// GetCachedPrice classifies the cache entry for a symbol without any
// network call
func (s *ResolverService) GetCachedPrice(ctx context.Context, symbol string) (*domain.AgedQuote, error) {
	symbol = normalizeSymbol(symbol)

	quote, err := s.quoteRepo.Find(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return domain.NewAgedQuote(quote, s.thresholds, time.Now().UTC()), nil
}

// degrade runs the fallback ladder and records the degradation
func (s *ResolverService) degrade(ctx context.Context, symbol string) (*domain.ResolvedPrice, error) {
	resolved, err := s.fallback.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if resolved.FallbackUsed {
		s.metrics.RecordFallback()
	}
	return resolved, nil
}

// store writes a successful fresh fetch to the cache and the history log.
// Resolution already succeeded; write failures are logged, not surfaced.
func (s *ResolverService) store(ctx context.Context, symbol string, price decimal.Decimal) {
	now := time.Now().UTC()

	quote := &domain.Quote{
		Symbol:      symbol,
		Price:       price,
		Source:      s.provider.ServiceKey(),
		LastUpdated: now,
	}
	if err := s.quoteRepo.Upsert(ctx, quote); err != nil {
		s.logger.Error("cache write failed", "symbol", symbol, "error", err)
	}

	record := &domain.HistoryRecord{
		Symbol:    symbol,
		Price:     price,
		Source:    s.provider.ServiceKey(),
		Timestamp: now,
	}
	if err := s.historyRepo.Append(ctx, record); err != nil {
		s.logger.Error("history write failed", "symbol", symbol, "error", err)
	}
}

// batchFromCache is the bulk-failure path: raw cache lookups only
func (s *ResolverService) batchFromCache(ctx context.Context, symbols []string) []domain.BatchResult {
	now := time.Now().UTC()
	results := make([]domain.BatchResult, len(symbols))

	for i, sym := range symbols {
		quote, err := s.quoteRepo.Find(ctx, sym)
		if err != nil {
			results[i] = domain.BatchResult{Symbol: sym, Error: "no cached data available"}
			continue
		}

		aged := domain.NewAgedQuote(quote, s.thresholds, now)
		result := domain.BatchResult{Symbol: sym, Price: &quote.Price}
		if !aged.IsFresh() {
			result.Error = "stale"
		}
		results[i] = result
	}

	return results
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Ensure ResolverService implements ports.PriceService
var _ ports.PriceService = (*ResolverService)(nil)
