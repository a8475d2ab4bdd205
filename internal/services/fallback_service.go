package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// FallbackService walks the degradation ladder when a fresh fetch is
// unavailable. The ladder is strict top-down: fresh cache, stale cache,
// expired cache, historical average, terminal failure. Tiers are never
// mixed; the first tier with usable data wins.
type FallbackService struct {
	quoteRepo     ports.QuoteRepository
	historyRepo   ports.HistoryRepository
	thresholds    domain.StalenessThresholds
	avgWindow     time.Duration
	avgMaxRecords int
	logger        *slog.Logger
}

// NewFallbackService creates a new fallback resolver
func NewFallbackService(
	quoteRepo ports.QuoteRepository,
	historyRepo ports.HistoryRepository,
	thresholds domain.StalenessThresholds,
	avgWindowDays int,
	avgMaxRecords int,
	logger *slog.Logger,
) *FallbackService {
	if avgWindowDays <= 0 {
		avgWindowDays = 30
	}
	if avgMaxRecords <= 0 {
		avgMaxRecords = 100
	}
	return &FallbackService{
		quoteRepo:     quoteRepo,
		historyRepo:   historyRepo,
		thresholds:    thresholds,
		avgWindow:     time.Duration(avgWindowDays) * 24 * time.Hour,
		avgMaxRecords: avgMaxRecords,
		logger:        logger.With("component", "fallback_service"),
	}
}

// Resolve returns the best degraded price available for a symbol, or
// DataNotFoundError when no tier has usable data.
func (s *FallbackService) Resolve(ctx context.Context, symbol string) (*domain.ResolvedPrice, error) {
	if resolved := s.resolveFromCache(ctx, symbol); resolved != nil {
		return resolved, nil
	}

	if resolved := s.resolveFromHistory(ctx, symbol); resolved != nil {
		return resolved, nil
	}

	return nil, domain.NewDataNotFoundError(symbol)
}

func (s *FallbackService) resolveFromCache(ctx context.Context, symbol string) *domain.ResolvedPrice {
	quote, err := s.quoteRepo.Find(ctx, symbol)
	if err != nil {
		if !errors.Is(err, domain.ErrQuoteNotFound) {
			s.logger.Error("cache read failed, trying history", "symbol", symbol, "error", err)
		}
		return nil
	}

	aged := domain.NewAgedQuote(quote, s.thresholds, time.Now().UTC())

	switch aged.Tier {
	case domain.TierFresh:
		return &domain.ResolvedPrice{
			Symbol:       symbol,
			Price:        quote.Price,
			Source:       quote.Source,
			Cached:       true,
			FallbackUsed: false,
			Confidence:   domain.ConfidenceHigh,
		}

	case domain.TierStale:
		s.logger.Warn("serving stale quote", "symbol", symbol, "age", aged.Age.String())
		return &domain.ResolvedPrice{
			Symbol:       symbol,
			Price:        quote.Price,
			Source:       quote.Source + domain.SourceSuffixStale,
			Cached:       true,
			FallbackUsed: true,
			Confidence:   domain.ConfidenceMedium,
			Warnings: []string{
				fmt.Sprintf("using stale data (%d hours old)", int(aged.Age.Hours())),
			},
		}

	case domain.TierExpired:
		s.logger.Warn("serving expired quote", "symbol", symbol, "age", aged.Age.String())
		return &domain.ResolvedPrice{
			Symbol:       symbol,
			Price:        quote.Price,
			Source:       quote.Source + domain.SourceSuffixExpired,
			Cached:       true,
			FallbackUsed: true,
			Confidence:   domain.ConfidenceLow,
			Warnings: []string{
				fmt.Sprintf("using expired data (%d days old)", int(aged.Age.Hours()/24)),
			},
		}

	default:
		// Too old to serve; fall through to the history tier
		return nil
	}
}

func (s *FallbackService) resolveFromHistory(ctx context.Context, symbol string) *domain.ResolvedPrice {
	since := time.Now().UTC().Add(-s.avgWindow)

	records, err := s.historyRepo.QueryRecent(ctx, symbol, since, s.avgMaxRecords)
	if err != nil {
		s.logger.Error("history read failed", "symbol", symbol, "error", err)
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	prices := make([]decimal.Decimal, len(records))
	for i, rec := range records {
		prices[i] = rec.Price
	}
	mean := decimal.Avg(prices[0], prices[1:]...)

	s.logger.Warn("serving historical average",
		"symbol", symbol,
		"records", len(records),
	)

	return &domain.ResolvedPrice{
		Symbol:       symbol,
		Price:        mean,
		Source:       domain.SourceHistoricalAverage,
		Cached:       false,
		FallbackUsed: true,
		Confidence:   domain.ConfidenceLow,
		Warnings: []string{
			fmt.Sprintf("using historical average of %d records from the last %d days",
				len(records), int(s.avgWindow.Hours()/24)),
		},
	}
}

// Ensure FallbackService implements ports.FallbackResolver
var _ ports.FallbackResolver = (*FallbackService)(nil)
