package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// RefreshService implements the ports.RefreshService interface: it walks
// all active tracked symbols in fixed-size batches, one bulk upstream
// request per batch, pacing between batches so a large symbol universe
// does not exhaust the rate-limit windows in one burst.
type RefreshService struct {
	symbolRepo ports.SymbolRepository
	prices     ports.PriceService
	metrics    ports.MetricsService
	batchSize  int
	pacer      *rate.Limiter
	logger     *slog.Logger
}

// NewRefreshService creates a new bulk refresh service
func NewRefreshService(
	symbolRepo ports.SymbolRepository,
	prices ports.PriceService,
	metrics ports.MetricsService,
	batchSize int,
	batchDelay time.Duration,
	logger *slog.Logger,
) *RefreshService {
	if batchSize < 1 {
		batchSize = 10
	}
	if batchDelay <= 0 {
		batchDelay = time.Second
	}
	return &RefreshService{
		symbolRepo: symbolRepo,
		prices:     prices,
		metrics:    metrics,
		batchSize:  batchSize,
		pacer:      rate.NewLimiter(rate.Every(batchDelay), 1),
		logger:     logger.With("component", "refresh_service"),
	}
}

// RefreshAll bulk-refreshes quotes for every active tracked symbol
func (s *RefreshService) RefreshAll(ctx context.Context) error {
	start := time.Now()

	symbols, err := s.symbolRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active symbols", "error", err)
		s.metrics.RecordRefreshError(time.Since(start))
		return err
	}

	if len(symbols) == 0 {
		s.logger.Debug("no active symbols to refresh")
		return nil
	}

	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = sym.Name
	}

	var refreshed, degraded int
	for batchStart := 0; batchStart < len(names); batchStart += s.batchSize {
		end := batchStart + s.batchSize
		if end > len(names) {
			end = len(names)
		}

		if err := s.pacer.Wait(ctx); err != nil {
			s.metrics.RecordRefreshError(time.Since(start))
			return err
		}

		results, err := s.prices.BatchGetPrices(ctx, names[batchStart:end])
		if err != nil {
			s.logger.Error("batch refresh failed", "batch_start", batchStart, "error", err)
			s.metrics.RecordRefreshError(time.Since(start))
			return err
		}

		for _, result := range results {
			if result.Error == "" {
				refreshed++
			} else {
				degraded++
			}
		}
	}

	duration := time.Since(start)
	s.metrics.RecordRefreshSuccess(duration)

	s.logger.Info("refresh completed",
		"symbols", len(names),
		"refreshed", refreshed,
		"degraded", degraded,
		"duration_ms", duration.Milliseconds(),
	)

	return nil
}

// Ensure RefreshService implements ports.RefreshService
var _ ports.RefreshService = (*RefreshService)(nil)
