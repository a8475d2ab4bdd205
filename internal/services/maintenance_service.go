package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

const defaultRetentionDays = 365

// MaintenanceService implements cache and history housekeeping
type MaintenanceService struct {
	quoteRepo   ports.QuoteRepository
	historyRepo ports.HistoryRepository
	thresholds  domain.StalenessThresholds
	logger      *slog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	quoteRepo ports.QuoteRepository,
	historyRepo ports.HistoryRepository,
	thresholds domain.StalenessThresholds,
	logger *slog.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		quoteRepo:   quoteRepo,
		historyRepo: historyRepo,
		thresholds:  thresholds,
		logger:      logger.With("component", "maintenance_service"),
	}
}

// CacheStats summarizes the quote cache by staleness tier
func (s *MaintenanceService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	stats, err := s.quoteRepo.Stats(ctx, s.thresholds)
	if err != nil {
		s.logger.Error("failed to get cache stats", "error", err)
		return nil, domain.ErrInternal
	}
	return stats, nil
}

// CleanupOrphanedQuotes removes cache entries for symbols no tracked
// holding references anymore
func (s *MaintenanceService) CleanupOrphanedQuotes(ctx context.Context) (int64, error) {
	removed, err := s.quoteRepo.DeleteOrphaned(ctx)
	if err != nil {
		s.logger.Error("failed to cleanup orphaned quotes", "error", err)
		return 0, domain.ErrInternal
	}

	if removed > 0 {
		s.logger.Info("orphaned quotes removed", "count", removed)
	}
	return removed, nil
}

// PruneHistory removes history records older than daysToKeep days
func (s *MaintenanceService) PruneHistory(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		daysToKeep = defaultRetentionDays
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)
	removed, err := s.historyRepo.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to prune history", "error", err)
		return 0, domain.ErrInternal
	}

	if removed > 0 {
		s.logger.Info("history pruned", "count", removed, "days_kept", daysToKeep)
	}
	return removed, nil
}

// Ensure MaintenanceService implements ports.MaintenanceService
var _ ports.MaintenanceService = (*MaintenanceService)(nil)
