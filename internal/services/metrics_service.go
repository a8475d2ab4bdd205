package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
)

// MetricsService implements the ports.MetricsService interface
type MetricsService struct {
	symbolRepo  ports.SymbolRepository
	quoteRepo   ports.QuoteRepository
	historyRepo ports.HistoryRepository
	provider    ports.QuoteProvider
	thresholds  domain.StalenessThresholds
	startTime   time.Time
	logger      *slog.Logger

	mu                  sync.RWMutex
	lastRefreshTime     *time.Time
	lastRefreshDuration time.Duration
	refreshSuccessCount int64
	refreshErrorCount   int64
	fallbackCount       int64
}

// NewMetricsService creates a new metrics service
func NewMetricsService(
	symbolRepo ports.SymbolRepository,
	quoteRepo ports.QuoteRepository,
	historyRepo ports.HistoryRepository,
	provider ports.QuoteProvider,
	thresholds domain.StalenessThresholds,
	logger *slog.Logger,
) *MetricsService {
	return &MetricsService{
		symbolRepo:  symbolRepo,
		quoteRepo:   quoteRepo,
		historyRepo: historyRepo,
		provider:    provider,
		thresholds:  thresholds,
		startTime:   time.Now(),
		logger:      logger.With("component", "metrics_service"),
	}
}

// GetMetrics returns current operational metrics
func (m *MetricsService) GetMetrics(ctx context.Context) (*domain.Metrics, error) {
	m.mu.RLock()
	lastRefreshTime := m.lastRefreshTime
	lastRefreshDuration := m.lastRefreshDuration
	refreshSuccessCount := m.refreshSuccessCount
	refreshErrorCount := m.refreshErrorCount
	fallbackCount := m.fallbackCount
	m.mu.RUnlock()

	totalSymbols, err := m.symbolRepo.Count(ctx)
	if err != nil {
		m.logger.Error("failed to count symbols", "error", err)
		totalSymbols = 0
	}

	activeSymbols, err := m.symbolRepo.CountActive(ctx)
	if err != nil {
		m.logger.Error("failed to count active symbols", "error", err)
		activeSymbols = 0
	}

	cacheStats := domain.CacheStats{}
	if stats, err := m.quoteRepo.Stats(ctx, m.thresholds); err != nil {
		m.logger.Error("failed to get cache stats", "error", err)
	} else {
		cacheStats = *stats
	}

	historyRecords, err := m.historyRepo.Count(ctx)
	if err != nil {
		m.logger.Error("failed to count history records", "error", err)
		historyRecords = 0
	}

	dbStatus := "healthy"
	if err := m.checkDatabaseHealth(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	upstreamStatus := "healthy"
	if err := m.provider.Ping(ctx); err != nil {
		upstreamStatus = "unhealthy"
	}

	return &domain.Metrics{
		Uptime:              time.Since(m.startTime).Seconds(),
		TrackedSymbols:      totalSymbols,
		ActiveSymbols:       activeSymbols,
		Cache:               cacheStats,
		HistoryRecords:      historyRecords,
		LastRefreshTime:     lastRefreshTime,
		LastRefreshDuration: float64(lastRefreshDuration.Milliseconds()),
		RefreshSuccessCount: refreshSuccessCount,
		RefreshErrorCount:   refreshErrorCount,
		FallbackCount:       fallbackCount,
		DatabaseStatus:      dbStatus,
		UpstreamStatus:      upstreamStatus,
	}, nil
}

// RecordRefreshSuccess records a successful refresh cycle
func (m *MetricsService) RecordRefreshSuccess(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastRefreshTime = &now
	m.lastRefreshDuration = duration
	m.refreshSuccessCount++
}

// RecordRefreshError records a failed refresh cycle
func (m *MetricsService) RecordRefreshError(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastRefreshTime = &now
	m.lastRefreshDuration = duration
	m.refreshErrorCount++
}

// RecordFallback records one degraded (non-fresh) resolution
func (m *MetricsService) RecordFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbackCount++
}

// GetLastRefreshTime returns the time of the last refresh cycle
func (m *MetricsService) GetLastRefreshTime() *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefreshTime
}

func (m *MetricsService) checkDatabaseHealth(ctx context.Context) error {
	// Simple health check - count symbols
	_, err := m.symbolRepo.Count(ctx)
	return err
}

// Ensure MetricsService implements ports.MetricsService
var _ ports.MetricsService = (*MetricsService)(nil)
