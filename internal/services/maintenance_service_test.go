package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/services"
)

func newMaintenanceService(quoteRepo *mockQuoteRepo, historyRepo *mockHistoryRepo) *services.MaintenanceService {
	return services.NewMaintenanceService(quoteRepo, historyRepo, domain.DefaultStalenessThresholds(), testLogger())
}

func TestMaintenanceService_CacheStats(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		statsFn: func(ctx context.Context, th domain.StalenessThresholds) (*domain.CacheStats, error) {
			assert.Equal(t, time.Hour, th.Fresh)
			return &domain.CacheStats{Count: 12, FreshCount: 8, StaleCount: 3, ExpiredCount: 1}, nil
		},
	}
	svc := newMaintenanceService(quoteRepo, &mockHistoryRepo{})

	stats, err := svc.CacheStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Count)
	assert.Equal(t, 8, stats.FreshCount)
}

func TestMaintenanceService_CleanupOrphanedQuotes(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		deleteOrphanedFn: func(ctx context.Context) (int64, error) {
			return 4, nil
		},
	}
	svc := newMaintenanceService(quoteRepo, &mockHistoryRepo{})

	removed, err := svc.CleanupOrphanedQuotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
}

func TestMaintenanceService_PruneHistory(t *testing.T) {
	t.Run("uses explicit retention", func(t *testing.T) {
		var cutoff time.Time
		historyRepo := &mockHistoryRepo{
			pruneFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				cutoff = olderThan
				return 7, nil
			},
		}
		svc := newMaintenanceService(&mockQuoteRepo{}, historyRepo)

		removed, err := svc.PruneHistory(context.Background(), 90)
		require.NoError(t, err)
		assert.Equal(t, int64(7), removed)

		expected := time.Now().UTC().AddDate(0, 0, -90)
		assert.WithinDuration(t, expected, cutoff, time.Minute)
	})

	t.Run("defaults retention when unset", func(t *testing.T) {
		var cutoff time.Time
		historyRepo := &mockHistoryRepo{
			pruneFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				cutoff = olderThan
				return 0, nil
			},
		}
		svc := newMaintenanceService(&mockQuoteRepo{}, historyRepo)

		_, err := svc.PruneHistory(context.Background(), 0)
		require.NoError(t, err)

		expected := time.Now().UTC().AddDate(0, 0, -365)
		assert.WithinDuration(t, expected, cutoff, time.Minute)
	})

	t.Run("masks storage failures", func(t *testing.T) {
		historyRepo := &mockHistoryRepo{
			pruneFn: func(ctx context.Context, olderThan time.Time) (int64, error) {
				return 0, domain.ErrDatabaseQuery
			},
		}
		svc := newMaintenanceService(&mockQuoteRepo{}, historyRepo)

		_, err := svc.PruneHistory(context.Background(), 30)
		assert.ErrorIs(t, err, domain.ErrInternal)
	})
}
