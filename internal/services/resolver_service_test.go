package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/services"
	"github.com/prxgr4mmer/price-resolver/pkg/ratelimit"
)

type resolverFixture struct {
	provider    *mockProvider
	quoteRepo   *mockQuoteRepo
	historyRepo *mockHistoryRepo
	fallback    *mockFallback
	limiter     *ratelimit.Limiter
	metrics     *mockMetrics
	svc         *services.ResolverService
}

func newResolverFixture(limiterCfg ratelimit.Config) *resolverFixture {
	f := &resolverFixture{
		provider:    &mockProvider{},
		quoteRepo:   &mockQuoteRepo{},
		historyRepo: &mockHistoryRepo{},
		fallback:    &mockFallback{},
		limiter:     ratelimit.New(limiterCfg),
		metrics:     &mockMetrics{},
	}
	f.svc = services.NewResolverService(
		f.provider,
		f.quoteRepo,
		f.historyRepo,
		f.fallback,
		f.limiter,
		f.metrics,
		domain.DefaultStalenessThresholds(),
		testLogger(),
	)
	return f
}

func defaultFixture() *resolverFixture {
	return newResolverFixture(ratelimit.DefaultConfig())
}

func TestResolverService_GetPriceWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh cache short-circuits the upstream", func(t *testing.T) {
		f := defaultFixture()
		f.quoteRepo.findFn = func(ctx context.Context, symbol string) (*domain.Quote, error) {
			return cachedQuote(symbol, 2850.55, 10*time.Minute), nil
		}

		resolved, err := f.svc.GetPriceWithFallback(ctx, "reliance", false)
		require.NoError(t, err)
		assert.True(t, resolved.Cached)
		assert.False(t, resolved.FallbackUsed)
		assert.Equal(t, domain.ConfidenceHigh, resolved.Confidence)
		assert.Equal(t, "RELIANCE", resolved.Symbol)
		assert.Empty(t, f.provider.fetchCalls, "fresh cache must not trigger a fetch")
	})

	t.Run("force refresh bypasses a fresh cache entry", func(t *testing.T) {
		f := defaultFixture()
		f.quoteRepo.findFn = func(ctx context.Context, symbol string) (*domain.Quote, error) {
			return cachedQuote(symbol, 2850.55, 10*time.Minute), nil
		}
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"NSE:RELIANCE": decimal.NewFromFloat(2900.00)}, nil
		}

		resolved, err := f.svc.GetPriceWithFallback(ctx, "RELIANCE", true)
		require.NoError(t, err)
		assert.False(t, resolved.Cached)
		assert.True(t, resolved.Price.Equal(decimal.NewFromFloat(2900.00)))
		require.Len(t, f.provider.fetchCalls, 1)
		assert.Equal(t, []string{"NSE:RELIANCE"}, f.provider.fetchCalls[0])
	})

	t.Run("successful fetch writes cache and history", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"MF:120503": decimal.NewFromFloat(87.12)}, nil
		}

		resolved, err := f.svc.GetPriceWithFallback(ctx, "120503", false)
		require.NoError(t, err)
		assert.Equal(t, "GOOGLE_SCRIPT", resolved.Source)
		assert.Equal(t, domain.ConfidenceHigh, resolved.Confidence)

		require.Len(t, f.quoteRepo.upserted, 1)
		assert.Equal(t, "120503", f.quoteRepo.upserted[0].Symbol)
		require.Len(t, f.historyRepo.appended, 1)
		assert.True(t, f.historyRepo.appended[0].Price.Equal(decimal.NewFromFloat(87.12)))
	})

	t.Run("fetch failure degrades through the ladder", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return nil, domain.ErrUpstreamUnavailable
		}
		f.fallback.resolveFn = func(ctx context.Context, symbol string) (*domain.ResolvedPrice, error) {
			return &domain.ResolvedPrice{
				Symbol:       symbol,
				Price:        decimal.NewFromFloat(2850.55),
				Source:       "GOOGLE_SCRIPT_STALE",
				Cached:       true,
				FallbackUsed: true,
				Confidence:   domain.ConfidenceMedium,
			}, nil
		}

		resolved, err := f.svc.GetPriceWithFallback(ctx, "RELIANCE", false)
		require.NoError(t, err)
		assert.Equal(t, "GOOGLE_SCRIPT_STALE", resolved.Source)
		assert.Equal(t, []string{"RELIANCE"}, f.fallback.resolveCalls)
		assert.Equal(t, 1, f.metrics.fallbackCount)
	})

	t.Run("symbol absent from response degrades", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{}, nil
		}

		_, err := f.svc.GetPriceWithFallback(ctx, "GHOST", false)
		require.Error(t, err)
		assert.True(t, domain.IsDataNotFound(err))
		assert.Equal(t, []string{"GHOST"}, f.fallback.resolveCalls)
	})

	t.Run("rate limit rejection skips the fetch entirely", func(t *testing.T) {
		f := newResolverFixture(ratelimit.Config{
			Burst:       1,
			BurstWindow: 10 * time.Second,
			PerMinute:   100,
			PerHour:     1000,
		})
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"NSE:INFY": decimal.NewFromFloat(1520.10)}, nil
		}
		f.fallback.resolveFn = func(ctx context.Context, symbol string) (*domain.ResolvedPrice, error) {
			return &domain.ResolvedPrice{
				Symbol:     symbol,
				Price:      decimal.NewFromFloat(1500.00),
				Source:     "GOOGLE_SCRIPT",
				Cached:     true,
				Confidence: domain.ConfidenceHigh,
			}, nil
		}

		// First call consumes the single burst slot.
		_, err := f.svc.GetPriceWithFallback(ctx, "INFY", false)
		require.NoError(t, err)
		require.Len(t, f.provider.fetchCalls, 1)

		// Second call is rejected by admission and must not hit the upstream.
		resolved, err := f.svc.GetPriceWithFallback(ctx, "INFY", false)
		require.NoError(t, err)
		assert.Len(t, f.provider.fetchCalls, 1)
		assert.True(t, resolved.Cached)
	})

	t.Run("fallback exhaustion surfaces the terminal error", func(t *testing.T) {
		f := defaultFixture()

		_, err := f.svc.GetPriceWithFallback(ctx, "GHOST", false)
		require.Error(t, err)
		assert.True(t, domain.IsDataNotFound(err))
		assert.Zero(t, f.metrics.fallbackCount, "terminal failure is not a served fallback")
	})
}

func TestResolverService_GetPrice(t *testing.T) {
	f := defaultFixture()
	f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
		return map[string]decimal.Decimal{"NSE:INFY": decimal.NewFromFloat(1520.10)}, nil
	}

	price, err := f.svc.GetPrice(context.Background(), "INFY", false)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(1520.10)))
}

func TestResolverService_BatchGetPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		f := defaultFixture()
		results, err := f.svc.BatchGetPrices(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Empty(t, f.provider.fetchCalls)
	})

	t.Run("partial success marks missing symbols", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			assert.Equal(t, []string{"NSE:RELIANCE", "NSE:GHOST", "MF:120503"}, qs)
			return map[string]decimal.Decimal{
				"NSE:RELIANCE": decimal.NewFromFloat(2850.55),
				"MF:120503":    decimal.NewFromFloat(87.12),
			}, nil
		}

		results, err := f.svc.BatchGetPrices(ctx, []string{"reliance", "GHOST", "120503"})
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "RELIANCE", results[0].Symbol)
		require.NotNil(t, results[0].Price)
		assert.True(t, results[0].Price.Equal(decimal.NewFromFloat(2850.55)))
		assert.Empty(t, results[0].Error)

		assert.Equal(t, "GHOST", results[1].Symbol)
		assert.Nil(t, results[1].Price)
		assert.Equal(t, "not available", results[1].Error)

		require.NotNil(t, results[2].Price)
		assert.True(t, results[2].Price.Equal(decimal.NewFromFloat(87.12)))

		// Only the resolved symbols are written back.
		assert.Len(t, f.quoteRepo.upserted, 2)
		assert.Len(t, f.historyRepo.appended, 2)
	})

	t.Run("single bulk request for many symbols", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{}, nil
		}

		_, err := f.svc.BatchGetPrices(ctx, []string{"A", "B", "C", "D"})
		require.NoError(t, err)
		assert.Len(t, f.provider.fetchCalls, 1)
	})

	t.Run("total failure serves raw cache without the ladder", func(t *testing.T) {
		f := defaultFixture()
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return nil, domain.ErrUpstreamUnavailable
		}
		f.quoteRepo.findFn = func(ctx context.Context, symbol string) (*domain.Quote, error) {
			if symbol == "RELIANCE" {
				return cachedQuote(symbol, 2850.55, 5*time.Hour), nil
			}
			return nil, domain.ErrQuoteNotFound
		}

		results, err := f.svc.BatchGetPrices(ctx, []string{"RELIANCE", "GHOST"})
		require.NoError(t, err)
		require.Len(t, results, 2)

		require.NotNil(t, results[0].Price)
		assert.Equal(t, "stale", results[0].Error)

		assert.Nil(t, results[1].Price)
		assert.Equal(t, "no cached data available", results[1].Error)

		assert.Empty(t, f.fallback.resolveCalls, "bulk failure must not consult the ladder")
	})

	t.Run("limiter rejection serves raw cache", func(t *testing.T) {
		f := newResolverFixture(ratelimit.Config{
			Burst:       1,
			BurstWindow: 10 * time.Second,
			PerMinute:   100,
			PerHour:     1000,
		})
		f.provider.fetchQuotesFn = func(ctx context.Context, qs []string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"NSE:INFY": decimal.NewFromFloat(1520.10)}, nil
		}
		f.quoteRepo.findFn = func(ctx context.Context, symbol string) (*domain.Quote, error) {
			return cachedQuote(symbol, 1500.00, 10*time.Minute), nil
		}

		_, err := f.svc.BatchGetPrices(ctx, []string{"INFY"})
		require.NoError(t, err)

		results, err := f.svc.BatchGetPrices(ctx, []string{"INFY"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].Price)
		assert.Empty(t, results[0].Error, "fresh cached entry carries no staleness marker")
		assert.Len(t, f.provider.fetchCalls, 1)
	})
}

func TestResolverService_GetCachedPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies cached entry", func(t *testing.T) {
		f := defaultFixture()
		f.quoteRepo.findFn = func(ctx context.Context, symbol string) (*domain.Quote, error) {
			return cachedQuote(symbol, 2850.55, 5*time.Hour), nil
		}

		aged, err := f.svc.GetCachedPrice(ctx, "reliance")
		require.NoError(t, err)
		assert.True(t, aged.IsStale())
		assert.Empty(t, f.provider.fetchCalls)
	})

	t.Run("missing entry", func(t *testing.T) {
		f := defaultFixture()
		_, err := f.svc.GetCachedPrice(ctx, "GHOST")
		assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
	})
}
