package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app/apptest"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/cache"
)

func newTestCatalog(t *testing.T, sources ...QuoteSource) *PairCatalog {
	t.Helper()
	store := cache.NewMemoryStore[[]string](time.Minute)
	t.Cleanup(store.Close)
	return NewPairCatalog(sources, newTestFetcher(nil), store, 0, &mockLogger{})
}

func TestIntersectPairs(t *testing.T) {
	tests := []struct {
		name  string
		lists [][]string
		want  []string
	}{
		{
			name:  "no_lists",
			lists: nil,
			want:  nil,
		},
		{
			name:  "single_list_sorted_and_deduplicated",
			lists: [][]string{{"ETH/USDT", "BTC/USDT", "ETH/USDT"}},
			want:  []string{"BTC/USDT", "ETH/USDT"},
		},
		{
			name: "intersection_of_three",
			lists: [][]string{
				{"BTC/USDT", "ETH/USDT", "SOL/USDT"},
				{"SOL/USDT", "BTC/USDT", "XRP/USDT"},
				{"BTC/USDT", "SOL/USDT", "ETH/USDT"},
			},
			want: []string{"BTC/USDT", "SOL/USDT"},
		},
		{
			name: "duplicates_do_not_count_twice",
			lists: [][]string{
				{"BTC/USDT", "BTC/USDT"},
				{"ETH/USDT"},
			},
			want: nil,
		},
		{
			name: "byte_wise_order",
			lists: [][]string{
				{"btc/usdt", "BTC/USDT", "1INCH/USDT"},
				{"BTC/USDT", "btc/usdt", "1INCH/USDT"},
			},
			want: []string{"1INCH/USDT", "BTC/USDT", "btc/usdt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntersectPairs(tt.lists))
		})
	}
}

func TestPairCatalog_NoSources(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.ResolveCommonPairs(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}

func TestPairCatalog_ExcludesFailedSources(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "100", "ETH/USDT": "10", "SOL/USDT": "20"})
	b := apptest.NewSource("B", map[string]string{"ETH/USDT": "10.5", "BTC/USDT": "110"})
	c := apptest.Failing("C", apptest.Unreachable("C"))

	pairs, err := newTestCatalog(t, a, b, c).ResolveCommonPairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, pairs)
	assert.Equal(t, int32(DefaultAttempts), c.ListCalls.Load(), "transient failures are retried")
}

func TestPairCatalog_AllSourcesUnavailable(t *testing.T) {
	a := apptest.Failing("A", apptest.Unreachable("A"))
	b := apptest.Failing("B", apperror.New(apperror.CodeExchangeRejected))

	_, err := newTestCatalog(t, a, b).ResolveCommonPairs(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeAllSourcesUnavailable, apperror.GetCode(err))
	assert.Equal(t, []string{"A", "B"}, apperror.SourcesOf(err))
	assert.Equal(t, int32(1), b.ListCalls.Load(), "permanent failures are not retried")
}

func TestPairCatalog_NoCommonPairs(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "1"})
	b := apptest.NewSource("B", map[string]string{"ETH/USDT": "1"})
	c := apptest.Failing("C", apptest.Unreachable("C"))

	_, err := newTestCatalog(t, a, b, c).ResolveCommonPairs(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNoCommonPairs, apperror.GetCode(err))
	assert.Equal(t, []string{"A", "B"}, apperror.SourcesOf(err))
}

func TestPairCatalog_CachesResult(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "1", "ETH/USDT": "1"})
	b := apptest.NewSource("B", map[string]string{"BTC/USDT": "1", "ETH/USDT": "1"})
	catalog := newTestCatalog(t, a, b)
	ctx := context.Background()

	first, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	second, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), a.ListCalls.Load())
	assert.Equal(t, int32(1), b.ListCalls.Load())

	// Mutating the returned slice must not leak into the cache.
	first[0] = "XXX/YYY"
	third, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, third)
}

func TestPairCatalog_ExpiresAfterTTL(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "1"})
	store := cache.NewMemoryStore[[]string](0)
	t.Cleanup(store.Close)
	catalog := NewPairCatalog([]QuoteSource{a}, newTestFetcher(nil), store, 200*time.Millisecond, &mockLogger{})
	ctx := context.Background()

	_, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	_, err = catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), a.ListCalls.Load(), "served from cache before expiry")

	a.Prices = map[string]string{"BTC/USDT": "1", "ETH/USDT": "1"}

	require.Eventually(t, func() bool {
		pairs, err := catalog.ResolveCommonPairs(ctx)
		return err == nil && len(pairs) == 2
	}, 2*time.Second, 50*time.Millisecond)
	assert.Equal(t, int32(2), a.ListCalls.Load(), "recomputed once after expiry")
}

func TestPairCatalog_FailuresAreNotCached(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "1"})
	a.Errs = []error{apperror.New(apperror.CodeExchangeRejected)}
	catalog := newTestCatalog(t, a)
	ctx := context.Background()

	_, err := catalog.ResolveCommonPairs(ctx)
	require.Error(t, err)

	pairs, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT"}, pairs)
	assert.Equal(t, int32(2), a.ListCalls.Load())
}

func TestPairCatalog_ForgetIsIdempotent(t *testing.T) {
	a := apptest.NewSource("A", map[string]string{"BTC/USDT": "1"})
	catalog := newTestCatalog(t, a)
	ctx := context.Background()

	require.NoError(t, catalog.Forget(ctx), "forgetting an empty cache")

	_, err := catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	require.NoError(t, catalog.Forget(ctx))
	require.NoError(t, catalog.Forget(ctx))

	_, err = catalog.ResolveCommonPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.ListCalls.Load(), "forget forces recomputation")
}
