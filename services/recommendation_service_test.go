package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explore-backend/config"
	"explore-backend/models"
	"explore-backend/utils"
)

var errBoom = errors.New("boom")

func newTestCatalog(t *testing.T, store SignalStore, cfg config.ExploreConfig) *CatalogService {
	t.Helper()
	catalog, err := NewCatalogService(store, cfg, config.Default().Cache, NewGlobalAverage(3.8, cfg.BayesConfidence), nopLogger())
	require.NoError(t, err)
	t.Cleanup(catalog.Close)
	return catalog
}

func newTestRecommender(t *testing.T, store *fakeStore, cfg config.ExploreConfig, seed uint64) *RecommendationService {
	t.Helper()
	return NewRecommendationService(store, newTestCatalog(t, store, cfg), cfg, utils.NewLockedRand(seed), nopLogger())
}

func TestRecommend_InvalidUserID(t *testing.T) {
	store := newFakeStore()
	svc := newTestRecommender(t, store, testExploreConfig(), 1)

	for _, id := range []int64{0, -5} {
		_, err := svc.Recommend(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, store.callCount("genre_counts"))
}

func TestRecommend_NoSignalFallsBackToTrending(t *testing.T) {
	store := newFakeStore()
	store.trending = trendingRows(7, 3, 9)
	svc := newTestRecommender(t, store, testExploreConfig(), 1)

	rec, err := svc.Recommend(context.Background(), 42)
	require.NoError(t, err)

	assert.True(t, rec.Fallback)
	assert.Equal(t, []int64{7, 3, 9}, bookIDs(rec.Books))
	assert.Zero(t, store.callCount("random_genre"))
	assert.Zero(t, store.callCount("genre_ids"), "universes are not needed without signal")
}

func TestRecommend_SingleKeyFillsFromThatKey(t *testing.T) {
	store := newFakeStore()
	store.genreCounts = models.CountSignal{1: 4}
	store.genreIDs = []int{1}
	ids := make([]int64, 40)
	for i := range ids {
		ids[i] = int64(100 + i)
	}
	store.byGenre[1] = candidates(ids...)
	store.trending = trendingRows(1, 2, 3)

	cfg := testExploreConfig()
	svc := newTestRecommender(t, store, cfg, 1)

	rec, err := svc.Recommend(context.Background(), 42)
	require.NoError(t, err)

	assert.False(t, rec.Fallback)
	assert.Equal(t, ids[:cfg.Limit], bookIDs(rec.Books))
	assert.Equal(t, cfg.Limit, store.callCount("random_genre"))
	assert.Zero(t, store.callCount("trending"))
}

func TestRecommend_DedupsAndFillsFromTrending(t *testing.T) {
	store := newFakeStore()
	store.genreCounts = models.CountSignal{1: 4}
	store.genreIDs = []int{1}
	store.byGenre[1] = candidates(1, 2, 3)
	store.trending = trendingRows(2, 10, 11)

	cfg := testExploreConfig()
	svc := newTestRecommender(t, store, cfg, 1)

	rec, err := svc.Recommend(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3, 10, 11}, bookIDs(rec.Books))
	assert.Equal(t, cfg.MaxAttempts(), store.callCount("random_genre"), "budget is spent before falling back")
}

func TestRecommend_NoCandidatesUsesTrendingOnly(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		expected int
	}{
		{name: "pool larger than limit", poolSize: 100, expected: 30},
		{name: "pool smaller than limit", poolSize: 7, expected: 7},
		{name: "empty pool", poolSize: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.genreCounts = models.CountSignal{1: 2}
			store.tagCounts = models.CountSignal{8: 1}
			store.genreIDs = []int{1, 2}
			store.tagIDs = []int{8}
			ids := make([]int64, tt.poolSize)
			for i := range ids {
				ids[i] = int64(i + 1)
			}
			store.trending = trendingRows(ids...)

			cfg := testExploreConfig()
			svc := newTestRecommender(t, store, cfg, 3)

			rec, err := svc.Recommend(context.Background(), 42)
			require.NoError(t, err)

			assert.False(t, rec.Fallback)
			assert.Len(t, rec.Books, tt.expected)
			if tt.expected > 0 {
				assert.Equal(t, ids[:tt.expected], bookIDs(rec.Books))
			}
			assert.Equal(t, cfg.MaxAttempts(), store.callCount("random_genre")+store.callCount("random_tag"))
		})
	}
}

func TestRecommend_PropagatesStorageErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errBoom
	svc := newTestRecommender(t, store, testExploreConfig(), 1)

	_, err := svc.Recommend(context.Background(), 42)
	assert.ErrorIs(t, err, errBoom)
}

func TestRecommend_LookupErrorAbortsSampling(t *testing.T) {
	store := newFakeStore()
	store.genreCounts = models.CountSignal{1: 1}
	store.genreIDs = []int{1}
	cfg := testExploreConfig()
	svc := newTestRecommender(t, store, cfg, 1)

	dist, ok, err := svc.Distribution(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, ok)

	store.err = errBoom
	_, err = svc.Sample(context.Background(), dist, 42, cfg.Limit, cfg.MaxAttempts())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, store.callCount("random_genre"))
}

func mixedStore() *fakeStore {
	store := newFakeStore()
	store.genreCounts = models.CountSignal{1: 6, 2: 2}
	store.tagCounts = models.CountSignal{5: 3}
	store.genreIDs = []int{1, 2, 3}
	store.tagIDs = []int{5, 6}
	for key, base := range map[int]int64{1: 100, 2: 200, 3: 300} {
		ids := make([]int64, 15)
		for i := range ids {
			ids[i] = base + int64(i%10) // repeats inside each genre
		}
		store.byGenre[key] = candidates(ids...)
	}
	// Tag books overlap with genre books
	store.byTag[5] = candidates(100, 101, 500, 501)
	store.byTag[6] = candidates(600)
	store.trending = trendingRows(100, 900, 901, 902)
	return store
}

func TestSample_NeverReturnsDuplicates(t *testing.T) {
	cfg := testExploreConfig()
	for seed := uint64(1); seed <= 25; seed++ {
		store := mixedStore()
		svc := newTestRecommender(t, store, cfg, seed)

		rec, err := svc.Recommend(context.Background(), 42)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(rec.Books), cfg.Limit)
		seen := map[int64]bool{}
		for _, b := range rec.Books {
			require.False(t, seen[b.BookID], "seed %d: duplicate book %d", seed, b.BookID)
			seen[b.BookID] = true
		}
	}
}

func TestSample_DeterministicForSeed(t *testing.T) {
	cfg := testExploreConfig()

	first, err := newTestRecommender(t, mixedStore(), cfg, 42).Recommend(context.Background(), 42)
	require.NoError(t, err)
	second, err := newTestRecommender(t, mixedStore(), cfg, 42).Recommend(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, bookIDs(first.Books), bookIDs(second.Books))
}

func TestSample_ReachesLimitWhenPoolIsLargeEnough(t *testing.T) {
	store := newFakeStore()
	store.genreCounts = models.CountSignal{1: 1}
	store.genreIDs = []int{1}
	store.byGenre[1] = candidates(1, 2, 3, 4, 5)
	ids := make([]int64, 40)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	store.trending = trendingRows(ids...)

	cfg := testExploreConfig()
	rec, err := newTestRecommender(t, store, cfg, 9).Recommend(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, rec.Books, cfg.Limit)
}

func TestSample_CancelledContext(t *testing.T) {
	store := mixedStore()
	cfg := testExploreConfig()
	svc := newTestRecommender(t, store, cfg, 1)

	dist, ok, err := svc.Distribution(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Sample(ctx, dist, 42, cfg.Limit, cfg.MaxAttempts())
	assert.ErrorIs(t, err, context.Canceled)
}
