package services

import (
	"context"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"explore-backend/config"
	"explore-backend/models"
)

func testBreakerConfig(threshold uint32) config.BreakerConfig {
	return config.BreakerConfig{FailureThreshold: threshold, MaxRequests: 1, Timeout: time.Minute}
}

func TestGuardedStore_WrapsFailures(t *testing.T) {
	store := newFakeStore()
	store.err = errBoom
	guarded := NewGuardedStore(store, testBreakerConfig(5), nopLogger())

	_, err := guarded.NewestBooks(context.Background(), 10)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "newest books")
}

func TestGuardedStore_PassesResultsThrough(t *testing.T) {
	store := newFakeStore()
	store.byTag[3] = candidates(33)
	store.genreCounts = models.CountSignal{2: 9}
	guarded := NewGuardedStore(store, testBreakerConfig(5), nopLogger())

	book, ok, err := guarded.RandomUnseenBookByTag(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(33), book.BookID)

	_, ok, err = guarded.RandomUnseenBookByGenre(context.Background(), 8, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	counts, err := guarded.GenreViewCounts(context.Background(), 1, 30)
	require.NoError(t, err)
	assert.Equal(t, models.CountSignal{2: 9}, counts)

	require.NoError(t, guarded.RecordView(context.Background(), &models.BookView{BookID: 1, UserID: 2}))
	assert.Len(t, store.views, 1)
}

func TestGuardedStore_OpensAfterConsecutiveFailures(t *testing.T) {
	store := newFakeStore()
	store.err = errBoom
	guarded := NewGuardedStore(store, testBreakerConfig(2), nopLogger())

	for i := 0; i < 2; i++ {
		_, err := guarded.AllGenreIDs(context.Background())
		require.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), guarded.State())

	// Open breaker fails fast without touching the store
	store.err = nil
	_, err := guarded.AllGenreIDs(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, store.callCount("genre_ids"))
}

func TestGuardedStore_CancellationDoesNotTrip(t *testing.T) {
	store := newFakeStore()
	store.err = context.Canceled
	guarded := NewGuardedStore(store, testBreakerConfig(1), nopLogger())

	for i := 0; i < 3; i++ {
		_, err := guarded.TrendingBooks(context.Background(), 7, 10)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrStorageUnavailable)
	}
	assert.Equal(t, gobreaker.StateClosed.String(), guarded.State())
}
