package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"explore-backend/config"
	"explore-backend/metrics"
	"explore-backend/models"
)

const breakerName = "signal-store"

// GuardedStore wraps a Store with a circuit breaker and maps every failure
// to ErrStorageUnavailable. It never retries.
type GuardedStore struct {
	inner  Store
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

// NewGuardedStore opens the breaker after cfg.FailureThreshold consecutive failures
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewGuardedStore(inner Store, cfg config.BreakerConfig, logger zerolog.Logger) *GuardedStore {
	log := logger.With().Str("component", "store-breaker").Logger()
	metrics.StoreBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Cancelled requests and rejected input say nothing about store health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, ErrInvalidInput) ||
				errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.StoreBreakerState.Set(stateToFloat(to))
		},
	})

	return &GuardedStore{inner: inner, cb: cb, logger: log}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state name
func (g *GuardedStore) State() string {
	return g.cb.State().String()
}

func guard[T any](g *GuardedStore, op string, fn func() (T, error)) (T, error) {
	res, err := g.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
		}
		return zero, storageError(op, err)
	}
	v, _ := res.(T)
	return v, nil
}

// found pairs an optional lookup result so it fits through guard
type found[T any] struct {
	value T
	ok    bool
}

func guardLookup[T any](g *GuardedStore, op string, fn func() (T, bool, error)) (T, bool, error) {
	r, err := guard(g, op, func() (found[T], error) {
		v, ok, err := fn()
		return found[T]{value: v, ok: ok}, err
	})
	return r.value, r.ok, err
}

func (g *GuardedStore) GenreViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	return guard(g, "genre view counts", func() (models.CountSignal, error) {
		return g.inner.GenreViewCounts(ctx, userID, windowDays)
	})
}

func (g *GuardedStore) TagViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	return guard(g, "tag view counts", func() (models.CountSignal, error) {
		return g.inner.TagViewCounts(ctx, userID, windowDays)
	})
}

func (g *GuardedStore) AllGenreIDs(ctx context.Context) ([]int, error) {
	return guard(g, "all genre ids", func() ([]int, error) { return g.inner.AllGenreIDs(ctx) })
}

func (g *GuardedStore) AllTagIDs(ctx context.Context) ([]int, error) {
	return guard(g, "all tag ids", func() ([]int, error) { return g.inner.AllTagIDs(ctx) })
}

func (g *GuardedStore) Genres(ctx context.Context) ([]models.Genre, error) {
	return guard(g, "genres", func() ([]models.Genre, error) { return g.inner.Genres(ctx) })
}

func (g *GuardedStore) RandomUnseenBookByGenre(ctx context.Context, genreID int, userID int64) (models.BookCandidate, bool, error) {
	return guardLookup(g, "random unseen book by genre", func() (models.BookCandidate, bool, error) {
		return g.inner.RandomUnseenBookByGenre(ctx, genreID, userID)
	})
}

func (g *GuardedStore) RandomUnseenBookByTag(ctx context.Context, tagID int, userID int64) (models.BookCandidate, bool, error) {
	return guardLookup(g, "random unseen book by tag", func() (models.BookCandidate, bool, error) {
		return g.inner.RandomUnseenBookByTag(ctx, tagID, userID)
	})
}

func (g *GuardedStore) TrendingBooks(ctx context.Context, windowDays, limit int) ([]models.TrendingBook, error) {
	return guard(g, "trending books", func() ([]models.TrendingBook, error) {
		return g.inner.TrendingBooks(ctx, windowDays, limit)
	})
}

func (g *GuardedStore) RatedBooks(ctx context.Context) ([]models.RatedBook, error) {
	return guard(g, "rated books", func() ([]models.RatedBook, error) {
		return g.inner.RatedBooks(ctx)
	})
}

func (g *GuardedStore) NewestBooks(ctx context.Context, limit int) ([]models.BookCandidate, error) {
	return guard(g, "newest books", func() ([]models.BookCandidate, error) {
		return g.inner.NewestBooks(ctx, limit)
	})
}

func (g *GuardedStore) NewestBooksByGenre(ctx context.Context, genreID, limit int) ([]models.BookCandidate, error) {
	return guard(g, "newest books by genre", func() ([]models.BookCandidate, error) {
		return g.inner.NewestBooksByGenre(ctx, genreID, limit)
	})
}

func (g *GuardedStore) GlobalRatingAverage(ctx context.Context) (float64, error) {
	return guard(g, "global rating average", func() (float64, error) {
		return g.inner.GlobalRatingAverage(ctx)
	})
}

func (g *GuardedStore) BookAuthor(ctx context.Context, bookID int64) (int64, bool, error) {
	return guardLookup(g, "book author", func() (int64, bool, error) {
		return g.inner.BookAuthor(ctx, bookID)
	})
}

func (g *GuardedStore) RecordView(ctx context.Context, view *models.BookView) error {
	_, err := guard(g, "record view", func() (struct{}, error) {
		return struct{}{}, g.inner.RecordView(ctx, view)
	})
	return err
}

func (g *GuardedStore) UpsertRating(ctx context.Context, rating *models.Rating) error {
	_, err := guard(g, "upsert rating", func() (struct{}, error) {
		return struct{}{}, g.inner.UpsertRating(ctx, rating)
	})
	return err
}

func (g *GuardedStore) ActivityStats(ctx context.Context) (models.ActivityStats, error) {
	return guard(g, "activity stats", func() (models.ActivityStats, error) {
		return g.inner.ActivityStats(ctx)
	})
}
