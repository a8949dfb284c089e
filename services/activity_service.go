package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"explore-backend/logging"
	"explore-backend/models"
)

// BreakerReporter exposes a circuit breaker state name
type BreakerReporter interface {
	State() string
}

// ActivityService records reader activity and reports engine statistics
type ActivityService struct {
	store   ActivityStore
	average *GlobalAverage
	catalog *CatalogService
	breaker BreakerReporter
	now     func() time.Time
	logger  zerolog.Logger
}

// ExploreStats is the body of the stats endpoint
type ExploreStats struct {
	Activity             models.ActivityStats `json:"activity"`
	GlobalAverage        float64              `json:"global_average"`
	GlobalAverageUpdated *time.Time           `json:"global_average_updated_at,omitempty"`
	Cache                CacheStats           `json:"cache"`
	BreakerState         string               `json:"breaker_state,omitempty"`
}

// NewActivityService creates an activity service. breaker may be nil.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewActivityService(store ActivityStore, average *GlobalAverage, catalog *CatalogService, breaker BreakerReporter, logger zerolog.Logger) *ActivityService {
	return &ActivityService{
		store:   store,
		average: average,
		catalog: catalog,
		breaker: breaker,
		now:     time.Now,
		logger:  logger.With().Str("component", "activity").Logger(),
	}
}

// RecordView stores one view of a discoverable book
func (s *ActivityService) RecordView(ctx context.Context, bookID, userID int64) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if _, err := s.requireBook(ctx, bookID); err != nil {
		return err
	}

	view := &models.BookView{BookID: bookID, UserID: userID, ViewedAt: s.now().UTC()}
	if err := s.store.RecordView(ctx, view); err != nil {
		return storageError("record view", err)
	}

	log := logging.Ctx(ctx, s.logger)
	log.Debug().Int64("book_id", bookID).Int64("user_id", userID).Msg("view recorded")
	return nil
}

// RateBook sets userID's score for bookID, replacing an earlier one.
// Authors cannot rate their own books.
func (s *ActivityService) RateBook(ctx context.Context, bookID, userID int64, score int) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if score < models.MinRatingScore || score > models.MaxRatingScore {
		return invalidInput("score must be between %d and %d, got %d", models.MinRatingScore, models.MaxRatingScore, score)
	}
	authorID, err := s.requireBook(ctx, bookID)
	if err != nil {
		return err
	}
	if authorID == userID {
		return invalidInput("authors cannot rate their own book")
	}

	rating := &models.Rating{BookID: bookID, UserID: userID, Score: score}
	if err := s.store.UpsertRating(ctx, rating); err != nil {
		return storageError("upsert rating", err)
	}

	log := logging.Ctx(ctx, s.logger)
	log.Debug().Int64("book_id", bookID).Int64("user_id", userID).Int("score", score).Msg("rating stored")
	return nil
}

func (s *ActivityService) requireBook(ctx context.Context, bookID int64) (int64, error) {
	if bookID <= 0 {
		return 0, invalidInput("book id must be positive, got %d", bookID)
	}
	authorID, ok, err := s.store.BookAuthor(ctx, bookID)
	if err != nil {
		return 0, storageError("book author", err)
	}
	if !ok {
		return 0, ErrNotFound
	}
	return authorID, nil
}

// Stats reports stored activity, the cached global average, cache and breaker state
func (s *ActivityService) Stats(ctx context.Context) (ExploreStats, error) {
	activity, err := s.store.ActivityStats(ctx)
	if err != nil {
		return ExploreStats{}, storageError("activity stats", err)
	}

	stats := ExploreStats{Activity: activity}
	avg, refreshed := s.average.Value()
	stats.GlobalAverage = avg
	if !refreshed.IsZero() {
		stats.GlobalAverageUpdated = &refreshed
	}
	if s.catalog != nil {
		stats.Cache = s.catalog.CacheStats()
	}
	if s.breaker != nil {
		stats.BreakerState = s.breaker.State()
	}
	return stats, nil
}
