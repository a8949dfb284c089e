package services

import (
	"context"

	"explore-backend/models"
)

// SignalStore is the read side the ranking engine needs. Every query only ever
// sees discoverable books. "Not found" is reported through the bool result,
// never as an error.
type SignalStore interface {
	GenreViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error)
	TagViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error)

	AllGenreIDs(ctx context.Context) ([]int, error)
	AllTagIDs(ctx context.Context) ([]int, error)
	Genres(ctx context.Context) ([]models.Genre, error)

	// RandomUnseenBookByGenre returns one random book of the genre the user has never viewed
	RandomUnseenBookByGenre(ctx context.Context, genreID int, userID int64) (models.BookCandidate, bool, error)
	// RandomUnseenBookByTag returns one random book with the tag the user has never viewed
	RandomUnseenBookByTag(ctx context.Context, tagID int, userID int64) (models.BookCandidate, bool, error)

	TrendingBooks(ctx context.Context, windowDays, limit int) ([]models.TrendingBook, error)
	// RatedBooks lists every discoverable book with its rating aggregate, unranked
	RatedBooks(ctx context.Context) ([]models.RatedBook, error)
	NewestBooks(ctx context.Context, limit int) ([]models.BookCandidate, error)
	NewestBooksByGenre(ctx context.Context, genreID, limit int) ([]models.BookCandidate, error)

	// GlobalRatingAverage is the mean score over all ratings, zero when there are none
	GlobalRatingAverage(ctx context.Context) (float64, error)
}

// ActivityStore is the write side fed by readers
type ActivityStore interface {
	// BookAuthor returns the author of a discoverable book
	BookAuthor(ctx context.Context, bookID int64) (int64, bool, error)
	RecordView(ctx context.Context, view *models.BookView) error
	UpsertRating(ctx context.Context, rating *models.Rating) error
	ActivityStats(ctx context.Context) (models.ActivityStats, error)
}

// Store is implemented by the database layer
type Store interface {
	SignalStore
	ActivityStore
}
