package database

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"explore-backend/models"
	"explore-backend/utils"
)

// Store answers the engine's aggregate queries with gorm
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore wraps an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

const candidateColumns = "books.id AS book_id, books.title, books.cover_url"

// discoverable restricts a books query to books that may be surfaced
func discoverable(db *gorm.DB) *gorm.DB {
	return db.Where("books.status IN ? AND books.deleted_at IS NULL", models.DiscoverableStatuses)
}

type idCount struct {
	ID    int
	Count int
}

func toSignal(rows []idCount) models.CountSignal {
	signal := make(models.CountSignal, len(rows))
	for _, r := range rows {
		signal[r.ID] = r.Count
	}
	return signal
}

// GenreViewCounts counts the user's views per genre within the window
func (s *Store) GenreViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	var rows []idCount
	err := s.db.WithContext(ctx).
		Table("book_views").
		Select("books.genre_id AS id, COUNT(*) AS count").
		Joins("JOIN books ON books.id = book_views.book_id AND books.deleted_at IS NULL").
		Where("book_views.user_id = ? AND book_views.viewed_at >= ?", userID, utils.WindowStart(s.now(), windowDays)).
		Group("books.genre_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toSignal(rows), nil
}

// TagViewCounts counts the user's views per tag within the window
func (s *Store) TagViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	var rows []idCount
	err := s.db.WithContext(ctx).
		Table("book_views").
		Select("book_tags.tag_id AS id, COUNT(*) AS count").
		Joins("JOIN books ON books.id = book_views.book_id AND books.deleted_at IS NULL").
		Joins("JOIN book_tags ON book_tags.book_id = book_views.book_id").
		Where("book_views.user_id = ? AND book_views.viewed_at >= ?", userID, utils.WindowStart(s.now(), windowDays)).
		Group("book_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toSignal(rows), nil
}

func (s *Store) AllGenreIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Model(&models.Genre{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) AllTagIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Model(&models.Tag{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (s *Store) Genres(ctx context.Context) ([]models.Genre, error) {
	var genres []models.Genre
	err := s.db.WithContext(ctx).Order("id").Find(&genres).Error
	return genres, err
}

// viewedBy selects the ids of books the user has opened
func (s *Store) viewedBy(userID int64) *gorm.DB {
	return s.db.Model(&models.BookView{}).Select("book_id").Where("user_id = ?", userID)
}

func (s *Store) randomUnseen(query *gorm.DB, userID int64) (models.BookCandidate, bool, error) {
	var c models.BookCandidate
	res := query.
		Model(&models.Book{}).
		Scopes(discoverable).
		Select(candidateColumns).
		Where("books.id NOT IN (?)", s.viewedBy(userID)).
		Order("RANDOM()").
		Limit(1).
		Scan(&c)
	if res.Error != nil {
		return models.BookCandidate{}, false, res.Error
	}
	return c, res.RowsAffected > 0, nil
}

// RandomUnseenBookByGenre picks a random book of the genre the user never viewed
func (s *Store) RandomUnseenBookByGenre(ctx context.Context, genreID int, userID int64) (models.BookCandidate, bool, error) {
	return s.randomUnseen(s.db.WithContext(ctx).Where("books.genre_id = ?", genreID), userID)
}

// RandomUnseenBookByTag picks a random book carrying the tag the user never viewed
func (s *Store) RandomUnseenBookByTag(ctx context.Context, tagID int, userID int64) (models.BookCandidate, bool, error) {
	q := s.db.WithContext(ctx).
		Joins("JOIN book_tags ON book_tags.book_id = books.id").
		Where("book_tags.tag_id = ?", tagID)
	return s.randomUnseen(q, userID)
}

// TrendingBooks returns books viewed within the window, most viewed first
func (s *Store) TrendingBooks(ctx context.Context, windowDays, limit int) ([]models.TrendingBook, error) {
	var rows []models.TrendingBook
	err := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Scopes(discoverable).
		Select(candidateColumns+", books.created_at, COUNT(book_views.id) AS view_count").
		Joins("JOIN book_views ON book_views.book_id = books.id AND book_views.viewed_at >= ?", utils.WindowStart(s.now(), windowDays)).
		Group("books.id").
		Order("view_count DESC, books.created_at DESC, books.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// RatedBooks returns every discoverable book with its rating count and average,
// ordered by id. Unrated books come back with a zero count.
func (s *Store) RatedBooks(ctx context.Context) ([]models.RatedBook, error) {
	aggregates := s.db.Model(&models.Rating{}).
		Select("book_id, COUNT(*) AS cnt, AVG(score) AS avg_score").
		Group("book_id")

	var rows []models.RatedBook
	err := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Scopes(discoverable).
		Select(candidateColumns+`, books.created_at,
			COALESCE(r.cnt, 0) AS rating_count,
			COALESCE(r.avg_score, 0) AS rating_average`).
		Joins("LEFT JOIN (?) AS r ON r.book_id = books.id", aggregates).
		Order("books.id").
		Scan(&rows).Error
	return rows, err
}

// NewestBooks lists discoverable books by creation time
func (s *Store) NewestBooks(ctx context.Context, limit int) ([]models.BookCandidate, error) {
	return s.newest(s.db.WithContext(ctx), limit)
}

// NewestBooksByGenre lists one genre's books by creation time
func (s *Store) NewestBooksByGenre(ctx context.Context, genreID, limit int) ([]models.BookCandidate, error) {
	return s.newest(s.db.WithContext(ctx).Where("books.genre_id = ?", genreID), limit)
}

func (s *Store) newest(query *gorm.DB, limit int) ([]models.BookCandidate, error) {
	var books []models.BookCandidate
	err := query.
		Model(&models.Book{}).
		Scopes(discoverable).
		Select(candidateColumns).
		Order("books.created_at DESC, books.id DESC").
		Limit(limit).
		Scan(&books).Error
	return books, err
}

// GlobalRatingAverage is the mean of every stored score, zero without ratings
func (s *Store) GlobalRatingAverage(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).Model(&models.Rating{}).Select("AVG(score)").Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// BookAuthor returns the author of a discoverable book
func (s *Store) BookAuthor(ctx context.Context, bookID int64) (int64, bool, error) {
	var row struct{ AuthorID int64 }
	res := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Scopes(discoverable).
		Select("books.author_id").
		Where("books.id = ?", bookID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, false, res.Error
	}
	return row.AuthorID, res.RowsAffected > 0, nil
}

func (s *Store) RecordView(ctx context.Context, view *models.BookView) error {
	if view.ViewedAt.IsZero() {
		view.ViewedAt = s.now().UTC()
	}
	return s.db.WithContext(ctx).Create(view).Error
}

// UpsertRating inserts the rating or replaces the score of an existing one
func (s *Store) UpsertRating(ctx context.Context, rating *models.Rating) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(rating).Error
}

// ActivityStats counts books, views, ratings and distinct viewers
func (s *Store) ActivityStats(ctx context.Context) (models.ActivityStats, error) {
	var stats models.ActivityStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Book{}).Scopes(discoverable).Count(&stats.Books).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.BookView{}).Count(&stats.Views).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Rating{}).Count(&stats.Ratings).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.BookView{}).Distinct("user_id").Count(&stats.UniqueUsers).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
