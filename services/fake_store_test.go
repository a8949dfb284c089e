package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"explore-backend/config"
	"explore-backend/models"
)

// fakeStore is an in-memory Store. Random lookups cycle through the
// configured books so repeated draws produce duplicates.
type fakeStore struct {
	mu sync.Mutex

	genreCounts models.CountSignal
	tagCounts   models.CountSignal
	genreIDs    []int
	tagIDs      []int
	genres      []models.Genre
	byGenre     map[int][]models.BookCandidate
	byTag       map[int][]models.BookCandidate
	trending    []models.TrendingBook
	rated       []models.RatedBook
	newest      []models.BookCandidate
	genreShelf  map[int][]models.BookCandidate
	globalAvg   float64
	authors     map[int64]int64

	views   []models.BookView
	ratings []models.Rating

	err     error
	cursors map[models.InterestKey]int
	calls   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byGenre:    map[int][]models.BookCandidate{},
		byTag:      map[int][]models.BookCandidate{},
		genreShelf: map[int][]models.BookCandidate{},
		authors:    map[int64]int64{},
		cursors:    map[models.InterestKey]int{},
		calls:      map[string]int{},
	}
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.err
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) next(key models.InterestKey, books []models.BookCandidate) (models.BookCandidate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(books) == 0 {
		return models.BookCandidate{}, false
	}
	i := f.cursors[key]
	f.cursors[key] = i + 1
	return books[i%len(books)], true
}

func (f *fakeStore) GenreViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	if err := f.record("genre_counts"); err != nil {
		return nil, err
	}
	return f.genreCounts, nil
}

func (f *fakeStore) TagViewCounts(ctx context.Context, userID int64, windowDays int) (models.CountSignal, error) {
	if err := f.record("tag_counts"); err != nil {
		return nil, err
	}
	return f.tagCounts, nil
}

func (f *fakeStore) AllGenreIDs(ctx context.Context) ([]int, error) {
	if err := f.record("genre_ids"); err != nil {
		return nil, err
	}
	return f.genreIDs, nil
}

func (f *fakeStore) AllTagIDs(ctx context.Context) ([]int, error) {
	if err := f.record("tag_ids"); err != nil {
		return nil, err
	}
	return f.tagIDs, nil
}

func (f *fakeStore) Genres(ctx context.Context) ([]models.Genre, error) {
	if err := f.record("genres"); err != nil {
		return nil, err
	}
	return f.genres, nil
}

func (f *fakeStore) RandomUnseenBookByGenre(ctx context.Context, genreID int, userID int64) (models.BookCandidate, bool, error) {
	if err := f.record("random_genre"); err != nil {
		return models.BookCandidate{}, false, err
	}
	b, ok := f.next(models.GenreKey(genreID), f.byGenre[genreID])
	return b, ok, nil
}

func (f *fakeStore) RandomUnseenBookByTag(ctx context.Context, tagID int, userID int64) (models.BookCandidate, bool, error) {
	if err := f.record("random_tag"); err != nil {
		return models.BookCandidate{}, false, err
	}
	b, ok := f.next(models.TagKey(tagID), f.byTag[tagID])
	return b, ok, nil
}

func (f *fakeStore) TrendingBooks(ctx context.Context, windowDays, limit int) ([]models.TrendingBook, error) {
	if err := f.record("trending"); err != nil {
		return nil, err
	}
	out := append([]models.TrendingBook(nil), f.trending...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) RatedBooks(ctx context.Context) ([]models.RatedBook, error) {
	if err := f.record("top_rated"); err != nil {
		return nil, err
	}
	return append([]models.RatedBook(nil), f.rated...), nil
}

func (f *fakeStore) NewestBooks(ctx context.Context, limit int) ([]models.BookCandidate, error) {
	if err := f.record("newest"); err != nil {
		return nil, err
	}
	return append([]models.BookCandidate(nil), f.newest...), nil
}

func (f *fakeStore) NewestBooksByGenre(ctx context.Context, genreID, limit int) ([]models.BookCandidate, error) {
	if err := f.record("genre_shelf"); err != nil {
		return nil, err
	}
	return append([]models.BookCandidate(nil), f.genreShelf[genreID]...), nil
}

func (f *fakeStore) GlobalRatingAverage(ctx context.Context) (float64, error) {
	if err := f.record("global_avg"); err != nil {
		return 0, err
	}
	return f.globalAvg, nil
}

func (f *fakeStore) BookAuthor(ctx context.Context, bookID int64) (int64, bool, error) {
	if err := f.record("book_author"); err != nil {
		return 0, false, err
	}
	author, ok := f.authors[bookID]
	return author, ok, nil
}

func (f *fakeStore) RecordView(ctx context.Context, view *models.BookView) error {
	if err := f.record("record_view"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, *view)
	return nil
}

func (f *fakeStore) UpsertRating(ctx context.Context, rating *models.Rating) error {
	if err := f.record("upsert_rating"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, *rating)
	return nil
}

func (f *fakeStore) ActivityStats(ctx context.Context) (models.ActivityStats, error) {
	if err := f.record("activity_stats"); err != nil {
		return models.ActivityStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.ActivityStats{Views: int64(len(f.views)), Ratings: int64(len(f.ratings))}, nil
}

// Helpers

func candidates(ids ...int64) []models.BookCandidate {
	out := make([]models.BookCandidate, len(ids))
	for i, id := range ids {
		out[i] = models.BookCandidate{BookID: id}
	}
	return out
}

func trendingRows(ids ...int64) []models.TrendingBook {
	out := make([]models.TrendingBook, len(ids))
	for i, id := range ids {
		// Earlier ids have more views
		out[i] = models.TrendingBook{BookCandidate: models.BookCandidate{BookID: id}, ViewCount: len(ids) - i}
	}
	return out
}

func bookIDs(books []models.BookCandidate) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.BookID
	}
	return out
}

func testExploreConfig() config.ExploreConfig {
	cfg := config.Default().Explore
	cfg.Seed = 1
	return cfg
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
