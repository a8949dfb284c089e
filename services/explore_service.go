package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"explore-backend/config"
	"explore-backend/logging"
	"explore-backend/metrics"
	"explore-backend/models"
	"explore-backend/utils"
)

// Display names of the fixed categories
const (
	DisplayRecommended = "For you"
	DisplayTrending    = "Trending"
	DisplayTopRated    = "Top rated"
	DisplayNewest      = "Newest"
)

// ExploreService composes the Explore feed
type ExploreService struct {
	catalog     *CatalogService
	recommender *RecommendationService
	cfg         config.ExploreConfig
	rng         utils.RandomSource
	logger      zerolog.Logger
}

// NewExploreService creates the feed composer
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewExploreService(catalog *CatalogService, recommender *RecommendationService, cfg config.ExploreConfig, rng utils.RandomSource, logger zerolog.Logger) *ExploreService {
	if rng == nil {
		rng = utils.NewLockedRand(cfg.Seed)
	}
	return &ExploreService{
		catalog:     catalog,
		recommender: recommender,
		cfg:         cfg,
		rng:         rng,
		logger:      logger.With().Str("component", "explore").Logger(),
	}
}

// ComposeExploreFeed returns, in order: the personalized category (only when
// userID is set), trending, top rated, newest, then cfg.GenreShelves random
// genre shelves. Categories are computed concurrently; the first storage
// error fails the whole feed.
func (s *ExploreService) ComposeExploreFeed(ctx context.Context, userID *int64) ([]models.Category, error) {
	start := time.Now()
	audience := "anonymous"
	if userID != nil {
		audience = "user"
		if err := validateUserID(*userID); err != nil {
			metrics.ExploreFeedRequests.WithLabelValues(audience, "invalid").Inc()
			return nil, err
		}
	}

	categories, err := s.compose(ctx, userID)
	metrics.ExploreFeedDuration.Observe(time.Since(start).Seconds())

	log := logging.Ctx(ctx, s.logger)
	if err != nil {
		metrics.ExploreFeedRequests.WithLabelValues(audience, "error").Inc()
		log.Error().Err(err).Str("audience", audience).Msg("explore feed failed")
		return nil, err
	}
	metrics.ExploreFeedRequests.WithLabelValues(audience, "ok").Inc()
	log.Debug().Str("audience", audience).Int("categories", len(categories)).
		Dur("elapsed", time.Since(start)).Msg("explore feed composed")
	return categories, nil
}

func (s *ExploreService) compose(ctx context.Context, userID *int64) ([]models.Category, error) {
	genres, err := s.pickGenres(ctx)
	if err != nil {
		return nil, err
	}

	// Fixed slots keep the output order independent of completion order
	slots := make([]*models.Category, 4+len(genres))
	g, gctx := errgroup.WithContext(ctx)

	if userID != nil {
		uid := *userID
		g.Go(func() error {
			rec, err := s.recommender.Recommend(gctx, uid)
			if err != nil {
				return err
			}
			slots[0] = &models.Category{
				ID:          models.CategoryRecommended,
				DisplayName: DisplayRecommended,
				Books:       rec.Books,
				Fallback:    rec.Fallback,
			}
			return nil
		})
	}

	shelf := func(slot int, id, name string, load func(context.Context) ([]models.BookCandidate, error)) {
		g.Go(func() error {
			books, err := load(gctx)
			if err != nil {
				return err
			}
			slots[slot] = &models.Category{ID: id, DisplayName: name, Books: books}
			return nil
		})
	}
	shelf(1, models.CategoryTrending, DisplayTrending, s.catalog.Trending)
	shelf(2, models.CategoryTopRated, DisplayTopRated, s.catalog.TopRated)
	shelf(3, models.CategoryNewest, DisplayNewest, s.catalog.Newest)
	for i, genre := range genres {
		shelf(4+i, models.GenreCategoryID(genre.ID), genre.Name, func(ctx context.Context) ([]models.BookCandidate, error) {
			return s.catalog.GenreShelf(ctx, genre.ID)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(slots))
	for _, c := range slots {
		if c == nil {
			continue
		}
		if c.Books == nil {
			c.Books = []models.BookCandidate{}
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

// pickGenres draws cfg.GenreShelves distinct genres at random
func (s *ExploreService) pickGenres(ctx context.Context) ([]models.Genre, error) {
	if s.cfg.GenreShelves <= 0 {
		return nil, nil
	}
	all, err := s.catalog.Genres(ctx)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(all))
	for i := range idx {
		idx[i] = i
	}
	picked := utils.SampleInts(idx, s.cfg.GenreShelves, s.rng)

	out := make([]models.Genre, len(picked))
	for i, j := range picked {
		out[i] = all[j]
	}
	return out, nil
}

// Recommend returns the personalized category alone
func (s *ExploreService) Recommend(ctx context.Context, userID int64) (models.Category, error) {
	rec, err := s.recommender.Recommend(ctx, userID)
	if err != nil {
		return models.Category{}, err
	}
	books := rec.Books
	if books == nil {
		books = []models.BookCandidate{}
	}
	return models.Category{
		ID:          models.CategoryRecommended,
		DisplayName: DisplayRecommended,
		Books:       books,
		Fallback:    rec.Fallback,
	}, nil
}
