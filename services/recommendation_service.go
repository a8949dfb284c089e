package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"explore-backend/config"
	"explore-backend/logging"
	"explore-backend/metrics"
	"explore-backend/models"
	"explore-backend/utils"
)

// TrendingSource supplies the fallback pool for personalized results
type TrendingSource interface {
	TrendingPool(ctx context.Context) ([]models.BookCandidate, error)
}

// RecommendationService turns a user's recent views into a personalized list
type RecommendationService struct {
	store    SignalStore
	trending TrendingSource
	cfg      config.ExploreConfig
	rng      utils.RandomSource
	logger   zerolog.Logger
}

// Recommendation is the personalized list and how it was produced
type Recommendation struct {
	Books []models.BookCandidate `json:"books"`
	// Fallback is set when the user had no signal and the list is plain trending
	Fallback bool `json:"fallback"`
}

// NewRecommendationService creates the sampler. rng must be safe for concurrent use.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRecommendationService(store SignalStore, trending TrendingSource, cfg config.ExploreConfig, rng utils.RandomSource, logger zerolog.Logger) *RecommendationService {
	if rng == nil {
		rng = utils.NewLockedRand(cfg.Seed)
	}
	return &RecommendationService{
		store:    store,
		trending: trending,
		cfg:      cfg,
		rng:      rng,
		logger:   logger.With().Str("component", "recommender").Logger(),
	}
}

// Recommend builds up to cfg.Limit books for userID. Running out of content
// only shortens the list; storage failures are returned.
func (s *RecommendationService) Recommend(ctx context.Context, userID int64) (Recommendation, error) {
	if err := validateUserID(userID); err != nil {
		return Recommendation{}, err
	}
	log := logging.Ctx(ctx, s.logger).With().Int64("user_id", userID).Logger()

	dist, ok, err := s.Distribution(ctx, userID)
	if err != nil {
		return Recommendation{}, err
	}
	if !ok {
		metrics.PersonalizedFallbacks.WithLabelValues("no_signal").Inc()
		pool, err := s.trending.TrendingPool(ctx)
		if err != nil {
			return Recommendation{}, err
		}
		log.Debug().Msg("no view signal, serving trending")
		return Recommendation{Books: utils.TopN(pool, s.cfg.Limit), Fallback: true}, nil
	}

	books, err := s.Sample(ctx, dist, userID, s.cfg.Limit, s.cfg.MaxAttempts())
	if err != nil {
		return Recommendation{}, err
	}
	log.Debug().Int("keys", len(dist)).Int("books", len(books)).Msg("personalized recommendations sampled")
	return Recommendation{Books: books}, nil
}

// Distribution loads the user's signal and the key universes and builds the
// interest distribution. ok is false when the user has no signal.
func (s *RecommendationService) Distribution(ctx context.Context, userID int64) (models.Distribution, bool, error) {
	var (
		genreCounts, tagCounts models.CountSignal
		genreIDs, tagIDs       []int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		genreCounts, err = s.store.GenreViewCounts(gctx, userID, s.cfg.SignalWindowDays)
		return err
	})
	g.Go(func() (err error) {
		tagCounts, err = s.store.TagViewCounts(gctx, userID, s.cfg.SignalWindowDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	if genreCounts.Total() <= 0 && tagCounts.Total() <= 0 {
		return nil, false, nil
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		genreIDs, err = s.store.AllGenreIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		tagIDs, err = s.store.AllTagIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	dist, ok := utils.BuildDistribution(genreCounts, tagCounts, genreIDs, tagIDs, utils.DistributionParams{
		Alpha:           s.cfg.Alpha,
		Beta:            s.cfg.Beta,
		ExplorationRate: s.cfg.ExplorationRate,
	})
	return dist, ok, nil
}

// Sample draws interest keys from dist and resolves each to an unseen book
// until limit distinct books are found or maxAttempts draws are spent. Any
// shortfall is filled from the trending pool. The result never holds
// duplicate ids and may be shorter than limit.
func (s *RecommendationService) Sample(ctx context.Context, dist models.Distribution, userID int64, limit, maxAttempts int) ([]models.BookCandidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	result := make([]models.BookCandidate, 0, limit)
	seen := make(map[int64]struct{}, limit)

	attempts := 0
	for len(result) < limit && attempts < maxAttempts && len(dist) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempts++

		key, _ := utils.DrawKey(dist, s.rng)
		book, ok, err := s.lookup(ctx, key, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[book.BookID]; dup {
			continue
		}
		seen[book.BookID] = struct{}{}
		result = append(result, book)
	}
	metrics.SamplerAttempts.Observe(float64(attempts))

	if len(result) >= limit {
		return result, nil
	}

	pool, err := s.trending.TrendingPool(ctx)
	if err != nil {
		return nil, err
	}
	filled := 0
	for _, book := range pool {
		if len(result) >= limit {
			break
		}
		if _, dup := seen[book.BookID]; dup {
			continue
		}
		seen[book.BookID] = struct{}{}
		result = append(result, book)
		filled++
	}
	metrics.SamplerTrendingFill.Add(float64(filled))
	return result, nil
}

func (s *RecommendationService) lookup(ctx context.Context, key models.InterestKey, userID int64) (models.BookCandidate, bool, error) {
	switch key.Kind {
	case models.KindGenre:
		return s.store.RandomUnseenBookByGenre(ctx, key.ID, userID)
	case models.KindTag:
		return s.store.RandomUnseenBookByTag(ctx, key.ID, userID)
	default:
		return models.BookCandidate{}, false, fmt.Errorf("%w: unknown interest kind %d", ErrInvalidInput, key.Kind)
	}
}
