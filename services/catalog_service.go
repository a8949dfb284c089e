package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"explore-backend/config"
	"explore-backend/metrics"
	"explore-backend/models"
	"explore-backend/utils"
)

// Shelf names used as cache key prefixes and metric labels
const (
	shelfTrending     = "trending"
	shelfTrendingPool = "trending_pool"
	shelfTopRated     = "top_rated"
	shelfNewest       = "newest"
	shelfGenre        = "genre"
	shelfGenres       = "genres"
)

// CatalogService serves the user-independent shelves. Results are shared
// across users and cached with a TTL; nothing per-user is stored here.
type CatalogService struct {
	store   SignalStore
	cfg     config.ExploreConfig
	average *GlobalAverage
	cache   *ristretto.Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// CacheStats reports shelf cache effectiveness
type CacheStats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  float64 `json:"ttl_seconds"`
}

// NewCatalogService creates a catalog service with its own shelf cache
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCatalogService(store SignalStore, exploreCfg config.ExploreConfig, cacheCfg config.CacheConfig, average *GlobalAverage, logger zerolog.Logger) (*CatalogService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheCfg.NumCounters,
		MaxCost:     cacheCfg.MaxCost,
		BufferItems: cacheCfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shelf cache: %w", err)
	}

	return &CatalogService{
		store:   store,
		cfg:     exploreCfg,
		average: average,
		cache:   cache,
		ttl:     cacheCfg.TTL,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// Trending returns the most viewed books of the trending window
func (s *CatalogService) Trending(ctx context.Context) ([]models.BookCandidate, error) {
	return s.trending(ctx, shelfTrending, s.cfg.Limit)
}

// TrendingPool returns the larger trending list the sampler fills shortfalls from
func (s *CatalogService) TrendingPool(ctx context.Context) ([]models.BookCandidate, error) {
	return s.trending(ctx, shelfTrendingPool, s.cfg.TrendingPoolSize())
}

func (s *CatalogService) trending(ctx context.Context, shelf string, limit int) ([]models.BookCandidate, error) {
	key := fmt.Sprintf("%s:%d:%d", shelf, s.cfg.TrendingWindowDays, limit)
	return cached(s, shelf, key, func() ([]models.BookCandidate, error) {
		books, err := s.store.TrendingBooks(ctx, s.cfg.TrendingWindowDays, limit)
		if err != nil {
			return nil, err
		}
		utils.SortTrending(books)
		return models.Candidates(utils.TopN(books, limit)), nil
	})
}

// TopRated ranks books by Bayesian score against the current global average
func (s *CatalogService) TopRated(ctx context.Context) ([]models.BookCandidate, error) {
	prior := s.average.Prior()
	// Keyed by prior: a refreshed average starts a new ranking
	key := fmt.Sprintf("%s:%d:%.6f:%.2f", shelfTopRated, s.cfg.Limit, prior.GlobalAverage, prior.Confidence)
	return cached(s, shelfTopRated, key, func() ([]models.BookCandidate, error) {
		books, err := s.store.RatedBooks(ctx)
		if err != nil {
			return nil, err
		}
		utils.RankRated(books, prior)
		return models.Candidates(utils.TopN(books, s.cfg.Limit)), nil
	})
}

// Newest lists books by creation time
func (s *CatalogService) Newest(ctx context.Context) ([]models.BookCandidate, error) {
	key := fmt.Sprintf("%s:%d", shelfNewest, s.cfg.Limit)
	return cached(s, shelfNewest, key, func() ([]models.BookCandidate, error) {
		return s.store.NewestBooks(ctx, s.cfg.Limit)
	})
}

// GenreShelf lists the newest books of one genre
func (s *CatalogService) GenreShelf(ctx context.Context, genreID int) ([]models.BookCandidate, error) {
	key := fmt.Sprintf("%s:%d:%d", shelfGenre, genreID, s.cfg.Limit)
	return cached(s, shelfGenre, key, func() ([]models.BookCandidate, error) {
		return s.store.NewestBooksByGenre(ctx, genreID, s.cfg.Limit)
	})
}

// Genres returns every genre
func (s *CatalogService) Genres(ctx context.Context) ([]models.Genre, error) {
	return cached(s, shelfGenres, shelfGenres, func() ([]models.Genre, error) {
		return s.store.Genres(ctx)
	})
}

// cached returns a copy of the cached value for key or loads and stores it.
// Errors are never cached.
func cached[T any](s *CatalogService, shelf, key string, load func() ([]T, error)) ([]T, error) {
	if v, ok := s.cache.Get(key); ok {
		if items, ok := v.([]T); ok {
			metrics.ShelfCacheHits.WithLabelValues(shelf).Inc()
			return slices.Clone(items), nil
		}
	}
	metrics.ShelfCacheMisses.WithLabelValues(shelf).Inc()

	items, err := load()
	if err != nil {
		return nil, err
	}

	s.cache.SetWithTTL(key, items, int64(len(items))+1, s.ttl)
	s.cache.Wait()
	s.logger.Debug().Str("shelf", shelf).Str("key", key).Int("count", len(items)).Msg("shelf computed and cached")
	return slices.Clone(items), nil
}

// InvalidateCache drops every cached shelf
func (s *CatalogService) InvalidateCache() {
	s.cache.Clear()
	s.logger.Info().Msg("shelf cache invalidated")
}

// CacheStats returns the cache counters
func (s *CatalogService) CacheStats() CacheStats {
	m := s.cache.Metrics
	stats := CacheStats{TTLSeconds: s.ttl.Seconds()}
	if m == nil {
		return stats
	}
	stats.Hits = m.Hits()
	stats.Misses = m.Misses()
	stats.KeysAdded = m.KeysAdded()
	stats.KeysEvicted = m.KeysEvicted()
	stats.HitRatio = m.Ratio()
	return stats
}

// Close releases the cache goroutines
func (s *CatalogService) Close() {
	s.cache.Close()
}
