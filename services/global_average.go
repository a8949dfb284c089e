package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"explore-backend/metrics"
	"explore-backend/models"
)

// averageSnapshot is swapped whole so readers never see a torn value
type averageSnapshot struct {
	value       float64
	refreshedAt time.Time
}

// GlobalAverage holds the mean rating across the catalog. Reads are lock-free.
type GlobalAverage struct {
	snap       atomic.Pointer[averageSnapshot]
	confidence float64
}

// NewGlobalAverage starts at initial with the Bayesian pseudo-count m
func NewGlobalAverage(initial, confidence float64) *GlobalAverage {
	g := &GlobalAverage{confidence: confidence}
	g.snap.Store(&averageSnapshot{value: initial})
	return g
}

// Set replaces the cached value
func (g *GlobalAverage) Set(v float64) {
	g.snap.Store(&averageSnapshot{value: v, refreshedAt: time.Now()})
	metrics.GlobalRatingAverage.Set(v)
}

// Value returns the cached mean and when it was last refreshed (zero if never)
func (g *GlobalAverage) Value() (float64, time.Time) {
	s := g.snap.Load()
	return s.value, s.refreshedAt
}

// Prior returns the snapshot the rating aggregator ranks against
func (g *GlobalAverage) Prior() models.RatingPrior {
	v, _ := g.Value()
	return models.RatingPrior{GlobalAverage: v, Confidence: g.confidence}
}

// AverageRefresher recomputes the global average on a cron schedule
type AverageRefresher struct {
	store   SignalStore
	average *GlobalAverage
	spec    string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// NewAverageRefresher schedules refreshes with a cron spec such as "@every 5m"
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewAverageRefresher(store SignalStore, average *GlobalAverage, spec string, timeout time.Duration, logger zerolog.Logger) *AverageRefresher {
	return &AverageRefresher{
		store:   store,
		average: average,
		spec:    spec,
		timeout: timeout,
		logger:  logger.With().Str("component", "average-refresher").Logger(),
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}
}

// Refresh reads the average from the store and publishes it
func (r *AverageRefresher) Refresh(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	avg, err := r.store.GlobalRatingAverage(ctx)
	if err != nil {
		return fmt.Errorf("refresh global rating average: %w", err)
	}
	r.average.Set(avg)
	r.logger.Debug().Float64("global_average", avg).Msg("global rating average refreshed")
	return nil
}

// Start refreshes once, then on every tick of the schedule.
// A failed first refresh is logged and the previous value kept.
func (r *AverageRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("initial global average refresh failed")
	}

	if _, err := r.cron.AddFunc(r.spec, func() {
		if err := r.Refresh(context.Background()); err != nil {
			r.logger.Warn().Err(err).Msg("scheduled global average refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule global average refresh %q: %w", r.spec, err)
	}

	r.cron.Start()
	r.started = true
	r.logger.Info().Str("schedule", r.spec).Msg("global average refresher started")
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish
func (r *AverageRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	<-r.cron.Stop().Done()
	r.started = false
}
