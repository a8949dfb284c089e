// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Explore feed composition
	ExploreFeedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explore_feed_duration_seconds",
			Help:    "Time spent composing one Explore feed",
			Buckets: prometheus.DefBuckets,
		},
	)

	ExploreFeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explore_feed_requests_total",
			Help: "Explore feed requests by audience and outcome",
		},
		[]string{"audience", "outcome"}, // audience: anonymous|user, outcome: ok|error
	)

	// Personalized category
	PersonalizedFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explore_personalized_fallback_total",
			Help: "Personalized categories served from trending instead of the sampler",
		},
		[]string{"reason"}, // no_signal
	)

	SamplerAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explore_sampler_attempts",
			Help:    "Draws consumed by one sampler run",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 180, 360},
		},
	)

	SamplerTrendingFill = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explore_sampler_trending_fill_total",
			Help: "Books added to personalized results from the trending fallback",
		},
	)

	// Shelf cache
	ShelfCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explore_shelf_cache_hits_total",
			Help: "Shelf cache hits by shelf",
		},
		[]string{"shelf"},
	)

	ShelfCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explore_shelf_cache_misses_total",
			Help: "Shelf cache misses by shelf",
		},
		[]string{"shelf"},
	)

	// Global rating average
	GlobalRatingAverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explore_global_rating_average",
			Help: "Current cached mean rating across all rated books",
		},
	)

	// Signal store circuit breaker: 0=closed, 1=half-open, 2=open
	StoreBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explore_store_breaker_state",
			Help: "Signal store circuit breaker state",
		},
	)
)
