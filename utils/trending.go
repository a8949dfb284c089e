package utils

import (
	"time"

	"explore-backend/models"
)

// =============================================================================
// Trending Utilities
// =============================================================================

// DefaultTrendingWindow is the trailing window whose views count towards trending
const DefaultTrendingWindow = 7 * 24 * time.Hour

// WindowStart returns the lower bound of a trailing window of days ending at now.
// The bound is in UTC so it compares cleanly against stored timestamps.
func WindowStart(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * 24 * time.Hour)
}

// SortTrending orders books by in-window view count descending,
// then newest first, then higher id first
func SortTrending(books []models.TrendingBook) {
	SortByKey(books, func(b models.TrendingBook) int { return b.ViewCount }, Descending)
}
