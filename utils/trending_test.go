package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"explore-backend/models"
)

func trendingBook(id int64, views int, created time.Time) models.TrendingBook {
	return models.TrendingBook{
		BookCandidate: models.BookCandidate{BookID: id},
		ViewCount:     views,
		CreatedAt:     created,
	}
}

func TestSortTrending(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		books    []models.TrendingBook
		expected []int64
	}{
		{
			name: "view count descending",
			books: []models.TrendingBook{
				trendingBook(1, 3, base),
				trendingBook(2, 10, base),
				trendingBook(3, 1, base),
			},
			expected: []int64{2, 1, 3},
		},
		{
			name: "one view outranks zero",
			books: []models.TrendingBook{
				trendingBook(1, 0, base.Add(time.Hour)),
				trendingBook(2, 1, base),
			},
			expected: []int64{2, 1},
		},
		{
			name: "ties by recency then id",
			books: []models.TrendingBook{
				trendingBook(1, 5, base),
				trendingBook(2, 5, base.Add(time.Hour)),
				trendingBook(3, 5, base),
			},
			expected: []int64{2, 3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortTrending(tt.books)
			got := make([]int64, len(tt.books))
			for i, b := range tt.books {
				got[i] = b.BookID
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.FixedZone("X", 3600))

	start := WindowStart(now, 7)

	assert.Equal(t, time.UTC, start.Location())
	assert.Equal(t, DefaultTrendingWindow, now.Sub(start))
}
