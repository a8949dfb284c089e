package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockRow implements Ranked for testing
type mockRow struct {
	id      int64
	created int64
	score   float64
}

func (m mockRow) GetID() int64            { return m.id }
func (m mockRow) GetCreatedAtUnix() int64 { return m.created }

func ids(rows []mockRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func TestSortNewest(t *testing.T) {
	rows := []mockRow{
		{id: 1, created: 100},
		{id: 2, created: 300},
		{id: 3, created: 200},
		{id: 4, created: 300},
	}

	SortNewest(rows)

	// Same timestamp: higher id first
	assert.Equal(t, []int64{4, 2, 3, 1}, ids(rows))
}

func TestSortByKey(t *testing.T) {
	tests := []struct {
		name     string
		order    SortOrder
		rows     []mockRow
		expected []int64
	}{
		{
			name:     "descending score",
			order:    Descending,
			rows:     []mockRow{{id: 1, score: 0.3}, {id: 2, score: 0.9}, {id: 3, score: 0.6}},
			expected: []int64{2, 3, 1},
		},
		{
			name:     "ascending score",
			order:    Ascending,
			rows:     []mockRow{{id: 1, score: 0.3}, {id: 2, score: 0.9}, {id: 3, score: 0.6}},
			expected: []int64{1, 3, 2},
		},
		{
			name:     "equal scores fall back to recency then id",
			order:    Descending,
			rows:     []mockRow{{id: 1, score: 1, created: 5}, {id: 2, score: 1, created: 9}, {id: 3, score: 1, created: 5}},
			expected: []int64{2, 3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortByKey(tt.rows, func(r mockRow) float64 { return r.score }, tt.order)
			assert.Equal(t, tt.expected, ids(tt.rows))
		})
	}
}

func TestTopN(t *testing.T) {
	items := []int{1, 2, 3}

	assert.Equal(t, []int{1, 2}, TopN(items, 2))
	assert.Equal(t, []int{1, 2, 3}, TopN(items, 10))
	assert.Empty(t, TopN(items, 0))
	assert.Empty(t, TopN(items, -1))
}
