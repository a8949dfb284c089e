package utils

import (
	"cmp"
	"slices"
)

// SortOrder defines the direction of sorting
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Ranked is implemented by every shelf row the ranking helpers order
type Ranked interface {
	GetID() int64
	GetCreatedAtUnix() int64
}

// compareRecency orders newer rows first and breaks exact ties by higher id,
// so every ranking ends in a total order
func compareRecency[T Ranked](a, b T) int {
	if c := cmp.Compare(b.GetCreatedAtUnix(), a.GetCreatedAtUnix()); c != 0 {
		return c
	}
	return cmp.Compare(b.GetID(), a.GetID())
}

// SortNewest orders rows by creation time descending, then id descending
func SortNewest[T Ranked](items []T) {
	slices.SortStableFunc(items, compareRecency[T])
}

// SortByKey orders rows by key in the given direction and falls back to recency
func SortByKey[T Ranked, K cmp.Ordered](items []T, key func(T) K, order SortOrder) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := cmp.Compare(key(a), key(b))
		if order == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return compareRecency(a, b)
	})
}

// TopN truncates items to at most n entries. n <= 0 returns an empty slice.
func TopN[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0]
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}
