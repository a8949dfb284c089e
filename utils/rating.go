package utils

import (
	"cmp"
	"slices"

	"explore-backend/models"
)

// DefaultBayesConfidence is the pseudo-count m the top-rated score shrinks with
const DefaultBayesConfidence = 20.0

// BayesScore shrinks a book's mean rating towards the global mean:
//
//	(count*avg + m*globalAvg) / (count + m)
//
// A book with no ratings scores exactly globalAvg.
func BayesScore(count int, avg, globalAvg, m float64) float64 {
	n := float64(count)
	if n+m == 0 {
		return globalAvg
	}
	if count == 0 {
		avg = 0
	}
	return (n*avg + m*globalAvg) / (n + m)
}

// RankRated fills BayesScore on every book and sorts by
// score desc, rating count desc, raw average desc, created desc, id desc
func RankRated(books []models.RatedBook, prior models.RatingPrior) {
	for i := range books {
		books[i].BayesScore = BayesScore(books[i].RatingCount, books[i].RatingAverage, prior.GlobalAverage, prior.Confidence)
	}
	slices.SortStableFunc(books, compareRated)
}

func compareRated(a, b models.RatedBook) int {
	if c := cmp.Compare(b.BayesScore, a.BayesScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.RatingCount, a.RatingCount); c != 0 {
		return c
	}
	if c := cmp.Compare(b.RatingAverage, a.RatingAverage); c != 0 {
		return c
	}
	return compareRecency(a, b)
}
