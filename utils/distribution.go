package utils

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"

	"explore-backend/models"
)

// =============================================================================
// Interest Distribution
// =============================================================================

// Default blend parameters
const (
	DefaultGenreWeight     = 0.7
	DefaultTagWeight       = 0.3
	DefaultExplorationRate = 0.1
)

// DistributionParams weighs the two signals and the exploration share
type DistributionParams struct {
	Alpha           float64 // genre weight
	Beta            float64 // tag weight
	ExplorationRate float64
}

// DefaultDistributionParams returns alpha=0.7, beta=0.3, exploration=0.1
func DefaultDistributionParams() DistributionParams {
	return DistributionParams{
		Alpha:           DefaultGenreWeight,
		Beta:            DefaultTagWeight,
		ExplorationRate: DefaultExplorationRate,
	}
}

// BuildDistribution turns a user's genre and tag view counts into a probability
// distribution over interest keys.
//
// ok is false when both signals are empty: there is nothing to personalize on
// and the caller falls back to trending. A side is only represented when its
// own signal is non-empty; its whole universe is then included with zero
// counts so exploration can reach ids the user never viewed.
func BuildDistribution(genreCounts, tagCounts models.CountSignal, genreUniverse, tagUniverse []int, p DistributionParams) (models.Distribution, bool) {
	genreTotal := genreCounts.Total()
	tagTotal := tagCounts.Total()
	if genreTotal <= 0 && tagTotal <= 0 {
		return nil, false
	}

	var keys []models.InterestKey
	var weights []float64
	if genreTotal > 0 {
		keys, weights = appendSide(keys, weights, models.KindGenre, genreCounts, genreUniverse, float64(genreTotal), p.Alpha)
	}
	if tagTotal > 0 {
		keys, weights = appendSide(keys, weights, models.KindTag, tagCounts, tagUniverse, float64(tagTotal), p.Beta)
	}

	// Renormalize the merged map. A zero sum means the present side carried
	// zero weight; treat the signal as flat.
	if !normalize(weights) {
		for i := range weights {
			weights[i] = 1
		}
		normalize(weights)
	}

	// Uniform exploration, then one more pass to absorb drift
	e := clamp01(p.ExplorationRate)
	floats.Scale(1-e, weights)
	floats.AddConst(e/float64(len(weights)), weights)
	normalize(weights)

	dist := make(models.Distribution, len(keys))
	for i := range keys {
		dist[i] = models.WeightedKey{Key: keys[i], Weight: weights[i]}
	}
	slices.SortStableFunc(dist, compareWeighted)
	return dist, true
}

// appendSide adds one kind's keys with probability(count) * weight. Ids in the
// signal but missing from the universe are kept.
func appendSide(keys []models.InterestKey, weights []float64, kind models.InterestKind, counts models.CountSignal, universe []int, total, weight float64) ([]models.InterestKey, []float64) {
	seen := make(map[int]struct{}, len(universe)+len(counts))
	add := func(id int) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		c := counts[id]
		if c < 0 {
			c = 0
		}
		keys = append(keys, models.InterestKey{Kind: kind, ID: id})
		weights = append(weights, float64(c)/total*weight)
	}
	for _, id := range universe {
		add(id)
	}
	// Map order does not matter here; the result is sorted by weight afterwards
	for id := range counts {
		add(id)
	}
	return keys, weights
}

// normalize scales v in place to sum to 1. It reports false when the sum is not positive.
func normalize(v []float64) bool {
	sum := floats.Sum(v)
	if sum <= 0 {
		return false
	}
	floats.Scale(1/sum, v)
	return true
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}

// compareWeighted orders by weight desc, then genres before tags, then id asc
func compareWeighted(a, b models.WeightedKey) int {
	if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Key.Kind, b.Key.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Key.ID, b.Key.ID)
}
