package models

import (
	"fmt"
)

// InterestKind tells which catalog axis an InterestKey addresses
type InterestKind uint8

const (
	KindGenre InterestKind = iota + 1
	KindTag
)

func (k InterestKind) String() string {
	switch k {
	case KindGenre:
		return "genre"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// InterestKey is one personalization axis: a genre or a tag.
// It is a comparable value type and can be used as a map key.
type InterestKey struct {
	Kind InterestKind
	ID   int
}

// GenreKey returns the key for a genre id
func GenreKey(id int) InterestKey { return InterestKey{Kind: KindGenre, ID: id} }

// TagKey returns the key for a tag id
func TagKey(id int) InterestKey { return InterestKey{Kind: KindTag, ID: id} }

func (k InterestKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// CountSignal maps a genre or tag id to the number of views a user spent on it
// within a trailing window
type CountSignal map[int]int

// Total returns the sum of all counts
func (s CountSignal) Total() int {
	total := 0
	for _, c := range s {
		total += c
	}
	return total
}

// WeightedKey is one entry of a Distribution
type WeightedKey struct {
	Key    InterestKey `json:"key"`
	Weight float64     `json:"weight"`
}

// Distribution is a probability distribution over interest keys, ordered by
// descending weight. Weights are non-negative and sum to 1 when non-empty.
type Distribution []WeightedKey

// Weight returns the probability of key, zero if absent
func (d Distribution) Weight(key InterestKey) float64 {
	for _, e := range d {
		if e.Key == key {
			return e.Weight
		}
	}
	return 0
}

// Category ids used by the Explore feed
const (
	CategoryRecommended = "recommended"
	CategoryTrending    = "trending"
	CategoryTopRated    = "topRated"
	CategoryNewest      = "newest"
	GenreCategoryPrefix = "genre_"
)

// Category is one named shelf of the Explore feed. Book order is ranking order.
type Category struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Books       []BookCandidate `json:"books"`
	// Fallback is set when the personalized shelf was filled from trending
	Fallback bool `json:"fallback,omitempty"`
}

// GenreCategoryID returns the category id of a genre shelf
func GenreCategoryID(genreID int) string {
	return fmt.Sprintf("%s%d", GenreCategoryPrefix, genreID)
}

// RatingPrior is the snapshot the Bayesian score shrinks towards
type RatingPrior struct {
	GlobalAverage float64
	Confidence    float64 // m
}
