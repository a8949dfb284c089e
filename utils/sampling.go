package utils

import (
	"math/rand/v2"
	"sync"
	"time"

	"explore-backend/models"
)

// RandomSource is the randomness the sampler depends on
type RandomSource interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
	// IntN returns a value in [0, n)
	IntN(n int) int
}

// LockedRand is a RandomSource safe for concurrent use
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand returns a PCG-backed source. A zero seed picks one from the clock.
func NewLockedRand(seed uint64) *LockedRand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// PickKey walks the cumulative weights of d, which must be sorted by
// descending weight, and returns the first key whose cumulative sum is >= r.
// If rounding leaves r above the total mass the last key is returned.
func PickKey(d models.Distribution, r float64) (models.InterestKey, bool) {
	if len(d) == 0 {
		return models.InterestKey{}, false
	}
	cumulative := 0.0
	for _, e := range d {
		cumulative += e.Weight
		if cumulative >= r {
			return e.Key, true
		}
	}
	return d[len(d)-1].Key, true
}

// DrawKey picks one key from d using rng
func DrawKey(d models.Distribution, rng RandomSource) (models.InterestKey, bool) {
	return PickKey(d, rng.Float64())
}

// SampleInts returns up to n distinct elements of ids in random order.
// ids is not modified.
func SampleInts(ids []int, n int, rng RandomSource) []int {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	pool := append([]int(nil), ids...)
	n = min(n, len(pool))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
