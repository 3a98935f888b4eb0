package engine

import "math/rand"

// Dice rolls a die with the given number of sides, returning [1, sides].
type Dice interface {
	Roll(sides int) int
}

// RNG wraps math/rand.Rand with a fixed seed so a run can be replayed.
// An RNG is owned by a single goroutine; it is not safe for concurrent use.
type RNG struct {
	seed int64
	src  *rand.Rand
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	return r.src.Intn(sides) + 1
}

// Intn returns a random integer in [0, n).
func (r *RNG) Intn(n int) int {
	return r.src.Intn(n)
}

// Between returns a random integer in [lo, hi], uniformly.
func (r *RNG) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.src.Intn(hi-lo+1)
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with a positive total; zero weights are
// never chosen.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := r.src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
