package util

import "math/rand"

// RNG struct encapsulates the random number generator and seed.
// Estimators hold their own RNG so repeated runs over the same input
// stay deterministic.
type RNG struct {
	rand *rand.Rand
	seed int64
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Intn returns a non-negative pseudo-random int in [0, n).
func (r *RNG) Intn(n int) int { return r.rand.Intn(n) }

// SampleDistinct fills dst with k distinct indices drawn from [0, n).
// Returns false if n < k.
func (r *RNG) SampleDistinct(dst []int, n int) bool {
	k := len(dst)
	if n < k {
		return false
	}
	for i := 0; i < k; {
		c := r.rand.Intn(n)
		dup := false
		for j := 0; j < i; j++ {
			if dst[j] == c {
				dup = true
				break
			}
		}
		if !dup {
			dst[i] = c
			i++
		}
	}
	return true
}
