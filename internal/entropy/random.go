// Package entropy provides the shared randomness source for stochastic
// agent decisions. A single seeded generator behind a lock keeps runs
// reproducible from the scenario seed even though many goroutines draw
// from it.
package entropy

import (
	"math/rand"
	"sync"
)

// Source is a goroutine-safe seeded random source.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a source from a scenario seed.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a random float64 in [0, 1).
func (s *Source) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn returns a random int in [0, n). n must be positive.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.Float() < p
}

// Perm returns a random permutation of [0, n).
func (s *Source) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}
