package game

import (
	"math/rand/v2"
	"time"
)

// RandomSource supplies uniform draws in [0, 1). Only Reset consumes it.
type RandomSource interface {
	Float64() float64
}

type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a reproducible source.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// DefaultRNG seeds from the wall clock.
func DefaultRNG() RandomSource {
	return NewSeededRNG(uint64(time.Now().UnixNano()))
}

// uniform maps a [0, 1) draw onto [lo, hi].
func uniform(rng RandomSource, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	u := rng.Float64()
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return lo + u*(hi-lo)
}
