// Package rng provides the seeded random stream shared by the generation stages
// that need non-noise randomness.
//
// A Stream is not safe for concurrent use. The order in which stages draw from it is
// part of the world's identity for a given seed.
package rng

import (
	"math/rand/v2"

	"wayblazer.ai/internal/sim/world/logic/mathx"
)

type Stream struct {
	seed  int64
	r     *rand.Rand
	draws uint64
}

func New(seed int64) *Stream {
	s := uint64(seed)
	return &Stream{
		seed: seed,
		r:    rand.New(rand.NewPCG(s, mathx.Mix64(s))),
	}
}

// FreshSeed picks a non-negative seed from the process-wide source.
func FreshSeed() int64 {
	return rand.Int64()
}

func (s *Stream) Seed() int64 { return s.seed }

// Draws reports how many values have been taken from the stream.
func (s *Stream) Draws() uint64 { return s.draws }

// Float64 returns a value in [0,1).
func (s *Stream) Float64() float64 {
	s.draws++
	return s.r.Float64()
}

// Range returns a value in [lo,hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// IntN returns a value in [0,n). n must be > 0.
func (s *Stream) IntN(n int) int {
	s.draws++
	return s.r.IntN(n)
}

// Derive returns an independent stream keyed by position. It depends only on the
// stream's seed, never on how much of the parent has been consumed.
func (s *Stream) Derive(x, y int) *Stream {
	return New(int64(mathx.Hash2(s.seed, x, y)))
}
