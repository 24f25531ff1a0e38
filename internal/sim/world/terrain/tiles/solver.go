package tiles

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"wayblazer.ai/internal/sim/world/terrain/blend"
)

// SignificanceThreshold is the probability a biome must exceed to be admissible.
const SignificanceThreshold = 0.05

var ErrSolverUnavailable = errors.New("tiles: constraint solver unavailable")

// Set is a bitset of admissible tile IDs (bit i set => ID i admissible).
type Set uint16

func (s Set) Has(id ID) bool { return id < 16 && s&(1<<id) != 0 }
func (s Set) Add(id ID) Set  { return s | 1<<id }
func (s Set) Len() int       { return bits.OnesCount16(uint16(s)) }

// IDs lists members in ascending order.
func (s Set) IDs() []ID {
	out := make([]ID, 0, s.Len())
	for v := uint16(s); v != 0; v &= v - 1 {
		out = append(out, ID(bits.TrailingZeros16(v)))
	}
	return out
}

// Admissible holds one Set per expanded position, row-major.
type Admissible struct {
	W, H int
	Sets []Set
}

func (a *Admissible) At(x, y int) Set { return a.Sets[x+y*a.W] }

// AdmissibleSets keeps every tile whose biome probability exceeds the threshold. The
// dominant biome's tile is always included so no set is empty.
func AdmissibleSets(m *blend.Map) *Admissible {
	a := &Admissible{W: m.W, H: m.H, Sets: make([]Set, len(m.D))}
	for i, d := range m.D {
		s := Set(0).Add(ForBiome(d.Dominant()))
		for b, p := range d {
			if p > SignificanceThreshold {
				s = s.Add(ID(b) + 1)
			}
		}
		a.Sets[i] = s
	}
	return a
}

// Solver is an external adjacency-constraint solver. It must return one tile per
// position, each drawn from that position's admissible set, deterministically for a
// given seed.
type Solver interface {
	Solve(ctx context.Context, sets *Admissible, seed int64) (*Grid, error)
}

type ConstraintSolver struct {
	Solver Solver
}

func (ConstraintSolver) Name() string { return StrategyConstraint }

func (c ConstraintSolver) Select(ctx context.Context, in Input) (*Grid, error) {
	if c.Solver == nil {
		return nil, ErrSolverUnavailable
	}
	if in.Probs == nil {
		return nil, fmt.Errorf("tiles: constraint: missing probabilities")
	}
	sets := AdmissibleSets(in.Probs)
	g, err := c.Solver.Solve(ctx, sets, in.Seed)
	if err != nil {
		return nil, fmt.Errorf("tiles: constraint: %w", err)
	}
	if g == nil || g.W != sets.W || g.H != sets.H || len(g.IDs) != len(sets.Sets) {
		return nil, fmt.Errorf("tiles: constraint: solver returned wrong grid shape")
	}
	for i, id := range g.IDs {
		if !sets.Sets[i].Has(id) {
			return nil, fmt.Errorf("tiles: constraint: tile %d at (%d,%d) not admissible", id, i%g.W, i/g.W)
		}
	}
	return g, nil
}
