// Package tiles converts blended biome distributions into concrete tile choices.
package tiles

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wayblazer.ai/internal/sim/world/logic/rng"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/blend"
)

// ID identifies a tile. Zero means unassigned.
type ID uint16

const None ID = 0

// ForBiome is the fixed biome to tile table.
func ForBiome(b biome.Type) ID { return ID(b) + 1 }

// BiomeOf inverts ForBiome.
func BiomeOf(id ID) (biome.Type, bool) {
	if id == None {
		return 0, false
	}
	b := biome.Type(id - 1)
	return b, b.Valid()
}

type PaletteEntry struct {
	ID    ID     `json:"id"`
	Biome string `json:"biome"`
	Color string `json:"color"`
}

func Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, biome.Count)
	for _, b := range biome.All() {
		out = append(out, PaletteEntry{ID: ForBiome(b), Biome: b.String(), Color: b.Color()})
	}
	return out
}

// Grid is the expanded tile grid, row-major.
type Grid struct {
	W, H int
	IDs  []ID
}

func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, IDs: make([]ID, w*h)}
}

func (g *Grid) At(x, y int) ID      { return g.IDs[x+y*g.W] }
func (g *Grid) Set(x, y int, id ID) { g.IDs[x+y*g.W] = id }

func (g *Grid) Histogram() map[ID]int {
	out := map[ID]int{}
	for _, id := range g.IDs {
		out[id]++
	}
	return out
}

type Input struct {
	Probs  *blend.Map
	Seed   int64
	Stream *rng.Stream
}

type Selector interface {
	Name() string
	Select(ctx context.Context, in Input) (*Grid, error)
}

const (
	StrategyWeighted   = "weighted"
	StrategyConstraint = "constraint"
)

// New builds the selector for a configured strategy. The constraint strategy falls
// back to weighted random when solver is nil or fails.
func New(strategy string, solver Solver, logger *log.Logger) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyWeighted:
		return WeightedRandom{}, nil
	case StrategyConstraint:
		return Fallback{Primary: ConstraintSolver{Solver: solver}, Secondary: WeightedRandom{}, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("tiles: unknown strategy %q", strategy)
	}
}

// WeightedRandom draws one value per tile in row-major order and walks the
// distribution from most to least probable.
type WeightedRandom struct{}

func (WeightedRandom) Name() string { return StrategyWeighted }

func (WeightedRandom) Select(ctx context.Context, in Input) (*Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Probs == nil || in.Stream == nil {
		return nil, fmt.Errorf("tiles: weighted: missing probabilities or stream")
	}
	g := NewGrid(in.Probs.W, in.Probs.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Set(x, y, ForBiome(Pick(in.Probs.At(x, y), in.Stream.Float64())))
		}
	}
	return g, nil
}

// Pick returns the first biome whose cumulative probability reaches r.
func Pick(d blend.Distribution, r float64) biome.Type {
	entries := d.Sorted()
	if len(entries) == 0 {
		return biome.Ocean
	}
	var acc float64
	for _, e := range entries {
		acc += e.P
		if acc >= r {
			return e.Biome
		}
	}
	// Rounding can leave the total a hair under r.
	return entries[len(entries)-1].Biome
}

// Fallback runs Secondary when Primary fails.
type Fallback struct {
	Primary   Selector
	Secondary Selector
	Logger    *log.Logger
}

func (f Fallback) Name() string { return f.Primary.Name() }

func (f Fallback) Select(ctx context.Context, in Input) (*Grid, error) {
	g, err := f.Primary.Select(ctx, in)
	if err == nil {
		return g, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if f.Logger != nil {
		f.Logger.Printf("tiles: %s failed, using %s: %v", f.Primary.Name(), f.Secondary.Name(), err)
	}
	return f.Secondary.Select(ctx, in)
}
