// Package blend turns the logical biome grid into per-tile biome probability
// distributions at the expanded resolution, smoothing biome boundaries.
package blend

import (
	"fmt"
	"sort"

	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/logic/rows"
	"wayblazer.ai/internal/sim/world/terrain/biome"
)

// Distribution is a probability per biome, indexed by biome.Type.
type Distribution [biome.Count]float64

type Entry struct {
	Biome biome.Type
	P     float64
}

func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d {
		s += p
	}
	return s
}

// Dominant returns the most probable biome; ties go to the lower biome value.
func (d Distribution) Dominant() biome.Type {
	best := 0
	for i := 1; i < len(d); i++ {
		if d[i] > d[best] {
			best = i
		}
	}
	return biome.Type(best)
}

// Sorted lists the non-zero entries by descending probability, ties by ascending biome.
func (d Distribution) Sorted() []Entry {
	out := make([]Entry, 0, 4)
	for i, p := range d {
		if p > 0 {
			out = append(out, Entry{Biome: biome.Type(i), P: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].P > out[j].P })
	return out
}

type tap struct {
	dx, dy int
	w      float64
}

// Blender estimates biome probabilities for expanded-grid positions. It is read-only
// after New and safe for concurrent use.
type Blender struct {
	grid   *biome.Grid
	factor int
	radius int
	kernel []tap
}

func New(grid *biome.Grid, factor, radius int) (*Blender, error) {
	if grid == nil {
		return nil, fmt.Errorf("blend: nil biome grid")
	}
	if factor < 1 {
		return nil, fmt.Errorf("blend: tile expansion factor must be >= 1 (got %d)", factor)
	}
	if radius < 0 {
		return nil, fmt.Errorf("blend: sample radius must be >= 0 (got %d)", radius)
	}
	b := &Blender{grid: grid, factor: factor, radius: radius}
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			b.kernel = append(b.kernel, tap{dx: dx, dy: dy, w: 1 / float64(1+dx*dx+dy*dy)})
		}
	}
	return b, nil
}

func (b *Blender) Factor() int { return b.factor }
func (b *Blender) Width() int  { return b.grid.Width() * b.factor }
func (b *Blender) Height() int { return b.grid.Height() * b.factor }

// Probabilities returns the normalised biome distribution at expanded position (tx,ty).
func (b *Blender) Probabilities(tx, ty int) Distribution {
	w, h := b.grid.Width(), b.grid.Height()
	cx := mathx.FloorDiv(tx, b.factor)
	cy := mathx.FloorDiv(ty, b.factor)

	var d Distribution
	var total float64
	for _, k := range b.kernel {
		x := mathx.ClampInt(cx+k.dx, 0, w-1)
		y := mathx.ClampInt(cy+k.dy, 0, h-1)
		d[b.grid.At(x, y)] += k.w
		total += k.w
	}
	for i := range d {
		d[i] /= total
	}
	return d
}

// Map holds the distribution of every expanded position, row-major.
type Map struct {
	W, H int
	D    []Distribution
}

func (m *Map) At(x, y int) Distribution { return m.D[x+y*m.W] }

// All computes the distribution for every expanded position.
func (b *Blender) All(workers int) *Map {
	m := &Map{W: b.Width(), H: b.Height()}
	m.D = make([]Distribution, m.W*m.H)
	rows.Each(m.H, workers, func(y int) {
		for x := 0; x < m.W; x++ {
			m.D[x+y*m.W] = b.Probabilities(x, y)
		}
	})
	return m
}
