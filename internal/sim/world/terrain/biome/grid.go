package biome

import "fmt"

// Grid maps logical cells to biomes. It is immutable once built.
type Grid struct {
	w, h  int
	cells []Type // x + y*w
}

// FromCells copies cells into a new grid.
func FromCells(w, h int, cells []Type) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("biome grid: size must be > 0 (got %dx%d)", w, h)
	}
	if len(cells) != w*h {
		return nil, fmt.Errorf("biome grid: got %d cells want %d", len(cells), w*h)
	}
	cp := make([]Type, len(cells))
	for i, c := range cells {
		if !c.Valid() {
			return nil, fmt.Errorf("biome grid: invalid biome %d at %d", uint8(c), i)
		}
		cp[i] = c
	}
	return &Grid{w: w, h: h, cells: cp}, nil
}

func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

func (g *Grid) At(x, y int) Type { return g.cells[x+y*g.w] }

// Cells returns a copy of the row-major cell slice.
func (g *Grid) Cells() []Type {
	out := make([]Type, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *Grid) Histogram() [Count]int {
	var out [Count]int
	for _, c := range g.cells {
		out[c]++
	}
	return out
}
