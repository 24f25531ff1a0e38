package world

import (
	"fmt"
	"io"
	"sort"
	"time"

	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

type Stats struct {
	Biomes     [biome.Count]int
	Tiles      map[tiles.ID]int
	Placements [decor.TypeCount]int

	Draws   uint64
	Elapsed time.Duration
}

func computeStats(w *World) Stats {
	var s Stats
	if w.Biomes != nil {
		s.Biomes = w.Biomes.Histogram()
	}
	if w.Tiles != nil {
		s.Tiles = w.Tiles.Histogram()
	}
	for _, p := range w.Decorations {
		if p.Type.Valid() {
			s.Placements[p.Type]++
		}
	}
	return s
}

// WriteSummary prints the histograms, most frequent first.
func (s Stats) WriteSummary(out io.Writer) {
	type row struct {
		name string
		n    int
	}
	sorted := func(rs []row) []row {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].n > rs[j].n })
		return rs
	}

	var biomes []row
	total := 0
	for _, b := range biome.All() {
		if n := s.Biomes[b]; n > 0 {
			biomes = append(biomes, row{b.String(), n})
			total += n
		}
	}
	fmt.Fprintf(out, "biomes (%d cells):\n", total)
	for _, r := range sorted(biomes) {
		fmt.Fprintf(out, "  %-18s %7d  %5.1f%%\n", r.name, r.n, 100*float64(r.n)/float64(total))
	}

	var decos []row
	for t := decor.Type(0); int(t) < decor.TypeCount; t++ {
		if n := s.Placements[t]; n > 0 {
			decos = append(decos, row{t.String(), n})
		}
	}
	fmt.Fprintf(out, "decorations:\n")
	for _, r := range sorted(decos) {
		fmt.Fprintf(out, "  %-18s %7d\n", r.name, r.n)
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(out, "rng draws %d, elapsed %s\n", s.Draws, s.Elapsed.Round(time.Millisecond))
	}
}
