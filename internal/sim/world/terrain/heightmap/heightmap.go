// Package heightmap builds the shaped elevation field that drives biome classification.
package heightmap

import (
	"fmt"

	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/logic/rng"
	"wayblazer.ai/internal/sim/world/logic/rows"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

// OceanDampening scales cells that fall inside a continent-mask ocean basin.
const OceanDampening = 0.2

type Params struct {
	Width, Height int
	World         noise.LayerConfig

	OceanContinentEnabled bool
	OceanThreshold        float64
	OceanNoise            noise.LayerConfig

	EdgesAreOcean  bool
	EdgeFalloffMin float64
	EdgeFalloffMax float64
	EdgeNoise      noise.LayerConfig

	Workers int
}

type Edge int

const (
	Top Edge = iota
	Bottom
	Left
	Right
)

// Falloffs holds one falloff distance per edge, indexed by Edge.
type Falloffs [4]float64

// DrawFalloffs takes exactly four values from s, in Top, Bottom, Left, Right order.
func DrawFalloffs(s *rng.Stream, lo, hi float64) Falloffs {
	var f Falloffs
	for e := Top; e <= Right; e++ {
		f[e] = s.Range(lo, hi)
	}
	return f
}

// NearestEdge returns the distance from (x,y) to the closest grid edge and which edge
// that is. Ties resolve in Top, Bottom, Left, Right order.
func NearestEdge(x, y, w, h int) (int, Edge) {
	d, e := y, Top
	if v := h - 1 - y; v < d {
		d, e = v, Bottom
	}
	if x < d {
		d, e = x, Left
	}
	if v := w - 1 - x; v < d {
		d, e = v, Right
	}
	return d, e
}

// EdgeFactor is the multiplier for a cell at distance d from its nearest edge.
func EdgeFactor(d int, falloff, edgeNoise float64) float64 {
	m := falloff * (0.5 + edgeNoise)
	if m <= 0 {
		return 1
	}
	return mathx.Clamp01(float64(d) / m)
}

// Build samples the world noise and applies the continent mask and edge falloff.
// The stream is drawn from only when EdgesAreOcean is set.
func Build(seed int64, p Params, sampler noise.Sampler, stream *rng.Stream) (*noise.Field, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("heightmap: size must be > 0 (got %dx%d)", p.Width, p.Height)
	}
	if p.EdgesAreOcean && p.EdgeFalloffMin > p.EdgeFalloffMax {
		return nil, fmt.Errorf("heightmap: edge falloff min %v > max %v", p.EdgeFalloffMin, p.EdgeFalloffMax)
	}

	hm, err := sampler.Sample(p.Width, p.Height, seed+noise.OffsetWorld, p.World)
	if err != nil {
		return nil, fmt.Errorf("heightmap: world: %w", err)
	}

	var ocean, edge *noise.Field
	if p.OceanContinentEnabled {
		if ocean, err = sampler.Sample(p.Width, p.Height, seed+noise.OffsetOcean, p.OceanNoise); err != nil {
			return nil, fmt.Errorf("heightmap: ocean: %w", err)
		}
	}
	var falloffs Falloffs
	if p.EdgesAreOcean {
		falloffs = DrawFalloffs(stream, p.EdgeFalloffMin, p.EdgeFalloffMax)
		if edge, err = sampler.Sample(p.Width, p.Height, seed+noise.OffsetEdge, p.EdgeNoise); err != nil {
			return nil, fmt.Errorf("heightmap: edge: %w", err)
		}
	}
	if ocean == nil && edge == nil {
		return hm, nil
	}

	rows.Each(p.Height, p.Workers, func(y int) {
		for x := 0; x < p.Width; x++ {
			factor := 1.0
			if ocean != nil && ocean.At(x, y) < p.OceanThreshold {
				factor = OceanDampening
			}
			if edge != nil {
				d, e := NearestEdge(x, y, p.Width, p.Height)
				factor = min(factor, EdgeFactor(d, falloffs[e], edge.At(x, y)))
			}
			hm.Set(x, y, hm.At(x, y)*factor)
		}
	})
	return hm, nil
}
