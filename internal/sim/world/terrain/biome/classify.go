package biome

import (
	"fmt"
	"math"

	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/logic/rows"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

type Params struct {
	Ranges               []Range
	TemperatureInfluence float64
	Workers              int
}

// EquatorValue is the latitude proxy: 0 on the horizontal midline, 1 at the top and
// bottom edges.
func EquatorValue(y, height int) float64 {
	half := float64(height) / 2
	return math.Abs(float64(y)-half) / half
}

// Classify assigns a biome to every heightmap cell. Cells matched by no range become
// Ocean. When several ranges match, temperature picks among them in configured order.
func Classify(height, temperature *noise.Field, p Params) (*Grid, error) {
	if height == nil || temperature == nil {
		return nil, fmt.Errorf("classify: nil field")
	}
	if height.W != temperature.W || height.H != temperature.H {
		return nil, fmt.Errorf("classify: heightmap %dx%d does not match temperature %dx%d",
			height.W, height.H, temperature.W, temperature.H)
	}
	w, h := height.W, height.H
	g := &Grid{w: w, h: h, cells: make([]Type, w*h)}

	rows.Each(h, p.Workers, func(y int) {
		matches := make([]Type, 0, len(p.Ranges))
		base := EquatorValue(y, h)
		for x := 0; x < w; x++ {
			t := temperature.At(x, y)
			eq := mathx.Clamp01(base + (t-0.5)*2*p.TemperatureInfluence)
			hv := height.At(x, y)

			matches = matches[:0]
			for _, r := range p.Ranges {
				if r.Contains(hv, eq) {
					matches = append(matches, r.Biome)
				}
			}
			g.cells[x+y*w] = pick(matches, t)
		}
	})
	return g, nil
}

func pick(matches []Type, temperature float64) Type {
	n := len(matches)
	switch n {
	case 0:
		return Ocean
	case 1:
		return matches[0]
	}
	i := mathx.Mod(int(math.Floor(temperature*float64(n))), n)
	return matches[i]
}
