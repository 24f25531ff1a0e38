package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// OpenSimplex is the default sampler.
type OpenSimplex struct {
	Workers int
}

func (s OpenSimplex) Sample(width, height int, seed int64, cfg LayerConfig) (*Field, error) {
	if err := checkArgs(width, height, cfg); err != nil {
		return nil, err
	}
	return fill(width, height, s.Workers, opensimplex.New(seed), cfg), nil
}

// Perlin samples classic gradient noise. Octaves are layered by FBM, so the
// library's own octave loop is pinned to one pass.
type Perlin struct {
	Workers int
}

func (s Perlin) Sample(width, height int, seed int64, cfg LayerConfig) (*Field, error) {
	if err := checkArgs(width, height, cfg); err != nil {
		return nil, err
	}
	return fill(width, height, s.Workers, perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}, cfg), nil
}

type perlinSource struct{ p *perlin.Perlin }

// 2D gradient noise peaks at ±sqrt(1/2); scale to [-1,1].
func (s perlinSource) Eval2(x, y float64) float64 {
	return s.p.Noise2D(x, y) * math.Sqrt2
}
