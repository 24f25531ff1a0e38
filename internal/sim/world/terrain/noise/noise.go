// Package noise samples deterministic fractal (fBm) coherent-noise fields in [0,1].
package noise

import (
	"fmt"
	"strings"

	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/logic/rows"
)

// Seed offsets per logical field. Every field of a run is sampled at
// masterSeed+offset, so moving one offset never perturbs another field.
const (
	OffsetWorld       int64 = 0
	OffsetTemperature int64 = 1
	OffsetOcean       int64 = 2
	OffsetEdge        int64 = 3
	OffsetDecoration  int64 = 100 // + decoration type value
)

const MaxOctaves = 8

type LayerConfig struct {
	Frequency   float64 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Persistence float64 `yaml:"persistence"`
}

func (c LayerConfig) Validate() error {
	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be > 0 (got %v)", c.Frequency)
	}
	if c.Octaves < 1 || c.Octaves > MaxOctaves {
		return fmt.Errorf("octaves must be in [1,%d] (got %d)", MaxOctaves, c.Octaves)
	}
	if c.Lacunarity <= 0 {
		return fmt.Errorf("lacunarity must be > 0 (got %v)", c.Lacunarity)
	}
	if c.Persistence <= 0 {
		return fmt.Errorf("persistence must be > 0 (got %v)", c.Persistence)
	}
	return nil
}

// Field is a width×height grid of samples, row-major (index x + y*W).
type Field struct {
	W, H int
	V    []float64
}

func NewField(w, h int) *Field {
	return &Field{W: w, H: h, V: make([]float64, w*h)}
}

func (f *Field) At(x, y int) float64     { return f.V[x+y*f.W] }
func (f *Field) Set(x, y int, v float64) { f.V[x+y*f.W] = v }

// Sampler produces a noise field with every value in [0,1]. Equal arguments must
// give bit-identical fields.
type Sampler interface {
	Sample(width, height int, seed int64, cfg LayerConfig) (*Field, error)
}

// Source is a single-octave coherent noise with output in [-1,1].
type Source interface {
	Eval2(x, y float64) float64
}

// FBM layers cfg.Octaves octaves of src at (x,y) and returns the
// amplitude-normalised sum, nominally in [-1,1].
func FBM(src Source, x, y float64, cfg LayerConfig) float64 {
	var total, norm float64
	amp := 1.0
	freq := cfg.Frequency
	for range cfg.Octaves {
		total += src.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= cfg.Persistence
		freq *= cfg.Lacunarity
	}
	return total / norm
}

// fill samples src over the grid, remapping (v+1)/2 into [0,1].
func fill(width, height, workers int, src Source, cfg LayerConfig) *Field {
	f := NewField(width, height)
	rows.Each(height, workers, func(y int) {
		for x := 0; x < width; x++ {
			v := FBM(src, float64(x), float64(y), cfg)
			f.Set(x, y, mathx.Clamp01((v+1)/2))
		}
	})
	return f
}

func checkArgs(width, height int, cfg LayerConfig) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("noise: size must be > 0 (got %dx%d)", width, height)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	return nil
}

const (
	ProviderOpenSimplex = "opensimplex"
	ProviderPerlin      = "perlin"
)

// New returns the sampler registered under provider. The empty name selects
// OpenSimplex.
func New(provider string, workers int) (Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenSimplex:
		return OpenSimplex{Workers: workers}, nil
	case ProviderPerlin:
		return Perlin{Workers: workers}, nil
	default:
		return nil, fmt.Errorf("noise: unknown provider %q", provider)
	}
}
