package noise

import (
	"math/rand"
	"testing"
)

var testLayer = LayerConfig{Frequency: 0.05, Octaves: 4, Lacunarity: 2, Persistence: 0.5}

func samplers() map[string]Sampler {
	return map[string]Sampler{
		ProviderOpenSimplex: OpenSimplex{Workers: 4},
		ProviderPerlin:      Perlin{Workers: 1},
	}
}

func TestSample_RangeOverManySeeds(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for name, s := range samplers() {
		for i := 0; i < 100; i++ {
			seed := r.Int63()
			f, err := s.Sample(64, 64, seed, testLayer)
			if err != nil {
				t.Fatalf("%s: sample: %v", name, err)
			}
			if len(f.V) != 64*64 {
				t.Fatalf("%s: len=%d", name, len(f.V))
			}
			for j, v := range f.V {
				if v < 0 || v > 1 {
					t.Fatalf("%s: seed=%d index=%d value %v out of [0,1]", name, seed, j, v)
				}
			}
		}
	}
}

func TestSample_Deterministic(t *testing.T) {
	for name, s := range samplers() {
		a, err := s.Sample(32, 24, 12345, testLayer)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		b, _ := s.Sample(32, 24, 12345, testLayer)
		for i := range a.V {
			if a.V[i] != b.V[i] {
				t.Fatalf("%s: index %d differs: %v vs %v", name, i, a.V[i], b.V[i])
			}
		}
	}
}

func TestSample_WorkerCountDoesNotChangeField(t *testing.T) {
	a, _ := OpenSimplex{Workers: 1}.Sample(40, 40, 9, testLayer)
	b, _ := OpenSimplex{Workers: 8}.Sample(40, 40, 9, testLayer)
	for i := range a.V {
		if a.V[i] != b.V[i] {
			t.Fatalf("index %d differs between worker counts", i)
		}
	}
}

func TestSample_DifferentSeedsDiffer(t *testing.T) {
	a, _ := OpenSimplex{}.Sample(16, 16, 1, testLayer)
	b, _ := OpenSimplex{}.Sample(16, 16, 2, testLayer)
	for i := range a.V {
		if a.V[i] != b.V[i] {
			return
		}
	}
	t.Fatalf("different seeds should produce different fields")
}

func TestSample_RejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		w, h int
		cfg  LayerConfig
	}{
		{name: "zero width", w: 0, h: 4, cfg: testLayer},
		{name: "negative height", w: 4, h: -1, cfg: testLayer},
		{name: "negative frequency", w: 4, h: 4, cfg: LayerConfig{Frequency: -0.1, Octaves: 3, Lacunarity: 2, Persistence: 0.5}},
		{name: "zero octaves", w: 4, h: 4, cfg: LayerConfig{Frequency: 0.1, Octaves: 0, Lacunarity: 2, Persistence: 0.5}},
		{name: "too many octaves", w: 4, h: 4, cfg: LayerConfig{Frequency: 0.1, Octaves: 9, Lacunarity: 2, Persistence: 0.5}},
	}
	for _, c := range cases {
		if _, err := (OpenSimplex{}).Sample(c.w, c.h, 1, c.cfg); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

type constSource float64

func (c constSource) Eval2(_, _ float64) float64 { return float64(c) }

func TestFBM_NormalisesByAmplitude(t *testing.T) {
	cfg := LayerConfig{Frequency: 1, Octaves: 5, Lacunarity: 2, Persistence: 0.5}
	if got := FBM(constSource(1), 3, 4, cfg); got != 1 {
		t.Fatalf("FBM of constant 1 = %v want 1", got)
	}
	if got := FBM(constSource(-1), 3, 4, cfg); got != -1 {
		t.Fatalf("FBM of constant -1 = %v want -1", got)
	}
}

func TestNew_Providers(t *testing.T) {
	for _, name := range []string{"", "opensimplex", "PERLIN"} {
		if _, err := New(name, 0); err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
	}
	if _, err := New("value", 0); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
