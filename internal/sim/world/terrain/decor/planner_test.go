package decor

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"wayblazer.ai/internal/sim/world/logic/rng"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/blend"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

var testCatalog = CatalogMap{
	Tree:       {{Name: "oak", Resource: &Resource{Kind: Wood, Name: "log", Amount: 3}}, {Name: "birch"}},
	Rock:       {{Name: "boulder"}},
	OreDeposit: {{Name: "iron_vein", Resource: &Resource{Kind: Ore, Name: "iron_ore", Amount: 5}}},
}

func probsFor(t *testing.T, w, h, factor int, cells []biome.Type) *blend.Map {
	t.Helper()
	g, err := biome.FromCells(w, h, cells)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	b, err := blend.New(g, factor, 1)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	return b.All(2)
}

// halfMountains is a 8x8 grid: left half MOUNTAIN, right half PLAINS.
func halfMountains(t *testing.T) *blend.Map {
	cells := make([]biome.Type, 64)
	for i := range cells {
		if i%8 < 4 {
			cells[i] = biome.Mountain
		} else {
			cells[i] = biome.Plains
		}
	}
	return probsFor(t, 8, 8, 3, cells)
}

func allBiomes() []biome.Type { return biome.All() }

func TestPlan_DecorationBounds(t *testing.T) {
	m := halfMountains(t)
	cfg := Config{
		Type:        OreDeposit,
		Noise:       noise.LayerConfig{Frequency: 0.15, Octaves: 2, Lacunarity: 2, Persistence: 0.5},
		MinValue:    0.2,
		MaxValue:    0.5,
		ValidBiomes: []biome.Type{biome.Mountain},
	}
	sampler := noise.OpenSimplex{Workers: 2}
	placements, err := Plan(context.Background(), 77, m, Params{Configs: []Config{cfg}, Catalog: testCatalog}, sampler, rng.New(77))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(placements) == 0 {
		t.Fatalf("expected some placements")
	}
	field, _ := sampler.Sample(m.W, m.H, OreDeposit.NoiseSeed(77), cfg.Noise)
	for _, pl := range placements {
		if pl.Noise < 0.2 || pl.Noise > 0.5 {
			t.Fatalf("placement at (%d,%d) noise %v outside [0.2,0.5]", pl.X, pl.Y, pl.Noise)
		}
		if pl.Noise != field.At(pl.X, pl.Y) {
			t.Fatalf("placement noise does not match the type's field")
		}
		if d := m.At(pl.X, pl.Y).Dominant(); d != biome.Mountain {
			t.Fatalf("placement at (%d,%d) on %s", pl.X, pl.Y, d)
		}
		if pl.Resource == nil || pl.Resource.Kind != Ore {
			t.Fatalf("ore deposit without ore payload: %+v", pl)
		}
	}
}

func TestPlan_FirstMatchWins(t *testing.T) {
	m := halfMountains(t)
	everywhere := noise.LayerConfig{Frequency: 0.1, Octaves: 1, Lacunarity: 2, Persistence: 0.5}
	configs := []Config{
		{Type: Rock, Noise: everywhere, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()},
		{Type: Tree, Noise: everywhere, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()},
	}
	placements, err := Plan(context.Background(), 1, m, Params{Configs: configs, Catalog: testCatalog}, noise.OpenSimplex{}, rng.New(1))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(placements) != m.W*m.H {
		t.Fatalf("placements=%d want one per cell (%d)", len(placements), m.W*m.H)
	}
	for i, pl := range placements {
		if pl.Type != Rock {
			t.Fatalf("cell %d got %s want ROCK", i, pl.Type)
		}
		if pl.X != i%m.W || pl.Y != i/m.W {
			t.Fatalf("placement %d at (%d,%d) out of raster order", i, pl.X, pl.Y)
		}
	}
}

func TestPlan_VariantDrawsOnlyWhenNeeded(t *testing.T) {
	m := halfMountains(t)
	wide := noise.LayerConfig{Frequency: 0.1, Octaves: 1, Lacunarity: 2, Persistence: 0.5}

	single := rng.New(2)
	rocks, err := Plan(context.Background(), 2, m, Params{
		Configs: []Config{{Type: Rock, Noise: wide, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()}},
		Catalog: testCatalog,
	}, noise.OpenSimplex{}, single)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(rocks) == 0 || single.Draws() != 0 {
		t.Fatalf("rocks=%d draws=%d, want placements with no draws", len(rocks), single.Draws())
	}

	multi := rng.New(2)
	trees, err := Plan(context.Background(), 2, m, Params{
		Configs: []Config{{Type: Tree, Noise: wide, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()}},
		Catalog: testCatalog,
	}, noise.OpenSimplex{}, multi)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if multi.Draws() != uint64(len(trees)) {
		t.Fatalf("draws=%d want one per tree (%d)", multi.Draws(), len(trees))
	}
}

func TestPlan_SkipsTypesWithoutCatalogEntry(t *testing.T) {
	m := halfMountains(t)
	wide := noise.LayerConfig{Frequency: 0.1, Octaves: 1, Lacunarity: 2, Persistence: 0.5}
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	configs := []Config{
		{Type: Cactus, Noise: wide, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()},
		{Type: Cactus, Noise: wide, MinValue: 0, MaxValue: 0.5, ValidBiomes: allBiomes()},
		{Type: Rock, Noise: wide, MinValue: 0, MaxValue: 1, ValidBiomes: allBiomes()},
	}
	placements, err := Plan(context.Background(), 3, m, Params{Configs: configs, Catalog: testCatalog, Logger: logger}, noise.OpenSimplex{}, rng.New(3))
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, pl := range placements {
		if pl.Type != Rock {
			t.Fatalf("got %s, cactus has no catalog entry", pl.Type)
		}
	}
	if n := strings.Count(buf.String(), "CACTUS"); n != 1 {
		t.Fatalf("cactus skip logged %d times, want once: %q", n, buf.String())
	}
}

func TestPlan_Deterministic(t *testing.T) {
	m := halfMountains(t)
	run := func() []Placement {
		out, err := Plan(context.Background(), 42, m, Params{Configs: DefaultConfigs(), Catalog: testCatalog, Workers: 4}, noise.OpenSimplex{Workers: 4}, rng.New(42))
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("len %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("placement %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPlan_RejectsInvertedBounds(t *testing.T) {
	m := halfMountains(t)
	cfg := Config{Type: Rock, Noise: noise.LayerConfig{Frequency: 0.1, Octaves: 1, Lacunarity: 2, Persistence: 0.5}, MinValue: 0.6, MaxValue: 0.4, ValidBiomes: allBiomes()}
	if _, err := Plan(context.Background(), 1, m, Params{Configs: []Config{cfg}, Catalog: testCatalog}, noise.OpenSimplex{}, rng.New(1)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestType_Text(t *testing.T) {
	for i := 0; i < TypeCount; i++ {
		ty := Type(i)
		b, err := ty.MarshalText()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got Type
		if err := got.UnmarshalText(b); err != nil || got != ty {
			t.Fatalf("round trip %s: %v %v", b, got, err)
		}
	}
	var k ResourceKind
	if err := k.UnmarshalText([]byte("gas")); err != nil || k != Gas {
		t.Fatalf("kind=%v err=%v", k, err)
	}
}
