package tuning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 128 || cfg.Seed != RandomSeed {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.BiomeRanges) == 0 || len(cfg.Decorations) == 0 {
		t.Fatalf("defaults missing biome table or decoration set")
	}
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	p := writeFile(t, "world.yaml", `
width: 4
height: 4
seed: 7
ocean_continent_enabled: false
edges_are_ocean: false
temperature_noise:
  frequency: 0.5
biome_ranges:
  - biome: PLAINS
    min_height: 0
    max_height: 1
    min_equator: 0
    max_equator: 1
tile_expansion_factor: 2
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 4 || cfg.Height != 4 || cfg.Seed != 7 || cfg.TileExpansionFactor != 2 {
		t.Fatalf("overlay lost: %+v", cfg)
	}
	if cfg.TemperatureNoise.Frequency != 0.5 || cfg.TemperatureNoise.Octaves != Defaults().TemperatureNoise.Octaves {
		t.Fatalf("partial layer should keep default octaves: %+v", cfg.TemperatureNoise)
	}
	if len(cfg.BiomeRanges) != 1 || cfg.BiomeRanges[0].Biome != biome.Plains {
		t.Fatalf("biome ranges=%+v", cfg.BiomeRanges)
	}
	if w, h := cfg.ExpandedSize(); w != 8 || h != 8 {
		t.Fatalf("expanded %dx%d", w, h)
	}
}

func TestLoad_TOML(t *testing.T) {
	p := writeFile(t, "world.toml", `
width = 16
height = 12
seed_text = "hello world"
noise_provider = "perlin"

[world_noise]
frequency = 0.07
octaves = 4

[[decorations]]
type = "ROCK"
min_value = 0.8
max_value = 1.0
valid_biomes = ["MOUNTAIN", "TUNDRA"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 16 || cfg.NoiseProvider != "perlin" || cfg.WorldNoise.Octaves != 4 {
		t.Fatalf("toml values lost: %+v", cfg)
	}
	if cfg.Seed != SeedFromText("hello world") || cfg.Seed < 0 {
		t.Fatalf("seed_text not applied: %d", cfg.Seed)
	}
	if len(cfg.Decorations) != 1 || cfg.Decorations[0].Type != decor.Rock {
		t.Fatalf("decorations=%+v", cfg.Decorations)
	}
	if cfg.Decorations[0].Noise != DefaultLayer() {
		t.Fatalf("missing decoration noise should default, got %+v", cfg.Decorations[0].Noise)
	}
}

func TestLoad_JSON(t *testing.T) {
	p := writeFile(t, "world.json", `{"width": 10, "height": 10, "seed": 9007199254740993, "tile_strategy": "constraint"}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed != 9007199254740993 {
		t.Fatalf("large seed lost precision: %d", cfg.Seed)
	}
	if cfg.TileStrategy != "constraint" {
		t.Fatalf("strategy=%q", cfg.TileStrategy)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name, file, body string
	}{
		{name: "zero width", file: "a.yaml", body: "width: 0\n"},
		{name: "negative frequency", file: "b.yaml", body: "world_noise:\n  frequency: -0.1\n"},
		{name: "zero octaves", file: "c.yaml", body: "temperature_noise:\n  octaves: 0\n"},
		{name: "too many octaves", file: "d.yaml", body: "world_noise:\n  octaves: 9\n"},
		{name: "unknown key", file: "e.yaml", body: "widht: 10\n"},
		{name: "unknown biome", file: "f.yaml", body: "biome_ranges:\n  - biome: LAVA\n"},
		{name: "inverted falloff", file: "g.yaml", body: "edge_falloff_min: 10\nedge_falloff_max: 2\n"},
		{name: "zero factor", file: "h.toml", body: "tile_expansion_factor = 0\n"},
	}
	for _, c := range cases {
		_, err := Load(writeFile(t, c.file, c.body))
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: err=%v want ErrInvalid", c.name, err)
		}
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	if _, err := Load(writeFile(t, "world.ini", "width=3")); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestValidate_CodeConfig(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg.WorldNoise.Octaves = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}
	cfg = Defaults()
	cfg.Decorations[0].MinValue, cfg.Decorations[0].MaxValue = 0.9, 0.1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}
}

func TestNormalize_KeepsPartialLayersInvalid(t *testing.T) {
	cfg := Defaults()
	cfg.EdgeNoise.Octaves = 0
	cfg.Normalize()
	if cfg.EdgeNoise.Octaves != 0 {
		t.Fatalf("octaves defaulted to %d", cfg.EdgeNoise.Octaves)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err=%v want ErrInvalid", err)
	}

	cfg = Defaults()
	cfg.WorldNoise = noise.LayerConfig{}
	cfg.Normalize()
	if cfg.WorldNoise != DefaultLayer() {
		t.Fatalf("unset layer not defaulted: %+v", cfg.WorldNoise)
	}
}

func TestSeedFromText_Stable(t *testing.T) {
	a, b := SeedFromText("wayblazer"), SeedFromText("wayblazer")
	if a != b || a < 0 {
		t.Fatalf("seed %d/%d", a, b)
	}
	if SeedFromText("wayblazer") == SeedFromText("wayblazer2") {
		t.Fatalf("distinct text should give distinct seeds")
	}
}

func TestLoadSource_LocalPath(t *testing.T) {
	p := writeFile(t, "world.yaml", "width: 5\nheight: 6\n")
	cfg, err := LoadSource(context.Background(), p, t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Width != 5 || cfg.Height != 6 {
		t.Fatalf("got %dx%d", cfg.Width, cfg.Height)
	}
	if !IsRemote("https://example.com/world.yaml") || !IsRemote("git::https://example.com/repo.git//world.yaml") || IsRemote(p) {
		t.Fatalf("IsRemote misclassified")
	}
}
