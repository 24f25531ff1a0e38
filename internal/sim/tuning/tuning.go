package tuning

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/noise"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// ErrInvalid wraps every structural configuration error.
var ErrInvalid = errors.New("invalid worldgen config")

// RandomSeed asks the generator to pick a fresh seed.
const RandomSeed int64 = -1

type WorldGen struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Seed     int64  `yaml:"seed"`
	SeedText string `yaml:"seed_text,omitempty"`

	NoiseProvider string `yaml:"noise_provider"`
	TileStrategy  string `yaml:"tile_strategy"`
	Workers       int    `yaml:"workers"`

	OceanContinentEnabled bool              `yaml:"ocean_continent_enabled"`
	OceanThreshold        float64           `yaml:"ocean_threshold"`
	OceanContinentNoise   noise.LayerConfig `yaml:"ocean_continent_noise"`

	EdgesAreOcean  bool              `yaml:"edges_are_ocean"`
	EdgeFalloffMin float64           `yaml:"edge_falloff_min"`
	EdgeFalloffMax float64           `yaml:"edge_falloff_max"`
	EdgeNoise      noise.LayerConfig `yaml:"edge_noise"`

	WorldNoise           noise.LayerConfig `yaml:"world_noise"`
	TemperatureNoise     noise.LayerConfig `yaml:"temperature_noise"`
	TemperatureInfluence float64           `yaml:"temperature_influence"`

	BiomeRanges []biome.Range  `yaml:"biome_ranges"`
	Decorations []decor.Config `yaml:"decorations"`

	TileExpansionFactor int `yaml:"tile_expansion_factor"`
	BiomeSampleRadius   int `yaml:"biome_sample_radius"`
}

// DefaultLayer is the layer every unset noise field falls back to.
func DefaultLayer() noise.LayerConfig {
	return noise.LayerConfig{Frequency: 0.01, Octaves: 3, Lacunarity: 2, Persistence: 0.5}
}

func Defaults() WorldGen {
	return WorldGen{
		Width:         128,
		Height:        96,
		Seed:          RandomSeed,
		NoiseProvider: noise.ProviderOpenSimplex,
		TileStrategy:  tiles.StrategyWeighted,

		OceanContinentEnabled: true,
		OceanThreshold:        0.35,
		OceanContinentNoise:   noise.LayerConfig{Frequency: 0.004, Octaves: 2, Lacunarity: 2, Persistence: 0.5},

		EdgesAreOcean:  true,
		EdgeFalloffMin: 6,
		EdgeFalloffMax: 14,
		EdgeNoise:      noise.LayerConfig{Frequency: 0.08, Octaves: 2, Lacunarity: 2, Persistence: 0.5},

		WorldNoise:           noise.LayerConfig{Frequency: 0.03, Octaves: 5, Lacunarity: 2, Persistence: 0.5},
		TemperatureNoise:     noise.LayerConfig{Frequency: 0.02, Octaves: 3, Lacunarity: 2, Persistence: 0.5},
		TemperatureInfluence: 0.25,

		BiomeRanges: biome.DefaultRanges(),
		Decorations: decor.DefaultConfigs(),

		TileExpansionFactor: 3,
		BiomeSampleRadius:   2,
	}
}

// SeedFromText maps a text seed onto a non-negative numeric seed.
func SeedFromText(s string) int64 {
	return int64(xxhash.Sum64String(s) & math.MaxInt64)
}

//go:embed worldgen.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("worldgen.schema.json", schemaJSON)

// Load reads a YAML, TOML or JSON config (chosen by extension) over Defaults, checks
// it against the embedded schema, then normalizes and validates it. An empty path
// yields the defaults.
func Load(path string) (WorldGen, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	name := filepath.Base(path)
	if err := Decode(raw, filepath.Ext(path), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	for _, l := range cfg.layers() {
		fillLayerFields(l)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Decode parses raw in the format named by ext and overlays it on cfg. Every format
// is reduced to JSON first so one schema and one set of yaml tags serve all three.
func Decode(raw []byte, ext string, cfg *WorldGen) error {
	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return err
		}
	case ".toml":
		tree, err := toml.LoadBytes(raw)
		if err != nil {
			return err
		}
		doc = tree.ToMap()
	case ".json":
		doc = json.RawMessage(raw)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if doc == nil {
		return nil
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// JSON is valid YAML.
	return yaml.Unmarshal(js, cfg)
}

// Normalize fills unset optional sections. A noise layer is only defaulted when it
// is entirely unset; a partly set layer is left for Validate to reject.
func (c *WorldGen) Normalize() {
	if c == nil {
		return
	}
	if c.SeedText != "" {
		c.Seed = SeedFromText(c.SeedText)
	}
	if c.NoiseProvider == "" {
		c.NoiseProvider = noise.ProviderOpenSimplex
	}
	if c.TileStrategy == "" {
		c.TileStrategy = tiles.StrategyWeighted
	}
	if len(c.BiomeRanges) == 0 {
		c.BiomeRanges = biome.DefaultRanges()
	}
	if c.Decorations == nil {
		c.Decorations = decor.DefaultConfigs()
	}
	for _, l := range c.layers() {
		if *l == (noise.LayerConfig{}) {
			*l = DefaultLayer()
		}
	}
}

func (c *WorldGen) layers() []*noise.LayerConfig {
	out := []*noise.LayerConfig{&c.WorldNoise, &c.TemperatureNoise, &c.OceanContinentNoise, &c.EdgeNoise}
	for i := range c.Decorations {
		out = append(out, &c.Decorations[i].Noise)
	}
	return out
}

// fillLayerFields defaults the fields a loaded file left out. Only for decoded files:
// the schema has already rejected explicit zeros there, so a zero means absent.
func fillLayerFields(l *noise.LayerConfig) {
	d := DefaultLayer()
	if l.Frequency == 0 {
		l.Frequency = d.Frequency
	}
	if l.Octaves == 0 {
		l.Octaves = d.Octaves
	}
	if l.Lacunarity == 0 {
		l.Lacunarity = d.Lacunarity
	}
	if l.Persistence == 0 {
		l.Persistence = d.Persistence
	}
}

func (c WorldGen) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: width and height must be > 0 (got %dx%d)", ErrInvalid, c.Width, c.Height)
	}
	if c.Seed < RandomSeed {
		return fmt.Errorf("%w: seed must be >= -1 (got %d)", ErrInvalid, c.Seed)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalid)
	}
	if _, err := noise.New(c.NoiseProvider, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := tiles.New(c.TileStrategy, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	layers := []struct {
		name string
		l    noise.LayerConfig
		used bool
	}{
		{name: "world_noise", l: c.WorldNoise, used: true},
		{name: "temperature_noise", l: c.TemperatureNoise, used: true},
		{name: "ocean_continent_noise", l: c.OceanContinentNoise, used: c.OceanContinentEnabled},
		{name: "edge_noise", l: c.EdgeNoise, used: c.EdgesAreOcean},
	}
	for _, l := range layers {
		if !l.used {
			continue
		}
		if err := l.l.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, l.name, err)
		}
	}

	if c.OceanThreshold < 0 || c.OceanThreshold > 1 {
		return fmt.Errorf("%w: ocean_threshold must be in [0,1] (got %v)", ErrInvalid, c.OceanThreshold)
	}
	if c.TemperatureInfluence < 0 || c.TemperatureInfluence > 1 {
		return fmt.Errorf("%w: temperature_influence must be in [0,1] (got %v)", ErrInvalid, c.TemperatureInfluence)
	}
	if c.EdgesAreOcean && (c.EdgeFalloffMin < 0 || c.EdgeFalloffMin > c.EdgeFalloffMax) {
		return fmt.Errorf("%w: edge falloff needs 0 <= min <= max (got %v..%v)", ErrInvalid, c.EdgeFalloffMin, c.EdgeFalloffMax)
	}
	if c.TileExpansionFactor < 1 {
		return fmt.Errorf("%w: tile_expansion_factor must be >= 1 (got %d)", ErrInvalid, c.TileExpansionFactor)
	}
	if c.BiomeSampleRadius < 0 {
		return fmt.Errorf("%w: biome_sample_radius must be >= 0 (got %d)", ErrInvalid, c.BiomeSampleRadius)
	}
	for i, r := range c.BiomeRanges {
		if !r.Biome.Valid() || r.MinHeight > r.MaxHeight || r.MinEquator > r.MaxEquator {
			return fmt.Errorf("%w: biome_ranges[%d] (%s) is inverted or unknown", ErrInvalid, i, r.Biome)
		}
	}
	for i, d := range c.Decorations {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%w: decorations[%d]: %v", ErrInvalid, i, err)
		}
	}
	return nil
}

// ExpandedSize is the tile grid size.
func (c WorldGen) ExpandedSize() (int, int) {
	return c.Width * c.TileExpansionFactor, c.Height * c.TileExpansionFactor
}
