package decor

import (
	"fmt"
	"strings"

	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

// Type is a decoration kind. Its numeric value is part of the decoration noise seed.
type Type uint8

const (
	Tree Type = iota
	Rock
	Bush
	OreDeposit
	Cactus
	Reed
	Flower
)

const TypeCount = int(Flower) + 1

var typeNames = [TypeCount]string{"TREE", "ROCK", "BUSH", "ORE_DEPOSIT", "CACTUS", "REED", "FLOWER"}

func (t Type) Valid() bool { return int(t) < TypeCount }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DECORATION(%d)", uint8(t))
	}
	return typeNames[t]
}

func ParseType(s string) (Type, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == key {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown decoration type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid decoration type %d", uint8(t))
	}
	return []byte(typeNames[t]), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NoiseSeed is the seed of this type's placement noise field.
func (t Type) NoiseSeed(master int64) int64 {
	return master + noise.OffsetDecoration + int64(t)
}

type ResourceKind uint8

const (
	Wood ResourceKind = iota
	Ore
	Ground
	Gas
)

var kindNames = [...]string{"WOOD", "ORE", "GROUND", "GAS"}

func (k ResourceKind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("RESOURCE(%d)", uint8(k))
	}
	return kindNames[k]
}

func (k ResourceKind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid resource kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *ResourceKind) UnmarshalText(b []byte) error {
	key := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, n := range kindNames {
		if n == key {
			*k = ResourceKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resource kind %q", string(b))
}

// Resource is the harvestable payload carried by a placed decoration.
type Resource struct {
	Kind   ResourceKind `json:"kind" yaml:"kind"`
	Name   string       `json:"name" yaml:"name"`
	Amount int          `json:"amount,omitempty" yaml:"amount"`
}

// Variant is one visual/resource form of a decoration type.
type Variant struct {
	Name     string    `json:"name" yaml:"name"`
	Resource *Resource `json:"resource,omitempty" yaml:"resource,omitempty"`
}

// Catalog resolves the variants registered for a decoration type. A type without an
// entry has no asset and is never placed.
type Catalog interface {
	Variants(t Type) ([]Variant, bool)
}

type CatalogMap map[Type][]Variant

func (m CatalogMap) Variants(t Type) ([]Variant, bool) {
	v, ok := m[t]
	return v, ok && len(v) > 0
}

type Config struct {
	Type        Type              `yaml:"type"`
	Noise       noise.LayerConfig `yaml:"noise"`
	MinValue    float64           `yaml:"min_value"`
	MaxValue    float64           `yaml:"max_value"`
	ValidBiomes []biome.Type      `yaml:"valid_biomes"`
}

func (c Config) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("invalid decoration type %d", uint8(c.Type))
	}
	if err := c.Noise.Validate(); err != nil {
		return fmt.Errorf("%s noise: %w", c.Type, err)
	}
	if c.MinValue > c.MaxValue {
		return fmt.Errorf("%s: min_value %v > max_value %v", c.Type, c.MinValue, c.MaxValue)
	}
	if len(c.ValidBiomes) == 0 {
		return fmt.Errorf("%s: valid_biomes is empty", c.Type)
	}
	return nil
}

// Placement is one decoration at an expanded-grid cell.
type Placement struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Type     Type      `json:"type"`
	Variant  string    `json:"variant"`
	Resource *Resource `json:"resource,omitempty"`
	Noise    float64   `json:"noise"`
}

func layer(freq float64, octaves int) noise.LayerConfig {
	return noise.LayerConfig{Frequency: freq, Octaves: octaves, Lacunarity: 2, Persistence: 0.5}
}

// DefaultConfigs is the decoration set used when a config has no decorations section.
func DefaultConfigs() []Config {
	return []Config{
		{Type: OreDeposit, Noise: layer(0.05, 3), MinValue: 0.2, MaxValue: 0.28,
			ValidBiomes: []biome.Type{biome.Mountain}},
		{Type: Tree, Noise: layer(0.08, 2), MinValue: 0.58, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.ForestDeciduous, biome.ForestConiferous, biome.Jungle}},
		{Type: Cactus, Noise: layer(0.15, 1), MinValue: 0.72, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.Desert}},
		{Type: Reed, Noise: layer(0.1, 2), MinValue: 0.6, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.Swamp, biome.Beach}},
		{Type: Bush, Noise: layer(0.12, 2), MinValue: 0.66, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.Plains, biome.ForestDeciduous, biome.Jungle}},
		{Type: Rock, Noise: layer(0.2, 1), MinValue: 0.76, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.Mountain, biome.Tundra, biome.Beach, biome.Plains}},
		{Type: Flower, Noise: layer(0.3, 1), MinValue: 0.8, MaxValue: 1,
			ValidBiomes: []biome.Type{biome.Plains, biome.ForestDeciduous}},
	}
}
