package biome

import (
	"fmt"
	"strings"
)

type Type uint8

const (
	Ocean Type = iota
	Beach
	Plains
	Desert
	Jungle
	ForestDeciduous
	ForestConiferous
	Tundra
	Mountain
	Swamp
)

// Count is the number of biome types.
const Count = int(Swamp) + 1

var names = [Count]string{
	"OCEAN",
	"BEACH",
	"PLAINS",
	"DESERT",
	"JUNGLE",
	"FOREST_DECIDUOUS",
	"FOREST_CONIFEROUS",
	"TUNDRA",
	"MOUNTAIN",
	"SWAMP",
}

// Map colours, used by previews and the observer palette.
var colors = [Count]string{
	"#4fa4b8",
	"#ffc2a1",
	"#ffee83",
	"#f0b541",
	"#63ab3f",
	"#3b7d4f",
	"#2f5753",
	"#f5ffe8",
	"#a3a7c2",
	"#c8d45d",
}

var glyphs = [Count]byte{'~', '.', '"', ':', '&', 'f', 'T', '*', '^', '%'}

func All() []Type {
	out := make([]Type, Count)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

func (t Type) Valid() bool { return int(t) < Count }

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("BIOME(%d)", uint8(t))
	}
	return names[t]
}

func (t Type) Color() string {
	if !t.Valid() {
		return "#000000"
	}
	return colors[t]
}

func (t Type) Glyph() byte {
	if !t.Valid() {
		return '?'
	}
	return glyphs[t]
}

func Parse(s string) (Type, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown biome %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid biome %d", uint8(t))
	}
	return []byte(names[t]), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Range is a rectangle in (height × equator value) space. Both intervals are closed.
type Range struct {
	Biome      Type    `yaml:"biome"`
	MinHeight  float64 `yaml:"min_height"`
	MaxHeight  float64 `yaml:"max_height"`
	MinEquator float64 `yaml:"min_equator"`
	MaxEquator float64 `yaml:"max_equator"`
}

func (r Range) Contains(height, equator float64) bool {
	return height >= r.MinHeight && height <= r.MaxHeight &&
		equator >= r.MinEquator && equator <= r.MaxEquator
}

// DefaultRanges is the table used when a config has no biome_ranges section.
// Overlaps are intentional; the classifier picks among them with temperature noise.
func DefaultRanges() []Range {
	return []Range{
		{Biome: Ocean, MinHeight: 0, MaxHeight: 0.35, MinEquator: 0, MaxEquator: 1},
		{Biome: Beach, MinHeight: 0.35, MaxHeight: 0.4, MinEquator: 0, MaxEquator: 0.9},
		{Biome: Desert, MinHeight: 0.4, MaxHeight: 0.7, MinEquator: 0, MaxEquator: 0.3},
		{Biome: Jungle, MinHeight: 0.45, MaxHeight: 0.75, MinEquator: 0, MaxEquator: 0.25},
		{Biome: Swamp, MinHeight: 0.4, MaxHeight: 0.48, MinEquator: 0.2, MaxEquator: 0.5},
		{Biome: Plains, MinHeight: 0.4, MaxHeight: 0.7, MinEquator: 0.2, MaxEquator: 0.7},
		{Biome: ForestDeciduous, MinHeight: 0.45, MaxHeight: 0.75, MinEquator: 0.35, MaxEquator: 0.65},
		{Biome: ForestConiferous, MinHeight: 0.4, MaxHeight: 0.75, MinEquator: 0.6, MaxEquator: 0.85},
		{Biome: Tundra, MinHeight: 0.4, MaxHeight: 0.75, MinEquator: 0.8, MaxEquator: 1},
		{Biome: Mountain, MinHeight: 0.75, MaxHeight: 1, MinEquator: 0, MaxEquator: 1},
	}
}
