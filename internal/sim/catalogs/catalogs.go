package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"wayblazer.ai/internal/sim/world/terrain/decor"
)

//go:embed decorations.yaml
var builtinDecorations []byte

// Decorations is the registry of placeable decoration assets.
type Decorations struct {
	ByType decor.CatalogMap
	Types  []decor.Type
	Digest string
}

type decorationFile struct {
	Decorations []DecorationDef `yaml:"decorations"`
}

type DecorationDef struct {
	Type     decor.Type      `yaml:"type"`
	Variants []decor.Variant `yaml:"variants"`
}

func (d *Decorations) Variants(t decor.Type) ([]decor.Variant, bool) {
	return d.ByType.Variants(t)
}

// Default returns the built-in catalog.
func Default() *Decorations {
	d, err := parse(builtinDecorations, "decorations.yaml")
	if err != nil {
		panic(err)
	}
	return d
}

// Load reads a decoration catalog. An empty path selects the built-in one.
func Load(path string) (*Decorations, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw, path)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func parse(raw []byte, name string) (*Decorations, error) {
	var f decorationFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := &Decorations{ByType: decor.CatalogMap{}, Digest: sha256Hex(raw)}
	for _, def := range f.Decorations {
		if _, dup := out.ByType[def.Type]; dup {
			return nil, fmt.Errorf("%s: duplicate type %s", name, def.Type)
		}
		if len(def.Variants) == 0 {
			return nil, fmt.Errorf("%s: %s has no variants", name, def.Type)
		}
		for _, v := range def.Variants {
			if v.Name == "" {
				return nil, fmt.Errorf("%s: %s: variant with empty name", name, def.Type)
			}
		}
		out.ByType[def.Type] = def.Variants
		out.Types = append(out.Types, def.Type)
	}
	sort.Slice(out.Types, func(i, j int) bool { return out.Types[i] < out.Types[j] })
	return out, nil
}
