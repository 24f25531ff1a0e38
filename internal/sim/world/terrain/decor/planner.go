// Package decor plans decoration and resource placements over the expanded tile grid.
package decor

import (
	"context"
	"fmt"
	"log"

	"wayblazer.ai/internal/sim/world/logic/rng"
	"wayblazer.ai/internal/sim/world/logic/rows"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/blend"
	"wayblazer.ai/internal/sim/world/terrain/noise"
)

type Params struct {
	Configs []Config
	Catalog Catalog
	Logger  *log.Logger
	Workers int
}

type fieldKey struct {
	t   Type
	cfg noise.LayerConfig
}

type rule struct {
	cfg      Config
	field    *noise.Field
	biomes   [biome.Count]bool
	variants []Variant
}

// Plan evaluates the configs in order at every expanded cell and emits at most one
// placement per cell, first match wins, in row-major order. The stream is drawn from
// only for types with more than one variant.
func Plan(ctx context.Context, seed int64, probs *blend.Map, p Params, sampler noise.Sampler, stream *rng.Stream) ([]Placement, error) {
	if probs == nil {
		return nil, fmt.Errorf("decor: missing probabilities")
	}
	rules, err := prepare(seed, probs.W, probs.H, p, sampler)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Eligibility is pure; resolve the winning rule per cell in parallel.
	match := make([]int16, probs.W*probs.H)
	rows.Each(probs.H, p.Workers, func(y int) {
		for x := 0; x < probs.W; x++ {
			i := x + y*probs.W
			match[i] = firstMatch(rules, probs.D[i].Dominant(), i)
		}
	})

	var out []Placement
	for i, m := range match {
		if m < 0 {
			continue
		}
		r := &rules[m]
		v := r.variants[0]
		if len(r.variants) > 1 {
			v = r.variants[stream.IntN(len(r.variants))]
		}
		out = append(out, Placement{
			X:        i % probs.W,
			Y:        i / probs.W,
			Type:     r.cfg.Type,
			Variant:  v.Name,
			Resource: v.Resource,
			Noise:    r.field.V[i],
		})
	}
	return out, nil
}

func firstMatch(rules []rule, dominant biome.Type, i int) int16 {
	for k := range rules {
		r := &rules[k]
		v := r.field.V[i]
		if v >= r.cfg.MinValue && v <= r.cfg.MaxValue && r.biomes[dominant] {
			return int16(k)
		}
	}
	return -1
}

func prepare(seed int64, w, h int, p Params, sampler noise.Sampler) ([]rule, error) {
	fields := map[fieldKey]*noise.Field{}
	logged := map[Type]bool{}
	var rules []rule
	for i, c := range p.Configs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("decor: config %d: %w", i, err)
		}
		var variants []Variant
		var ok bool
		if p.Catalog != nil {
			variants, ok = p.Catalog.Variants(c.Type)
		}
		if !ok {
			if !logged[c.Type] && p.Logger != nil {
				p.Logger.Printf("decor: skip %s: no catalog entry", c.Type)
			}
			logged[c.Type] = true
			continue
		}

		key := fieldKey{t: c.Type, cfg: c.Noise}
		f := fields[key]
		if f == nil {
			var err error
			if f, err = sampler.Sample(w, h, c.Type.NoiseSeed(seed), c.Noise); err != nil {
				return nil, fmt.Errorf("decor: %s noise: %w", c.Type, err)
			}
			fields[key] = f
		}
		r := rule{cfg: c, field: f, variants: variants}
		for _, b := range c.ValidBiomes {
			if b.Valid() {
				r.biomes[b] = true
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}
