// Package world runs a full terrain generation: heightmap, biomes, blended tiles and
// decorations, all reproducible from (config, seed).
package world

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"wayblazer.ai/internal/sim/catalogs"
	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world/logic/rng"
	"wayblazer.ai/internal/sim/world/logic/rows"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/blend"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/heightmap"
	"wayblazer.ai/internal/sim/world/terrain/noise"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// Options supplies the pluggable collaborators. Every field is optional.
type Options struct {
	// Sampler defaults to the provider named in the config.
	Sampler noise.Sampler
	// Selector overrides the config's tile strategy.
	Selector tiles.Selector
	// Solver backs the constraint strategy. Without one it falls back to weighted.
	Solver  tiles.Solver
	Catalog decor.Catalog
	Logger  *log.Logger
}

// Generate validates cfg and runs every stage in order. ctx is checked between
// stages only; a cancelled run returns ctx.Err() and no partial world.
func Generate(ctx context.Context, cfg tuning.WorldGen, opts Options) (*World, error) {
	start := time.Now()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = rows.DefaultWorkers()
	}

	sampler := opts.Sampler
	if sampler == nil {
		s, err := noise.New(cfg.NoiseProvider, workers)
		if err != nil {
			return nil, err
		}
		sampler = s
	}
	selector := opts.Selector
	if selector == nil {
		s, err := tiles.New(cfg.TileStrategy, opts.Solver, logger)
		if err != nil {
			return nil, err
		}
		selector = s
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = catalogs.Default()
	}

	seed := cfg.Seed
	if seed == tuning.RandomSeed {
		seed = rng.FreshSeed()
		logger.Printf("seed: picked %d", seed)
	}
	cfg.Seed = seed
	stream := rng.New(seed)

	w := &World{Seed: seed, Config: cfg, Strategy: selector.Name()}

	height, err := heightmap.Build(seed, heightmap.Params{
		Width:                 cfg.Width,
		Height:                cfg.Height,
		World:                 cfg.WorldNoise,
		OceanContinentEnabled: cfg.OceanContinentEnabled,
		OceanThreshold:        cfg.OceanThreshold,
		OceanNoise:            cfg.OceanContinentNoise,
		EdgesAreOcean:         cfg.EdgesAreOcean,
		EdgeFalloffMin:        cfg.EdgeFalloffMin,
		EdgeFalloffMax:        cfg.EdgeFalloffMax,
		EdgeNoise:             cfg.EdgeNoise,
		Workers:               workers,
	}, sampler, stream)
	if err != nil {
		return nil, fmt.Errorf("heightmap: %w", err)
	}
	w.Heightmap = height
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	temp, err := sampler.Sample(cfg.Width, cfg.Height, seed+noise.OffsetTemperature, cfg.TemperatureNoise)
	if err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	w.Temperature = temp

	grid, err := biome.Classify(height, temp, biome.Params{
		Ranges:               cfg.BiomeRanges,
		TemperatureInfluence: cfg.TemperatureInfluence,
		Workers:              workers,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	w.Biomes = grid
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blender, err := blend.New(grid, cfg.TileExpansionFactor, cfg.BiomeSampleRadius)
	if err != nil {
		return nil, fmt.Errorf("blend: %w", err)
	}
	w.Probs = blender.All(workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tg, err := selector.Select(ctx, tiles.Input{Probs: w.Probs, Seed: seed, Stream: stream})
	if err != nil {
		return nil, fmt.Errorf("tiles: %w", err)
	}
	w.Tiles = tg
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	placements, err := decor.Plan(ctx, seed, w.Probs, decor.Params{
		Configs: cfg.Decorations,
		Catalog: catalog,
		Logger:  logger,
		Workers: workers,
	}, sampler, stream)
	if err != nil {
		return nil, fmt.Errorf("decor: %w", err)
	}
	w.Decorations = placements

	w.Stats = computeStats(w)
	w.Stats.Draws = stream.Draws()
	w.Stats.Elapsed = time.Since(start)
	logger.Printf("generated seed=%d size=%dx%d tiles=%dx%d placements=%d in %s",
		seed, cfg.Width, cfg.Height, tg.W, tg.H, len(placements), w.Stats.Elapsed)
	return w, nil
}
