package world

import (
	"fmt"

	"gopkg.in/yaml.v3"

	snapv1 "wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/store"
)

// Snapshot captures the resolved config and every output grid.
func (w *World) Snapshot(runID, catalogDigest string) (snapv1.SnapshotV1, error) {
	if w.Biomes == nil || w.Tiles == nil {
		return snapv1.SnapshotV1{}, fmt.Errorf("snapshot: incomplete world")
	}
	cfg, err := yaml.Marshal(w.Config)
	if err != nil {
		return snapv1.SnapshotV1{}, fmt.Errorf("snapshot: config: %w", err)
	}

	cells := w.Biomes.Cells()
	biomes := make([]uint8, len(cells))
	for i, c := range cells {
		biomes[i] = uint8(c)
	}

	placements := make([]snapv1.PlacementV1, 0, len(w.Decorations))
	for _, p := range w.Decorations {
		pv := snapv1.PlacementV1{
			X:       p.X,
			Y:       p.Y,
			Type:    p.Type.String(),
			Variant: p.Variant,
			Noise:   p.Noise,
		}
		if p.Resource != nil {
			pv.ResourceKind = p.Resource.Kind.String()
			pv.ResourceName = p.Resource.Name
			pv.ResourceAmount = p.Resource.Amount
		}
		placements = append(placements, pv)
	}

	return snapv1.SnapshotV1{
		Header: snapv1.Header{
			Version: snapv1.Version,
			RunID:   runID,
			Seed:    w.Seed,
			Digest:  w.Digest(),
		},
		Config:        cfg,
		CatalogDigest: catalogDigest,
		Strategy:      w.Strategy,
		Width:         w.Biomes.Width(),
		Height:        w.Biomes.Height(),
		Factor:        w.Config.TileExpansionFactor,
		Biomes:        biomes,
		Chunks:        store.ExportChunks(store.FromGrid(w.Tiles)),
		Placements:    placements,
	}, nil
}

// SnapshotConfig decodes the config a snapshot was generated with, seed included.
func SnapshotConfig(s snapv1.SnapshotV1) (tuning.WorldGen, error) {
	var cfg tuning.WorldGen
	if err := yaml.Unmarshal(s.Config, &cfg); err != nil {
		return cfg, fmt.Errorf("snapshot config: %w", err)
	}
	cfg.SeedText = ""
	cfg.Seed = s.Header.Seed
	return cfg, nil
}

// FromSnapshot rebuilds the stored outputs without regenerating.
func FromSnapshot(s snapv1.SnapshotV1) (*World, error) {
	cfg, err := SnapshotConfig(s)
	if err != nil {
		return nil, err
	}
	if s.Factor < 1 || s.Factor != cfg.TileExpansionFactor {
		return nil, fmt.Errorf("snapshot: factor %d does not match config %d", s.Factor, cfg.TileExpansionFactor)
	}

	cells := make([]biome.Type, len(s.Biomes))
	for i, b := range s.Biomes {
		cells[i] = biome.Type(b)
	}
	grid, err := biome.FromCells(s.Width, s.Height, cells)
	if err != nil {
		return nil, fmt.Errorf("snapshot biomes: %w", err)
	}

	cs, err := store.ImportChunks(s.Width*s.Factor, s.Height*s.Factor, s.Chunks)
	if err != nil {
		return nil, err
	}
	tg, err := cs.Grid()
	if err != nil {
		return nil, err
	}

	placements := make([]decor.Placement, 0, len(s.Placements))
	for i, pv := range s.Placements {
		t, err := decor.ParseType(pv.Type)
		if err != nil {
			return nil, fmt.Errorf("snapshot placement %d: %w", i, err)
		}
		p := decor.Placement{X: pv.X, Y: pv.Y, Type: t, Variant: pv.Variant, Noise: pv.Noise}
		if pv.ResourceKind != "" {
			r := &decor.Resource{Name: pv.ResourceName, Amount: pv.ResourceAmount}
			if err := r.Kind.UnmarshalText([]byte(pv.ResourceKind)); err != nil {
				return nil, fmt.Errorf("snapshot placement %d: %w", i, err)
			}
			p.Resource = r
		}
		placements = append(placements, p)
	}

	w := &World{
		Seed:        s.Header.Seed,
		Config:      cfg,
		Strategy:    s.Strategy,
		Biomes:      grid,
		Tiles:       tg,
		Decorations: placements,
	}
	w.Stats = computeStats(w)
	return w, nil
}
