package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wayblazer.ai/internal/persistence/indexdb"
	persistlog "wayblazer.ai/internal/persistence/log"
	"wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/catalogs"
	"wayblazer.ai/internal/sim/world"
	"wayblazer.ai/internal/sim/world/terrain/decor"
)

func main() {
	var (
		snapPath    = flag.String("snapshot", "", "path to .snap.zst")
		catalogPath = flag.String("catalog", "", "decoration catalog yaml (empty for built-in)")
		placements  = flag.String("placements", "", "placements-*.jsonl.zst to check against the replay (optional)")
		dbPath      = flag.String("db", "", "run index sqlite to check the catalog digest against (optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d run=%s seed=%d size=%dx%d factor=%d strategy=%s chunks=%d placements=%d\n",
		snap.Header.Version, snap.Header.RunID, snap.Header.Seed, snap.Width, snap.Height, snap.Factor,
		snap.Strategy, len(snap.Chunks), len(snap.Placements))

	cats, err := catalogs.Load(*catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalog:", err)
		os.Exit(1)
	}
	if snap.CatalogDigest != "" && snap.CatalogDigest != cats.Digest {
		fmt.Fprintln(os.Stderr, "warning: catalog digest differs from the one recorded in the snapshot")
	}
	if *dbPath != "" {
		if err := checkIndexedCatalog(context.Background(), *dbPath, cats.Digest); err != nil {
			fmt.Fprintln(os.Stderr, "warning:", err)
		}
	}

	replayed, err := verify(context.Background(), snap, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	if *placements != "" {
		logged, err := persistlog.ReadPlacements(*placements)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read placements:", err)
			os.Exit(1)
		}
		if err := comparePlacements(logged, replayed.Decorations); err != nil {
			fmt.Fprintln(os.Stderr, "placements:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: digest=%s\n", snap.Header.Digest)
}

// verify checks the stored outputs against the header digest, then regenerates from
// the stored config and seed and checks the result against the same digest.
func verify(ctx context.Context, snap snapshot.SnapshotV1, cat decor.Catalog) (*world.World, error) {
	stored, err := world.FromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if got := stored.Digest(); got != snap.Header.Digest {
		return nil, fmt.Errorf("snapshot content digest mismatch: got=%s want=%s", got, snap.Header.Digest)
	}

	cfg, err := world.SnapshotConfig(snap)
	if err != nil {
		return nil, err
	}
	replayed, err := world.Generate(ctx, cfg, world.Options{Catalog: cat})
	if err != nil {
		return nil, err
	}
	if got := replayed.Digest(); got != snap.Header.Digest {
		return nil, fmt.Errorf("digest mismatch: got=%s want=%s (%s)", got, snap.Header.Digest, firstDifference(stored, replayed))
	}
	return replayed, nil
}

// checkIndexedCatalog compares digest with the decoration catalog last recorded in
// the run index.
func checkIndexedCatalog(ctx context.Context, dbPath, digest string) error {
	idx, err := indexdb.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	defer idx.Close()
	indexed, err := idx.CatalogDigest(ctx, "decorations")
	if err != nil {
		return fmt.Errorf("run index catalog: %w", err)
	}
	if indexed != "" && indexed != digest {
		return fmt.Errorf("catalog digest %s differs from the indexed %s", digest, indexed)
	}
	return nil
}

func firstDifference(a, b *world.World) string {
	ab, bb := a.Biomes.Cells(), b.Biomes.Cells()
	if len(ab) != len(bb) {
		return fmt.Sprintf("biome grid size %d vs %d", len(ab), len(bb))
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return fmt.Sprintf("first biome difference at (%d,%d): %s vs %s", i%a.Biomes.Width(), i/a.Biomes.Width(), ab[i], bb[i])
		}
	}
	if len(a.Tiles.IDs) != len(b.Tiles.IDs) {
		return fmt.Sprintf("tile grid size %d vs %d", len(a.Tiles.IDs), len(b.Tiles.IDs))
	}
	for i := range a.Tiles.IDs {
		if a.Tiles.IDs[i] != b.Tiles.IDs[i] {
			return fmt.Sprintf("first tile difference at (%d,%d)", i%a.Tiles.W, i/a.Tiles.W)
		}
	}
	if err := comparePlacements(a.Decorations, b.Decorations); err != nil {
		return err.Error()
	}
	return "no content difference"
}

func comparePlacements(want, got []decor.Placement) error {
	if len(want) != len(got) {
		return fmt.Errorf("placement count %d vs %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.X != g.X || w.Y != g.Y || w.Type != g.Type || w.Variant != g.Variant || w.Noise != g.Noise {
			return fmt.Errorf("placement %d differs: %+v vs %+v", i, w, g)
		}
	}
	return nil
}
