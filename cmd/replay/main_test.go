package main

import (
	"context"
	"path/filepath"
	"testing"

	"wayblazer.ai/internal/persistence/indexdb"
	"wayblazer.ai/internal/sim/catalogs"
	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world"
)

func TestVerify(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.Width, cfg.Height, cfg.Seed = 24, 16, 77
	cats := catalogs.Default()
	w, err := world.Generate(context.Background(), cfg, world.Options{Catalog: cats})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	snap, err := w.Snapshot("r", cats.Digest)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if _, err := verify(context.Background(), snap, cats); err != nil {
		t.Fatalf("verify: %v", err)
	}

	tampered := snap
	tampered.Chunks = append(tampered.Chunks[:0:0], snap.Chunks...)
	tampered.Chunks[0].Tiles = append([]uint16(nil), snap.Chunks[0].Tiles...)
	tampered.Chunks[0].Tiles[0]++
	if _, err := verify(context.Background(), tampered, cats); err == nil {
		t.Fatalf("expected content digest mismatch")
	}

	reseeded := snap
	reseeded.Header.Seed = 78
	if _, err := verify(context.Background(), reseeded, cats); err == nil {
		t.Fatalf("expected digest mismatch for another seed")
	}
}

func TestCheckIndexedCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.sqlite")
	idx, err := indexdb.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	idx.RecordCatalog("decorations", "abc", []byte(`{}`))
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := checkIndexedCatalog(context.Background(), dbPath, "abc"); err != nil {
		t.Fatalf("matching digest: %v", err)
	}
	if err := checkIndexedCatalog(context.Background(), dbPath, "other"); err == nil {
		t.Fatalf("expected digest mismatch")
	}
}
