package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world"
)

func TestApplyOverrides(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.SeedText = "from-file"
	if err := applyOverrides(&cfg, "42", "constraint", "perlin"); err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if cfg.Seed != 42 || cfg.SeedText != "" || cfg.TileStrategy != "constraint" || cfg.NoiseProvider != "perlin" {
		t.Fatalf("cfg=%+v", cfg)
	}

	cfg = tuning.Defaults()
	if err := applyOverrides(&cfg, "misty valley", "", ""); err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if cfg.Seed != tuning.SeedFromText("misty valley") {
		t.Fatalf("text seed not hashed: %d", cfg.Seed)
	}

	cfg = tuning.Defaults()
	if err := applyOverrides(&cfg, "", "sideways", ""); err == nil {
		t.Fatalf("expected unknown strategy error")
	}
}

func TestWriteMetrics(t *testing.T) {
	cfg := tuning.Defaults()
	cfg.Width, cfg.Height, cfg.Seed = 16, 16, 3
	w, err := world.Generate(context.Background(), cfg, world.Options{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec := httptest.NewRecorder()
	writeMetrics(rec, w, "r1", nil)
	body := rec.Body.String()
	if !strings.Contains(body, `wayblazer_biome_cells{run="r1",biome="OCEAN"}`) || !strings.Contains(body, "wayblazer_generate_seconds") {
		t.Fatalf("metrics=%s", body)
	}
}
