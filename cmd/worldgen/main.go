package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"wayblazer.ai/internal/persistence/indexdb"
	persistlog "wayblazer.ai/internal/persistence/log"
	"wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/catalogs"
	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world"
)

func main() {
	var (
		configPath  = flag.String("config", "", "worldgen config (.yaml/.toml/.json path or go-getter URL; empty for defaults)")
		catalogPath = flag.String("catalog", "", "decoration catalog yaml (empty for built-in)")
		seedFlag    = flag.String("seed", "", "override seed: integer, -1 for random, or any text")
		strategy    = flag.String("strategy", "", "override tile strategy (weighted|constraint)")
		provider    = flag.String("provider", "", "override noise provider (opensimplex|perlin)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		disableDB   = flag.Bool("disable_db", false, "disable the run index")
		noSnapshot  = flag.Bool("no_snapshot", false, "skip writing the run snapshot")
		logPlaces   = flag.Bool("log_placements", true, "write placements as jsonl.zst")
		preview     = flag.Bool("preview", false, "print the biome grid as ascii")
		summary     = flag.Bool("summary", true, "print biome and decoration histograms")
		serveAddr   = flag.String("serve", "", "serve the observer stream on this address after generating (empty to exit)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[worldgen] ", log.LstdFlags|log.Lmicroseconds)

	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := tuning.LoadSource(ctx, strings.TrimSpace(*configPath), filepath.Join(*dataDir, "cache"))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := applyOverrides(&cfg, *seedFlag, *strategy, *provider); err != nil {
		logger.Fatalf("flags: %v", err)
	}

	cats, err := catalogs.Load(*catalogPath)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	idx, err := openRunIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open run index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		recordCatalog(idx, cats)
	}

	w, err := world.Generate(ctx, cfg, world.Options{Catalog: cats, Logger: logger})
	if err != nil {
		if errors.Is(err, tuning.ErrInvalid) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Fatalf("generate: %v", err)
	}

	runID := indexdb.NewRunID()
	runDir := filepath.Join(*dataDir, "runs", runID)
	tw, th := w.Config.ExpandedSize()
	logger.Printf("run=%s seed=%d tiles=%dx%d digest=%s", runID, w.Seed, tw, th, w.Digest())

	if *logPlaces {
		pl := persistlog.NewPlacementLogger(runDir, runID)
		if err := w.Emit(nil, pl); err != nil {
			logger.Printf("placement log: %v", err)
		}
		if err := pl.Close(); err != nil {
			logger.Printf("placement log close: %v", err)
		} else if pl.Count() > 0 {
			logger.Printf("placements -> %s", pl.Path())
		}
	}

	if !*noSnapshot {
		snap, err := w.Snapshot(runID, cats.Digest)
		if err != nil {
			logger.Fatalf("snapshot: %v", err)
		}
		path := filepath.Join(runDir, "world.snap.zst")
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("snapshot -> %s", path)
			if idx != nil {
				idx.RecordRun(indexdb.RunFromSnapshot(path, snap))
			}
		}
	}

	if *preview {
		if err := w.Preview(os.Stdout); err != nil {
			logger.Printf("preview: %v", err)
		}
	}
	if *summary {
		w.Stats.WriteSummary(os.Stdout)
	}

	if strings.TrimSpace(*serveAddr) != "" {
		serve(ctx, *serveAddr, w, runID, idx, logger)
	}
}

// applyOverrides layers command-line values over the loaded config.
func applyOverrides(cfg *tuning.WorldGen, seed, strategy, provider string) error {
	if s := strings.TrimSpace(seed); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			cfg.Seed = n
			cfg.SeedText = ""
		} else {
			cfg.SeedText = s
		}
	}
	if s := strings.TrimSpace(strategy); s != "" {
		cfg.TileStrategy = s
	}
	if s := strings.TrimSpace(provider); s != "" {
		cfg.NoiseProvider = s
	}
	cfg.Normalize()
	return cfg.Validate()
}

func recordCatalog(idx *indexdb.SQLiteIndex, cats *catalogs.Decorations) {
	body, err := json.Marshal(cats.ByType)
	if err != nil {
		return
	}
	idx.RecordCatalog("decorations", cats.Digest, body)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
