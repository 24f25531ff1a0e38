package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"wayblazer.ai/internal/persistence/indexdb"
	"wayblazer.ai/internal/sim/world"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/transport/observer"
)

// serve exposes the finished world to renderers until ctx is cancelled.
func serve(ctx context.Context, addr string, w *world.World, runID string, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	obsSrv := observer.NewServer(w, runID, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, w, runID, idx)
	})
	mux.HandleFunc("/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/observer/ws", obsSrv.WSHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("observer listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// writeMetrics emits a minimal Prometheus exposition of the run.
func writeMetrics(rw http.ResponseWriter, w *world.World, runID string, idx *indexdb.SQLiteIndex) {
	fmt.Fprintf(rw, "# HELP wayblazer_biome_cells Logical cells per biome.\n")
	fmt.Fprintf(rw, "# TYPE wayblazer_biome_cells gauge\n")
	for _, b := range biome.All() {
		fmt.Fprintf(rw, "wayblazer_biome_cells{run=%q,biome=%q} %d\n", runID, b.String(), w.Stats.Biomes[b])
	}

	fmt.Fprintf(rw, "# HELP wayblazer_placements Decoration placements per type.\n")
	fmt.Fprintf(rw, "# TYPE wayblazer_placements gauge\n")
	for t := decor.Type(0); int(t) < decor.TypeCount; t++ {
		fmt.Fprintf(rw, "wayblazer_placements{run=%q,type=%q} %d\n", runID, t.String(), w.Stats.Placements[t])
	}

	fmt.Fprintf(rw, "# HELP wayblazer_generate_seconds Wall time of the generation run.\n")
	fmt.Fprintf(rw, "# TYPE wayblazer_generate_seconds gauge\n")
	fmt.Fprintf(rw, "wayblazer_generate_seconds{run=%q} %.6f\n", runID, w.Stats.Elapsed.Seconds())

	if idx == nil {
		return
	}
	s := idx.Stats()
	fmt.Fprintf(rw, "# HELP wayblazer_index_queue_depth Current run index queue depth.\n")
	fmt.Fprintf(rw, "# TYPE wayblazer_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "wayblazer_index_queue_depth %d\n", s.QueueDepth)
	fmt.Fprintf(rw, "# HELP wayblazer_index_dropped_total Index rows dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE wayblazer_index_dropped_total counter\n")
	fmt.Fprintf(rw, "wayblazer_index_dropped_total{kind=%q} %d\n", "run", s.DropRunTotal)
	fmt.Fprintf(rw, "wayblazer_index_dropped_total{kind=%q} %d\n", "catalog", s.DropCatalogTotal)
}
