package main

import (
	"flag"
	"fmt"
	"os"

	"wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "runs":
			runsCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		case "bootstrap":
			bootstrapCmd(os.Args[2:])
			return
		case "metrics":
			metricsCmd(os.Args[2:])
			return
		}
	}
	runsCmd(os.Args[1:])
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "path to .snap.zst")
	preview := fs.Bool("preview", false, "print the biome grid as ascii")
	headerOnly := fs.Bool("header", false, "only decode the header line")
	_ = fs.Parse(args)

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	if *headerOnly {
		h, err := snapshot.ReadHeader(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		fmt.Printf("v%d run=%s seed=%d digest=%s\n", h.Version, h.RunID, h.Seed, h.Digest)
		return
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	w, err := world.FromSnapshot(snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("run=%s seed=%d size=%dx%d factor=%d strategy=%s digest=%s\n",
		snap.Header.RunID, w.Seed, snap.Width, snap.Height, snap.Factor, snap.Strategy, snap.Header.Digest)
	if *preview {
		_ = w.Preview(os.Stdout)
	}
	w.Stats.WriteSummary(os.Stdout)
}
