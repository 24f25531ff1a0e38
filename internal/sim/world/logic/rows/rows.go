// Package rows runs per-row grid work, optionally in parallel.
package rows

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a caller passes workers == 0.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }

// Each calls fn for every y in [0,h). With workers > 1 rows run concurrently, so fn
// must only write state owned by row y.
func Each(h, workers int, fn func(y int)) {
	if workers == 0 {
		workers = DefaultWorkers()
	}
	if workers <= 1 || h <= 1 {
		for y := 0; y < h; y++ {
			fn(y)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for y := 0; y < h; y++ {
		g.Go(func() error {
			fn(y)
			return nil
		})
	}
	_ = g.Wait()
}
