package world

import (
	"fmt"

	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// TileSink receives final tile assignments. Implementations must accept any order.
type TileSink interface {
	PutTile(x, y int, id tiles.ID) error
}

type DecorationSink interface {
	PutDecoration(p decor.Placement) error
}

type TileSinkFunc func(x, y int, id tiles.ID) error

func (f TileSinkFunc) PutTile(x, y int, id tiles.ID) error { return f(x, y, id) }

type DecorationSinkFunc func(p decor.Placement) error

func (f DecorationSinkFunc) PutDecoration(p decor.Placement) error { return f(p) }

// Emit pushes tiles row-major, then placements in raster order. Either sink may be
// nil. The first sink error stops emission.
func (w *World) Emit(ts TileSink, ds DecorationSink) error {
	if ts != nil && w.Tiles != nil {
		for y := 0; y < w.Tiles.H; y++ {
			for x := 0; x < w.Tiles.W; x++ {
				if err := ts.PutTile(x, y, w.Tiles.At(x, y)); err != nil {
					return fmt.Errorf("tile sink at (%d,%d): %w", x, y, err)
				}
			}
		}
	}
	if ds != nil {
		for _, p := range w.Decorations {
			if err := ds.PutDecoration(p); err != nil {
				return fmt.Errorf("decoration sink at (%d,%d): %w", p.X, p.Y, err)
			}
		}
	}
	return nil
}
