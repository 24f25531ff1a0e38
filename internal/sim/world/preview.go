package world

import (
	"bufio"
	"fmt"
	"io"

	"wayblazer.ai/internal/sim/world/terrain/biome"
)

// Preview writes the logical biome grid, one glyph per cell, followed by a legend.
func (w *World) Preview(out io.Writer) error {
	if w.Biomes == nil {
		return fmt.Errorf("preview: world has no biome grid")
	}
	bw := bufio.NewWriter(out)
	line := make([]byte, w.Biomes.Width()+1)
	line[len(line)-1] = '\n'
	for y := 0; y < w.Biomes.Height(); y++ {
		for x := 0; x < w.Biomes.Width(); x++ {
			line[x] = w.Biomes.At(x, y).Glyph()
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	for _, b := range biome.All() {
		fmt.Fprintf(bw, "%c %s\n", b.Glyph(), b)
	}
	return bw.Flush()
}
