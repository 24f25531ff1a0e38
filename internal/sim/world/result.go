package world

import (
	"crypto/sha256"
	"encoding/hex"

	"wayblazer.ai/internal/sim/tuning"
	"wayblazer.ai/internal/sim/world/io/digestcodec"
	"wayblazer.ai/internal/sim/world/terrain/biome"
	"wayblazer.ai/internal/sim/world/terrain/blend"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/noise"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// World is the output of one generation run. Worlds rebuilt from a snapshot carry
// no Heightmap, Temperature or Probs.
type World struct {
	Seed     int64
	Config   tuning.WorldGen
	Strategy string

	Heightmap   *noise.Field
	Temperature *noise.Field
	Biomes      *biome.Grid
	Probs       *blend.Map
	Tiles       *tiles.Grid
	Decorations []decor.Placement

	Stats Stats
}

// Digest identifies the generated content: seed, sizes, biomes, tiles and placements.
func (w *World) Digest() string {
	return DigestParts(w.Seed, w.Config.TileExpansionFactor, w.Biomes, w.Tiles, w.Decorations)
}

func DigestParts(seed int64, factor int, biomes *biome.Grid, tg *tiles.Grid, placements []decor.Placement) string {
	h := sha256.New()
	var tmp [8]byte

	digestcodec.WriteI64(h, &tmp, seed)
	digestcodec.WriteU64(h, &tmp, uint64(factor))
	if biomes != nil {
		digestcodec.WriteU64(h, &tmp, uint64(biomes.Width()))
		digestcodec.WriteU64(h, &tmp, uint64(biomes.Height()))
		cells := biomes.Cells()
		buf := make([]byte, len(cells))
		for i, c := range cells {
			buf[i] = byte(c)
		}
		h.Write(buf)
	}
	if tg != nil {
		digestcodec.WriteU64(h, &tmp, uint64(tg.W))
		digestcodec.WriteU64(h, &tmp, uint64(tg.H))
		buf := make([]byte, 2*len(tg.IDs))
		for i, id := range tg.IDs {
			buf[2*i] = byte(id)
			buf[2*i+1] = byte(id >> 8)
		}
		h.Write(buf)
	}
	digestcodec.WriteU64(h, &tmp, uint64(len(placements)))
	for _, p := range placements {
		digestcodec.WriteU64(h, &tmp, uint64(p.X))
		digestcodec.WriteU64(h, &tmp, uint64(p.Y))
		h.Write([]byte{byte(p.Type), digestcodec.BoolByte(p.Resource != nil)})
		digestcodec.WriteString(h, &tmp, p.Variant)
		if p.Resource != nil {
			h.Write([]byte{byte(p.Resource.Kind)})
			digestcodec.WriteString(h, &tmp, p.Resource.Name)
			digestcodec.WriteI64(h, &tmp, int64(p.Resource.Amount))
		}
		digestcodec.WriteF64(h, &tmp, p.Noise)
	}
	return hex.EncodeToString(h.Sum(nil))
}
