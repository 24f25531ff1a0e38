package store

import (
	"crypto/sha256"
	"encoding/binary"

	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// ChunkSize is the edge length of a square chunk, in tiles.
const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY int
	Tiles  []tiles.ID // len = ChunkSize*ChunkSize

	dirty bool
	hash  [32]byte
}

func newChunk(cx, cy int) *Chunk {
	return &Chunk{CX: cx, CY: cy, Tiles: make([]tiles.ID, ChunkSize*ChunkSize)}
}

func (c *Chunk) index(x, y int) int {
	return x + y*ChunkSize
}

func (c *Chunk) Get(x, y int) tiles.ID {
	return c.Tiles[c.index(x, y)]
}

func (c *Chunk) Set(x, y int, id tiles.ID) {
	i := c.index(x, y)
	if c.Tiles[i] == id {
		return
	}
	c.Tiles[i] = id
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Tiles {
			binary.LittleEndian.PutUint16(tmp[:], uint16(v))
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// ChunkStore is a chunked view of a W×H tile grid. Cells of edge chunks that fall
// outside the grid hold tiles.None.
type ChunkStore struct {
	W, H   int
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(w, h int) *ChunkStore {
	return &ChunkStore{
		W:      w,
		H:      h,
		Chunks: map[ChunkKey]*Chunk{},
	}
}
