package store

import (
	"fmt"
	"sort"

	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

func (s *ChunkStore) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.W && y < s.H
}

// Keys returns the chunk keys in row-major chunk order.
func (s *ChunkStore) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

func (s *ChunkStore) Get(x, y int) tiles.ID {
	if !s.InBounds(x, y) {
		return tiles.None
	}
	ch := s.Chunks[ChunkKey{CX: mathx.FloorDiv(x, ChunkSize), CY: mathx.FloorDiv(y, ChunkSize)}]
	if ch == nil {
		return tiles.None
	}
	return ch.Get(mathx.Mod(x, ChunkSize), mathx.Mod(y, ChunkSize))
}

func (s *ChunkStore) Set(x, y int, id tiles.ID) {
	if !s.InBounds(x, y) {
		return
	}
	s.chunkAt(mathx.FloorDiv(x, ChunkSize), mathx.FloorDiv(y, ChunkSize)).
		Set(mathx.Mod(x, ChunkSize), mathx.Mod(y, ChunkSize), id)
}

func (s *ChunkStore) chunkAt(cx, cy int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := newChunk(cx, cy)
	s.Chunks[k] = ch
	return ch
}

// FromGrid splits a tile grid into chunks.
func FromGrid(g *tiles.Grid) *ChunkStore {
	s := NewChunkStore(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			s.Set(x, y, g.At(x, y))
		}
	}
	for _, ch := range s.Chunks {
		_ = ch.Digest()
	}
	return s
}

// Grid reassembles the full tile grid. Every in-bounds cell must be covered by a chunk.
func (s *ChunkStore) Grid() (*tiles.Grid, error) {
	g := tiles.NewGrid(s.W, s.H)
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			k := ChunkKey{CX: x / ChunkSize, CY: y / ChunkSize}
			if s.Chunks[k] == nil {
				return nil, fmt.Errorf("store: missing chunk (%d,%d)", k.CX, k.CY)
			}
			g.Set(x, y, s.Get(x, y))
		}
	}
	return g, nil
}
