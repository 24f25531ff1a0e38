package store

import (
	"fmt"

	snapv1 "wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// ExportChunks converts the store into snapshot chunks in key order.
func ExportChunks(s *ChunkStore) []snapv1.ChunkV1 {
	keys := s.Keys()
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := s.Chunks[k]
		ids := make([]uint16, len(ch.Tiles))
		for i, id := range ch.Tiles {
			ids[i] = uint16(id)
		}
		out = append(out, snapv1.ChunkV1{
			CX:    k.CX,
			CY:    k.CY,
			Tiles: ids,
		})
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks.
func ImportChunks(w, h int, chunks []snapv1.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(w, h)
	for _, ch := range chunks {
		if len(ch.Tiles) != ChunkSize*ChunkSize {
			return nil, fmt.Errorf("snapshot chunk tiles length mismatch: got %d want %d", len(ch.Tiles), ChunkSize*ChunkSize)
		}
		if ch.CX < 0 || ch.CY < 0 || ch.CX*ChunkSize >= w || ch.CY*ChunkSize >= h {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) outside %dx%d world", ch.CX, ch.CY, w, h)
		}
		k := ChunkKey{CX: ch.CX, CY: ch.CY}
		if _, dup := store.Chunks[k]; dup {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) duplicated", ch.CX, ch.CY)
		}
		c := newChunk(ch.CX, ch.CY)
		for i, v := range ch.Tiles {
			c.Tiles[i] = tiles.ID(v)
		}
		_ = c.Digest()
		store.Chunks[k] = c
	}
	return store, nil
}
