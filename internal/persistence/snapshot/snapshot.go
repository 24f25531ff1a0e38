package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`
	Digest  string `json:"digest"`
}

// SnapshotV1 is a complete generation run: the resolved config plus every output
// grid, enough to verify a replay without regenerating.
type SnapshotV1 struct {
	Header Header `json:"header"`

	// Config is the resolved worldgen config as YAML.
	Config        []byte `json:"config"`
	CatalogDigest string `json:"catalog_digest"`
	Strategy      string `json:"strategy"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Factor int `json:"factor"`

	Biomes     []uint8       `json:"biomes"`
	Chunks     []ChunkV1     `json:"chunks"`
	Placements []PlacementV1 `json:"placements"`
}

type ChunkV1 struct {
	CX    int      `json:"cx"`
	CY    int      `json:"cy"`
	Tiles []uint16 `json:"tiles"`
}

type PlacementV1 struct {
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Type           string  `json:"type"`
	Variant        string  `json:"variant"`
	ResourceKind   string  `json:"resource_kind,omitempty"`
	ResourceName   string  `json:"resource_name,omitempty"`
	ResourceAmount int     `json:"resource_amount,omitempty"`
	Noise          float64 `json:"noise"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; gob carries it too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading JSON line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
