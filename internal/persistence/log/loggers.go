package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"wayblazer.ai/internal/sim/world/terrain/decor"
)

// JSONLZstdWriter appends JSON lines to one zstd-compressed file per run. The file is
// opened on first write.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	n   int
}

func NewJSONLZstdWriter(baseDir, prefix, runID string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		path: filepath.Join(baseDir, fmt.Sprintf("%s-%s.jsonl.zst", prefix, runID)),
	}
}

func (w *JSONLZstdWriter) Path() string { return w.path }

// Lines reports how many records were written.
func (w *JSONLZstdWriter) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.n++
	return nil
}

func (w *JSONLZstdWriter) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1, err2 error
	if w.w != nil {
		err1 = w.w.Flush()
	}
	if w.enc != nil {
		err2 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return errors.Join(err1, err2)
}

// PlacementLogger records every decoration placement of a run.
type PlacementLogger struct{ w *JSONLZstdWriter }

func NewPlacementLogger(runDir, runID string) *PlacementLogger {
	return &PlacementLogger{w: NewJSONLZstdWriter(filepath.Join(runDir, "placements"), "placements", runID)}
}

func (l *PlacementLogger) PutDecoration(p decor.Placement) error { return l.w.Write(p) }
func (l *PlacementLogger) Path() string                          { return l.w.Path() }
func (l *PlacementLogger) Count() int                            { return l.w.Lines() }
func (l *PlacementLogger) Close() error                          { return l.w.Close() }

// ReadPlacements decodes a placement log written by PlacementLogger.
func ReadPlacements(path string) ([]decor.Placement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []decor.Placement
	jd := json.NewDecoder(dec)
	for {
		var p decor.Placement
		if err := jd.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("%s: record %d: %w", filepath.Base(path), len(out), err)
		}
		out = append(out, p)
	}
}
