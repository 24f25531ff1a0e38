package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"wayblazer.ai/internal/persistence/snapshot"
	"wayblazer.ai/internal/sim/world/terrain/biome"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders enqueues against Close closing ch.
	mu     sync.RWMutex
	closed bool

	dropRun     atomic.Uint64
	dropCatalog atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqCatalog
)

type req struct {
	kind reqKind

	run     RunRecord
	catalog catalogRow
}

// RunRecord is one generation run as listed by the index.
type RunRecord struct {
	ID           string
	Seed         int64
	Width        int
	Height       int
	Factor       int
	Strategy     string
	Digest       string
	SnapshotPath string
	CreatedAt    time.Time

	// Biomes counts logical cells per biome name; Decorations counts placements per type.
	Biomes      map[string]int
	Decorations map[string]int
}

type catalogRow struct {
	Name   string
	Digest string
	JSON   []byte
}

type Stats struct {
	QueueDepth       int
	QueueCapacity    int
	DropRunTotal     uint64
	DropCatalogTotal uint64
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// RunFromSnapshot summarizes a snapshot written at path.
func RunFromSnapshot(path string, snap snapshot.SnapshotV1) RunRecord {
	r := RunRecord{
		ID:           snap.Header.RunID,
		Seed:         snap.Header.Seed,
		Width:        snap.Width,
		Height:       snap.Height,
		Factor:       snap.Factor,
		Strategy:     snap.Strategy,
		Digest:       snap.Header.Digest,
		SnapshotPath: path,
		CreatedAt:    time.Now().UTC(),
		Biomes:       map[string]int{},
		Decorations:  map[string]int{},
	}
	for _, b := range snap.Biomes {
		r.Biomes[biome.Type(b).String()]++
	}
	for _, p := range snap.Placements {
		r.Decorations[p.Type]++
	}
	return r
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			factor INTEGER NOT NULL,
			strategy TEXT NOT NULL,
			digest TEXT NOT NULL,
			snapshot_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);`,
		`CREATE TABLE IF NOT EXISTS run_biomes (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			biome TEXT NOT NULL,
			cells INTEGER NOT NULL,
			PRIMARY KEY (run_id, biome)
		);`,
		`CREATE TABLE IF NOT EXISTS run_decorations (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			placements INTEGER NOT NULL,
			PRIMARY KEY (run_id, type)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued writes, then closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropRunTotal:     s.dropRun.Load(),
		DropCatalogTotal: s.dropCatalog.Load(),
	}
}

// RecordRun queues a run row. It never blocks; when the writer falls behind the
// row is dropped and counted.
func (s *SQLiteIndex) RecordRun(r RunRecord) {
	if s == nil {
		return
	}
	if !s.enqueue(req{kind: reqRun, run: r}) {
		s.dropRun.Add(1)
	}
}

// RecordCatalog queues a catalog row keyed by name.
func (s *SQLiteIndex) RecordCatalog(name, digest string, body []byte) {
	if s == nil {
		return
	}
	if !s.enqueue(req{kind: reqCatalog, catalog: catalogRow{Name: name, Digest: digest, JSON: body}}) {
		s.dropCatalog.Add(1)
	}
}

// enqueue reports false only when the queue is full. Requests after Close are
// ignored.
func (s *SQLiteIndex) enqueue(r req) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- r:
		return true
	default:
		return false
	}
}

// ListRuns returns the most recent runs first. limit <= 0 lists all.
func (s *SQLiteIndex) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT run_id,seed,width,height,factor,strategy,digest,snapshot_path,created_at FROM runs ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var created string
		if err := rows.Scan(&r.ID, &r.Seed, &r.Width, &r.Height, &r.Factor, &r.Strategy, &r.Digest, &r.SnapshotPath, &created); err != nil {
			rows.Close()
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Biomes, err = s.counts(ctx, `SELECT biome,cells FROM run_biomes WHERE run_id=?`, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Decorations, err = s.counts(ctx, `SELECT type,placements FROM run_decorations WHERE run_id=?`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteIndex) counts(ctx context.Context, q, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

// CatalogDigest returns the stored digest for name, or "" when absent.
func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name=?`, name).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return d, err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,seed,width,height,factor,strategy,digest,snapshot_path,created_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertBiome, _ := s.db.Prepare(`INSERT OR REPLACE INTO run_biomes(run_id,biome,cells) VALUES(?,?,?)`)
	insertDeco, _ := s.db.Prepare(`INSERT OR REPLACE INTO run_decorations(run_id,type,placements) VALUES(?,?,?)`)
	insertCatalog, _ := s.db.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertBiome, insertDeco, insertCatalog} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			run := r.run
			if insertRun == nil {
				break
			}
			if _, err := tx.Stmt(insertRun).Exec(
				run.ID,
				run.Seed,
				run.Width,
				run.Height,
				run.Factor,
				run.Strategy,
				run.Digest,
				run.SnapshotPath,
				run.CreatedAt.UTC().Format(time.RFC3339Nano),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			failed := false
			for _, k := range sortedKeys(run.Biomes) {
				if _, err := tx.Stmt(insertBiome).Exec(run.ID, k, run.Biomes[k]); err != nil {
					failed = true
					break
				}
				opCount++
			}
			for _, k := range sortedKeys(run.Decorations) {
				if failed {
					break
				}
				if _, err := tx.Stmt(insertDeco).Exec(run.ID, k, run.Decorations[k]); err != nil {
					failed = true
					break
				}
				opCount++
			}
			if failed {
				rollback()
				continue
			}

		case reqCatalog:
			c := r.catalog
			if insertCatalog == nil || c.Name == "" || c.Digest == "" {
				break
			}
			if _, err := tx.Stmt(insertCatalog).Exec(c.Name, c.Digest, string(c.JSON), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
