package indexdb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/vicksonzero/shroom-io/internal/sim/game"
	"github.com/vicksonzero/shroom-io/internal/sim/tuning"
)

// SQLiteIndex mirrors the step journal into queryable tables. Writes are
// asynchronous and dropped when the writer falls behind; the journal stays
// the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan game.StepLogEntry
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropped   atomic.Uint64
	failed    atomic.Uint64
	committed atomic.Uint64
}

type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropTotal      uint64 `json:"drop_total"`
	WriteFailTotal uint64 `json:"write_fail_total"`
	StepsTotal     uint64 `json:"steps_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
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
		ch: make(chan game.StepLogEntry, queue),
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
		`CREATE TABLE IF NOT EXISTS steps (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			connects INTEGER NOT NULL,
			leaves INTEGER NOT NULL,
			commands INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			player_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			human INTEGER NOT NULL,
			start_tick INTEGER NOT NULL,
			end_tick INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_tick);`,
		`CREATE TABLE IF NOT EXISTS kills (
			tick INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			owner INTEGER NOT NULL,
			PRIMARY KEY (tick, entity_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_kills_owner_tick ON kills(owner, tick);`,
		`CREATE TABLE IF NOT EXISTS rejections (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			command TEXT NOT NULL,
			ref TEXT,
			code TEXT NOT NULL,
			message TEXT,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rejections_code_tick ON rejections(code, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteStep queues e for indexing. It never blocks the simulation.
func (s *SQLiteIndex) WriteStep(e game.StepLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropTotal:      s.dropped.Load(),
		WriteFailTotal: s.failed.Load(),
		StepsTotal:     s.committed.Load(),
	}
}

// RecordTuning stores the applied tuning and its digest in meta.
func (s *SQLiteIndex) RecordTuning(tu tuning.Tuning, seed int64) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tu)
	if err != nil {
		return err
	}
	sum := blake3.Sum256(b)
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	rows := [][2]string{
		{"schema_version", "1"},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
		{"seed", fmt.Sprint(seed)},
		{"started_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
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
		if err := tx.Commit(); err != nil {
			s.failed.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil {
			s.failed.Add(1)
			continue
		}
		n, err := writeStep(tx, e)
		if err != nil {
			_ = tx.Rollback()
			tx = nil
			s.failed.Add(1)
			continue
		}
		opCount += n
		s.committed.Add(1)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
	commit()
}

// writeStep inserts one step and its derived rows, returning the row count.
func writeStep(tx *sql.Tx, e game.StepLogEntry) (int, error) {
	raw, _ := json.Marshal(e)
	if _, err := tx.Exec(`INSERT OR REPLACE INTO steps(tick,digest,connects,leaves,commands,raw_json) VALUES(?,?,?,?,?,?)`,
		e.Tick, e.Digest, len(e.Connects), len(e.Leaves), len(e.Commands), string(raw)); err != nil {
		return 0, err
	}
	n := 1
	for _, sp := range e.Spawns {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO sessions(session_id,player_id,name,human,start_tick,end_tick) VALUES(?,?,?,?,?,NULL)`,
			sp.SessionID, sp.PlayerID, sp.Name, sp.Human, e.Tick); err != nil {
			return n, err
		}
		n++
	}
	for _, id := range e.Leaves {
		if _, err := tx.Exec(`UPDATE sessions SET end_tick=? WHERE session_id=? AND end_tick IS NULL`, e.Tick, id); err != nil {
			return n, err
		}
		n++
	}
	for _, k := range e.Killed {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO kills(tick,entity_id,kind,owner) VALUES(?,?,?,?)`,
			e.Tick, k.EntityID, k.Kind, k.Owner); err != nil {
			return n, err
		}
		n++
	}
	for i, r := range e.Rejections {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO rejections(tick,seq,session_id,command,ref,code,message) VALUES(?,?,?,?,?,?,?)`,
			e.Tick, i, r.SessionID, r.Command, r.Ref, r.Code, r.Message); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
