package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryRow is one saved bot history: where it lives on disk and which tick
// span it covers.
type HistoryRow struct {
	ClientID  int64
	BotName   string
	FirstTick int64
	LastTick  int64
	Dir       string
	SavedAt   string
}

// SQLiteIndex records saved bot histories. Writes go through a buffered
// channel drained by one writer goroutine so the simulation thread never
// blocks on the database; the history files on disk remain the source of
// truth if the indexer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan HistoryRow
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
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
		ch: make(chan HistoryRow, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
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
		`CREATE TABLE IF NOT EXISTS bot_histories (
			client_id INTEGER NOT NULL,
			bot_name TEXT NOT NULL,
			first_tick INTEGER NOT NULL,
			last_tick INTEGER NOT NULL,
			dir TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (client_id, saved_at)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bot_histories_saved_at ON bot_histories(saved_at);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
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

// RecordHistory queues one saved-history row. Rows are dropped rather than
// blocking when the writer falls behind.
func (s *SQLiteIndex) RecordHistory(row HistoryRow) {
	if s == nil || s.closed.Load() {
		return
	}
	if row.SavedAt == "" {
		row.SavedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	select {
	case s.ch <- row:
	default:
	}
}

// ListHistories returns saved histories, most recent first. clientID <= 0
// lists all clients.
func (s *SQLiteIndex) ListHistories(ctx context.Context, clientID int64) ([]HistoryRow, error) {
	if s == nil {
		return nil, nil
	}
	q := `SELECT client_id, bot_name, first_tick, last_tick, dir, saved_at
		FROM bot_histories`
	args := []any{}
	if clientID > 0 {
		q += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	q += ` ORDER BY saved_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		if err := rows.Scan(&r.ClientID, &r.BotName, &r.FirstTick, &r.LastTick, &r.Dir, &r.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	insert, _ := s.db.Prepare(`INSERT OR REPLACE INTO bot_histories(client_id,bot_name,first_tick,last_tick,dir,saved_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()
	for r := range s.ch {
		if insert == nil {
			continue
		}
		_, _ = insert.Exec(r.ClientID, r.BotName, r.FirstTick, r.LastTick, r.Dir, r.SavedAt)
	}
}
