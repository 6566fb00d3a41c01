package checkpoint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

// SQLiteStore keeps results and processed marks in one database file, updated
// in a single transaction per document. It is the backend for runs where the
// results log is queried while a batch is still going, and it serializes
// writes so a parallel orchestrator needs no extra locking.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger

	mu sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	doc_id     TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS processed (
	doc_id       TEXT PRIMARY KEY,
	processed_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLiteStore opens (or creates) the database at path. ":memory:" works
// for tests.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.Systemic(err, "open checkpoint db")
	}
	// a single writer keeps transactions serialized
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.Systemic(err, "init checkpoint schema")
	}
	logger.Info("checkpoint.sqlite.open", "path", path)
	return &SQLiteStore{db: db, log: logger}, nil
}

func (s *SQLiteStore) IsProcessed(docID string) bool {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM processed WHERE doc_id = ?`, docID).Scan(&one)
	return err == nil
}

// RecordResult upserts the record and the processed mark in one transaction.
func (s *SQLiteStore) RecordResult(docID string, rec *reconcile.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return common.Systemic(err, "begin checkpoint tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO results (doc_id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		docID, string(b), now,
	); err != nil {
		return common.Systemic(err, "write result")
	}
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO processed (doc_id, processed_at) VALUES (?, ?)`,
		docID, now,
	); err != nil {
		return common.Systemic(err, "mark processed")
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('updated_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		now,
	); err != nil {
		return common.Systemic(err, "update meta")
	}
	if err := tx.Commit(); err != nil {
		return common.Systemic(err, "commit checkpoint tx")
	}
	return nil
}

func (s *SQLiteStore) Load() (State, error) {
	st := emptyState()

	rows, err := s.db.Query(`SELECT doc_id FROM processed`)
	if err != nil {
		return st, common.Systemic(err, "load processed set")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return st, common.Systemic(err, "scan processed row")
		}
		st.Processed[id] = true
	}
	if err := rows.Err(); err != nil {
		return st, common.Systemic(err, "load processed set")
	}

	if v, ok := s.metaValue("total"); ok {
		_, _ = fmt.Sscanf(v, "%d", &st.Total)
	}
	if v, ok := s.metaValue("updated_at"); ok {
		if t, perr := time.Parse(time.RFC3339Nano, v); perr == nil {
			st.UpdatedAt = t
		}
	}
	return st, nil
}

func (s *SQLiteStore) metaValue(key string) (string, bool) {
	var v string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v); err != nil {
		return "", false
	}
	return v, true
}

func (s *SQLiteStore) SnapshotProgress() (int, int, time.Time) {
	st, err := s.Load()
	if err != nil {
		s.log.Warn("checkpoint.sqlite.snapshot_failed", "error", err)
		return 0, 0, time.Time{}
	}
	return len(st.Processed), st.Total, st.UpdatedAt
}

func (s *SQLiteStore) SetTotal(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('total', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", n),
	)
	if err != nil {
		return common.Systemic(err, "set total")
	}
	return nil
}

func (s *SQLiteStore) Results() ([]*reconcile.Record, error) {
	rows, err := s.db.Query(`SELECT record FROM results ORDER BY doc_id`)
	if err != nil {
		return nil, common.Systemic(err, "load results")
	}
	defer func() { _ = rows.Close() }()

	var out []*reconcile.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, common.Systemic(err, "scan result row")
		}
		var rec reconcile.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.log.Warn("checkpoint.sqlite.bad_record", "error", err)
			continue
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
