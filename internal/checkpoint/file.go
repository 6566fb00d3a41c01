package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

// FileStore keeps the checkpoint as a small JSON document and the results as
// an append-only JSONL log next to it. Unknown fields in the checkpoint file
// are ignored on read, so newer writers stay compatible with older files.
type FileStore struct {
	path    string
	logPath string
	log     *slog.Logger

	mu    sync.Mutex
	state State
}

// NewFileStore opens (or initializes) a file-backed store. A missing or
// unreadable checkpoint is an empty state, never an error: losing a
// checkpoint costs reprocessing time, not correctness.
func NewFileStore(path, logPath string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(path), "results.jsonl")
	}
	s := &FileStore{path: path, logPath: logPath, log: logger}
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	s.state = st
	return s, nil
}

// Load reads the checkpoint and reconciles it against the results log. A
// document present in the log but not marked processed is a crash remnant and
// stays unprocessed (redo); a processed mark without a log record would break
// the one-record-per-processed-ID invariant, so it is dropped too.
func (s *FileStore) Load() (State, error) {
	st := emptyState()
	st.ResultsLog = s.logPath

	b, err := os.ReadFile(s.path)
	if err == nil {
		var onDisk State
		if jerr := json.Unmarshal(b, &onDisk); jerr != nil {
			s.log.Warn("checkpoint.load.unreadable", "path", s.path, "error", jerr)
		} else {
			if onDisk.Processed != nil {
				st.Processed = onDisk.Processed
			}
			st.Total = onDisk.Total
			st.UpdatedAt = onDisk.UpdatedAt
			if onDisk.ResultsLog != "" {
				st.ResultsLog = onDisk.ResultsLog
				s.logPath = onDisk.ResultsLog
			}
		}
	} else if !os.IsNotExist(err) {
		s.log.Warn("checkpoint.load.unreadable", "path", s.path, "error", err)
	}

	logged, err := s.readLog()
	if err != nil {
		return st, err
	}
	for id := range st.Processed {
		if !st.Processed[id] {
			delete(st.Processed, id)
			continue
		}
		if _, ok := logged[id]; !ok {
			s.log.Warn("checkpoint.load.orphan_mark", "doc_id", id)
			delete(st.Processed, id)
		}
	}
	for id := range logged {
		if !st.Processed[id] {
			s.log.Info("checkpoint.load.redo", "doc_id", id)
		}
	}

	s.log.Info("checkpoint.load.ok",
		"path", s.path,
		"processed", len(st.Processed),
		"total", st.Total,
	)
	return st, nil
}

func (s *FileStore) IsProcessed(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Processed[docID]
}

// RecordResult appends the record to the results log, syncs it, and only then
// marks the document processed in the checkpoint. Store errors are systemic.
func (s *FileStore) RecordResult(docID string, rec *reconcile.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendResult(rec); err != nil {
		return common.Systemic(err, "append results log")
	}

	s.state.Processed[docID] = true
	s.state.UpdatedAt = time.Now().UTC()
	if err := s.writeCheckpoint(); err != nil {
		return common.Systemic(err, "write checkpoint")
	}
	return nil
}

func (s *FileStore) appendResult(rec *reconcile.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// writeCheckpoint writes the whole state to a temp file, syncs it, and
// renames it over the checkpoint, so readers never observe a torn file even
// across power loss.
func (s *FileStore) writeCheckpoint() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) SnapshotProgress() (int, int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Processed), s.state.Total, s.state.UpdatedAt
}

func (s *FileStore) SetTotal(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Total == n {
		return nil
	}
	s.state.Total = n
	s.state.UpdatedAt = time.Now().UTC()
	if err := s.writeCheckpoint(); err != nil {
		return common.Systemic(err, "write checkpoint")
	}
	return nil
}

// Results re-reads the results log. Re-recorded documents keep only their
// latest record, preserving one record per processed identifier.
func (s *FileStore) Results() ([]*reconcile.Record, error) {
	byID, err := s.readLog()
	if err != nil {
		return nil, err
	}
	out := make([]*reconcile.Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	return out, nil
}

func (s *FileStore) readLog() (map[string]*reconcile.Record, error) {
	byID := map[string]*reconcile.Record{}
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return byID, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec reconcile.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.log.Warn("checkpoint.results.bad_line", "error", err)
			continue
		}
		r := rec
		byID[rec.DocID] = &r
	}
	return byID, sc.Err()
}

func (s *FileStore) Close() error { return nil }
