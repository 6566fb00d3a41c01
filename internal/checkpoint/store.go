package checkpoint

import (
	"time"

	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

// State is the durable batch progress: which documents are done, how many
// exist in total, and where the incremental results live. It never holds
// document text.
type State struct {
	Processed  map[string]bool `json:"processed"`
	Total      int             `json:"total"`
	UpdatedAt  time.Time       `json:"updated_at"`
	ResultsLog string          `json:"results_log,omitempty"`
}

func emptyState() State {
	return State{Processed: map[string]bool{}}
}

// Store is the durable record of batch progress. RecordResult is atomic per
// document: the result is appended to the results log before the processed
// mark is written, so a crash between the two leaves a detectable orphan that
// resumption treats as "redo". RecordResult is idempotent per document ID.
type Store interface {
	IsProcessed(docID string) bool
	RecordResult(docID string, rec *reconcile.Record) error
	Load() (State, error)
	SnapshotProgress() (done, total int, updatedAt time.Time)
	SetTotal(n int) error
	Results() ([]*reconcile.Record, error)
	Close() error
}
