package batch

import (
	"fmt"
	"os"
	"sync"

	"github.com/htxdata/tdhca-extractor/internal/common"
)

// StatusLog is the operator-facing run log, appended across resumed runs. One
// line per document: "[id]: SUCCESS <details>" or "[id]: FAILURE <details>",
// plus run-level markers. Monitoring tooling tails this file.
type StatusLog struct {
	mu   sync.Mutex
	path string
}

func NewStatusLog(path string) *StatusLog {
	return &StatusLog{path: path}
}

// Append writes one line. Failures here are systemic: a run that cannot
// report progress should not keep going silently.
func (s *StatusLog) Append(format string, args ...any) error {
	if s == nil || s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return common.Systemic(err, "open status log")
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintf(f, format+"\n", args...); err != nil {
		return common.Systemic(err, "append status log")
	}
	return nil
}

// Document writes the per-document outcome line.
func (s *StatusLog) Document(docID string, success bool, details string) error {
	outcome := "SUCCESS"
	if !success {
		outcome = "FAILURE"
	}
	return s.Append("[%s]: %s %s", docID, outcome, details)
}
