package reconcile

import "time"

// Record is the final structured output for one document: resolved values and
// confidences per field, processing notes, and aggregates. It is what the
// checkpoint store persists, one per document, so the JSON shape must
// round-trip without loss.
type Record struct {
	DocID       string             `json:"doc_id"`
	Fields      map[string]string  `json:"fields"`
	Confidences map[string]float64 `json:"confidences"`
	Sources     map[string]Source  `json:"sources,omitempty"`
	Notes       []string           `json:"notes,omitempty"`

	// OverallConfidence is the unweighted mean over resolved fields only.
	// Unresolved fields instead lower Completeness; conflating the two would
	// hide absence behind a low score.
	OverallConfidence float64 `json:"overall_confidence"`
	Completeness      float64 `json:"completeness"`

	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NewRecord returns an empty record for docID with maps initialized.
func NewRecord(docID string) *Record {
	return &Record{
		DocID:       docID,
		Fields:      map[string]string{},
		Confidences: map[string]float64{},
		Sources:     map[string]Source{},
		Success:     true,
		ProcessedAt: time.Now().UTC(),
	}
}

// FailedRecord returns a record for a document that could not be processed at
// all. All fields are unresolved and overall confidence is zero.
func FailedRecord(docID, reason string) *Record {
	r := NewRecord(docID)
	r.Success = false
	r.FailureReason = reason
	r.Notes = append(r.Notes, reason)
	return r
}

// AddNote appends a processing note.
func (r *Record) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// Resolved reports whether the field has a final value.
func (r *Record) Resolved(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// finalize computes the aggregates from the per-field resolutions.
func (r *Record) finalize(targetFields []string) {
	resolved := 0
	sum := 0.0
	for _, f := range targetFields {
		if v, ok := r.Confidences[f]; ok {
			resolved++
			sum += v
		}
	}
	if resolved > 0 {
		r.OverallConfidence = sum / float64(resolved)
	} else {
		r.OverallConfidence = 0.0
	}
	if len(targetFields) > 0 {
		r.Completeness = float64(resolved) / float64(len(targetFields))
	}
}
