package reconcile

// Source tags where a candidate value came from.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceModel   Source = "model"
)

// Candidate is one extracted value for one field, with the extractor's own
// confidence in it. Multiple candidates may exist per field per document.
type Candidate struct {
	Field      string
	Value      string
	Source     Source
	Confidence float64
}

// ByField groups candidates by field name, preserving order within a field.
func ByField(cands []Candidate) map[string][]Candidate {
	m := make(map[string][]Candidate)
	for _, c := range cands {
		m[c.Field] = append(m[c.Field], c)
	}
	return m
}

// best returns the strongest candidate, or false if the slice is empty.
// Equal confidences keep the earlier candidate, so pattern extractors that
// emit their anchored match first stay deterministic.
func best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	top := cands[0]
	for _, c := range cands[1:] {
		if c.Confidence > top.Confidence {
			top = c
		}
	}
	return top, true
}
