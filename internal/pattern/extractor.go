package pattern

import (
	"log/slog"
	"strings"

	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

// Extractor runs the per-field heuristics over raw document text. It is a
// pure function of its input: no I/O, no state between documents.
type Extractor struct {
	log *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{log: logger}
}

// Extract produces zero or more candidates per target field. Degenerate
// matches (a ZIP standing in for a county, boilerplate as a project name) are
// rejected outright rather than emitted with low confidence.
func (e *Extractor) Extract(text string) []reconcile.Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []reconcile.Candidate
	out = append(out, extractApplicationNumber(text)...)
	out = append(out, extractProjectName(text)...)
	out = append(out, extractStreetAddress(text)...)
	out = append(out, extractCity(text)...)
	out = append(out, extractCounty(text)...)
	out = append(out, extractZip(text)...)
	out = append(out, extractTotalUnits(text)...)
	out = append(out, extractDeveloperName(text)...)
	out = append(out, extractApplicationDate(text)...)
	out = append(out, extractMonetary(text)...)
	out = append(out, extractTotalScore(text)...)

	e.log.Debug("pattern.extract.done", "candidates", len(out), "text_bytes", len(text))
	return out
}

func cand(field, value string, conf float64) reconcile.Candidate {
	return reconcile.Candidate{
		Field:      field,
		Value:      value,
		Source:     reconcile.SourcePattern,
		Confidence: conf,
	}
}

// inlineValue trims a line-tail capture down to the value itself: multi-column
// layouts put the next column after a run of spaces, so everything past the
// first double space is noise.
func inlineValue(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "  "); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, " \t,;.")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
