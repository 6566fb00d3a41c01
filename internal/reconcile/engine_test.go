package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTargets = []string{"county", "city", "total_units"}

func newTestEngine() *Engine {
	return NewEngine(Config{HighConfidence: 0.80}, testTargets, nil)
}

func pc(field, value string, conf float64) Candidate {
	return Candidate{Field: field, Value: value, Source: SourcePattern, Confidence: conf}
}

func mc(field, value string, conf float64) Candidate {
	return Candidate{Field: field, Value: value, Source: SourceModel, Confidence: conf}
}

func TestResolveHighConfidencePatternWins(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("county", "Harris", 0.90)},
		[]Candidate{mc("county", "Galveston", 0.70)},
	)
	assert.Equal(t, "Harris", rec.Fields["county"])
	assert.Equal(t, SourcePattern, rec.Sources["county"])
	assert.InDelta(t, 0.90, rec.Confidences["county"], 0.001)
}

func TestResolveModelBeatsWeakPattern(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("city", "Baytow", 0.45)},
		[]Candidate{mc("city", "Baytown", 0.70)},
	)
	assert.Equal(t, "Baytown", rec.Fields["city"])
	assert.Equal(t, SourceModel, rec.Sources["city"])
	require.NotEmpty(t, rec.Notes)
	assert.Contains(t, strings.Join(rec.Notes, "\n"), "model value preferred")
}

func TestResolveModelBeatsStrongerSubThresholdPattern(t *testing.T) {
	// any pattern match below the high-confidence threshold defers to the
	// model, even when its confidence is numerically higher
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("total_units", "48", 0.75)},
		[]Candidate{mc("total_units", "52", 0.70)},
	)
	assert.Equal(t, "52", rec.Fields["total_units"])
	assert.Equal(t, SourceModel, rec.Sources["total_units"])
	assert.InDelta(t, 0.70, rec.Confidences["total_units"], 0.001)
	assert.Contains(t, strings.Join(rec.Notes, "\n"), "sub-threshold pattern match (0.75)")
}

func TestResolveEmptyModelValueIgnored(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("city", "Baytown", 0.45)},
		[]Candidate{mc("city", "  ", 0.70)},
	)
	assert.Equal(t, "Baytown", rec.Fields["city"])
	assert.Equal(t, SourcePattern, rec.Sources["city"])
}

func TestResolveWeakPatternBeatsNothing(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("total_units", "48", 0.45)},
		nil,
	)
	assert.Equal(t, "48", rec.Fields["total_units"])
	assert.InDelta(t, 0.45, rec.Confidences["total_units"], 0.001)
}

func TestResolveTieFavorsPattern(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("county", "Harris", 0.70)},
		[]Candidate{mc("county", "Galveston", 0.70)},
	)
	assert.Equal(t, "Harris", rec.Fields["county"])
	assert.Equal(t, SourcePattern, rec.Sources["county"])
}

func TestResolveUnresolvedFieldNoted(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1", nil, nil)
	assert.Empty(t, rec.Fields)
	assert.Len(t, rec.Notes, len(testTargets))
	for _, n := range rec.Notes {
		assert.Contains(t, n, "unresolved")
	}
	assert.Zero(t, rec.OverallConfidence)
	assert.Zero(t, rec.Completeness)
	assert.True(t, rec.Success)
}

func TestResolveAggregates(t *testing.T) {
	rec := newTestEngine().Resolve("doc-1",
		[]Candidate{pc("county", "Harris", 0.90)},
		[]Candidate{mc("city", "Baytown", 0.70)},
	)
	// two of three fields resolved
	assert.InDelta(t, 0.80, rec.OverallConfidence, 0.001)
	assert.InDelta(t, 2.0/3.0, rec.Completeness, 0.001)
	assert.False(t, rec.Resolved("total_units"))
}

func TestResolveDeterministic(t *testing.T) {
	patterns := []Candidate{pc("county", "Harris", 0.90), pc("city", "Baytown", 0.55)}
	models := []Candidate{mc("city", "Houston", 0.70), mc("total_units", "48", 0.70)}

	a := newTestEngine().Resolve("doc-1", patterns, models)
	b := newTestEngine().Resolve("doc-1", patterns, models)
	assert.Equal(t, a.Fields, b.Fields)
	assert.Equal(t, a.Confidences, b.Confidences)
	assert.Equal(t, a.Notes, b.Notes)
}

func TestNeedsModel(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.NeedsModel(nil))
	assert.True(t, e.NeedsModel([]Candidate{
		pc("county", "Harris", 0.90),
		pc("city", "Baytown", 0.55), // below threshold
		pc("total_units", "48", 0.90),
	}))
	assert.False(t, e.NeedsModel([]Candidate{
		pc("county", "Harris", 0.90),
		pc("city", "Baytown", 0.85),
		pc("total_units", "48", 0.80), // exactly at threshold counts as settled
	}))
}

func TestBestKeepsEarlierOnTie(t *testing.T) {
	top, ok := best([]Candidate{
		pc("county", "Harris", 0.70),
		pc("county", "Travis", 0.70),
	})
	require.True(t, ok)
	assert.Equal(t, "Harris", top.Value)
}

func TestFailedRecord(t *testing.T) {
	rec := FailedRecord("doc-9", "text extraction produced no text")
	assert.False(t, rec.Success)
	assert.Equal(t, "text extraction produced no text", rec.FailureReason)
	assert.Contains(t, rec.Notes, "text extraction produced no text")
	assert.Empty(t, rec.Fields)
}
