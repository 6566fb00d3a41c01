package reconcile

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds the reconciliation thresholds.
type Config struct {
	// HighConfidence is the pattern confidence at or above which a field is
	// considered settled and the model extractor is not needed for it.
	HighConfidence float64
}

// Engine resolves pattern and model candidates into one value per field.
// Resolution is deterministic: same candidates in, same record out.
type Engine struct {
	cfg          Config
	targetFields []string
	log          *slog.Logger
}

func NewEngine(cfg Config, targetFields []string, logger *slog.Logger) *Engine {
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = 0.80
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, targetFields: targetFields, log: logger}
}

// NeedsModel reports whether any target field lacks a pattern candidate at or
// above the high-confidence threshold. The orchestrator uses it to skip the
// model call entirely for documents the patterns already settled.
func (e *Engine) NeedsModel(patternCands []Candidate) bool {
	byField := ByField(patternCands)
	for _, f := range e.targetFields {
		top, ok := best(byField[f])
		if !ok || top.Confidence < e.cfg.HighConfidence {
			return true
		}
	}
	return false
}

// Resolve merges pattern and model candidates into one record for docID.
//
// Per field, in order:
//  1. a pattern candidate at/above HighConfidence wins outright;
//  2. otherwise a non-empty model candidate wins, even against a stronger
//     sub-threshold pattern match;
//  3. otherwise the best pattern candidate, however weak;
//  4. otherwise the field stays unresolved with a note; values are never
//     fabricated.
//
// Exact confidence ties favor the pattern extractor.
func (e *Engine) Resolve(docID string, patternCands, modelCands []Candidate) *Record {
	rec := NewRecord(docID)
	pat := ByField(patternCands)
	mod := ByField(modelCands)

	for _, field := range e.targetFields {
		p, hasPattern := best(pat[field])
		m, hasModel := best(mod[field])
		if hasModel && strings.TrimSpace(m.Value) == "" {
			hasModel = false
		}

		switch {
		case hasPattern && p.Confidence >= e.cfg.HighConfidence:
			e.accept(rec, p)
		case hasModel && hasPattern && m.Confidence == p.Confidence:
			// exact tie: pattern wins for determinism
			e.accept(rec, p)
			rec.AddNote(fmt.Sprintf("%s: pattern value kept over model candidate", field))
		case hasModel:
			e.accept(rec, m)
			if hasPattern {
				rec.AddNote(fmt.Sprintf("%s: model value preferred over sub-threshold pattern match (%.2f)", field, p.Confidence))
			}
		case hasPattern:
			e.accept(rec, p)
		default:
			rec.AddNote(fmt.Sprintf("%s: unresolved, no candidate from either extractor", field))
		}
	}

	rec.finalize(e.targetFields)
	e.log.Debug("reconcile.resolved",
		"doc_id", docID,
		"resolved", len(rec.Fields),
		"targets", len(e.targetFields),
		"overall_confidence", rec.OverallConfidence,
	)
	return rec
}

func (e *Engine) accept(rec *Record, c Candidate) {
	rec.Fields[c.Field] = c.Value
	rec.Confidences[c.Field] = c.Confidence
	rec.Sources[c.Field] = c.Source
}
