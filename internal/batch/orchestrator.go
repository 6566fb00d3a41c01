package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/checkpoint"
	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/llm"
	"github.com/htxdata/tdhca-extractor/internal/pattern"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
	"github.com/htxdata/tdhca-extractor/internal/textsource"
)

// RunState is the orchestrator's lifecycle state for one invocation.
type RunState string

const (
	StateIdle      RunState = "IDLE"
	StateRunning   RunState = "RUNNING"
	StateCompleted RunState = "COMPLETED"
	StatePaused    RunState = "PAUSED"
	StateFailed    RunState = "FAILED"
)

// Config bounds one orchestrator invocation.
type Config struct {
	// SubBatchSize bounds wall-clock per checkpoint commit; the model
	// extractor's latency is the reason it exists.
	SubBatchSize int
	// MaxDocuments bounds the whole invocation; 0 runs to completion. A run
	// that stops with work remaining ends PAUSED and resumes cleanly.
	MaxDocuments int
	// Offset skips the first N documents of the sorted universe, for manual
	// sharding. Skipped documents stay pending for other invocations.
	Offset int
	// Workers > 1 processes documents of a sub-batch concurrently. The store
	// stays the single synchronization point and the sub-batch boundary is a
	// barrier, so resumability is unaffected.
	Workers int
	// ModelConfidence is the policy confidence for model-extracted values.
	ModelConfidence float64
}

// Summary is the user-visible outcome of one invocation.
type Summary struct {
	RunID            string
	State            RunState
	Done             int // processed across all runs, from the checkpoint
	Total            int
	Succeeded        int // this invocation only
	Failed           int
	Remaining        int
	UnresolvedFields int
	FatalError       string
}

// Orchestrator drives a document set through extraction in bounded
// sub-batches, persisting a checkpoint after every document so interruption
// at any point loses at most the in-flight document.
type Orchestrator struct {
	log      *slog.Logger
	cfg      Config
	source   textsource.Source
	patterns *pattern.Extractor
	model    llm.FieldExtractor // nil degrades to pattern-only
	engine   *reconcile.Engine
	store    checkpoint.Store
	status   *StatusLog
}

func NewOrchestrator(
	logger *slog.Logger,
	cfg Config,
	source textsource.Source,
	patterns *pattern.Extractor,
	model llm.FieldExtractor,
	engine *reconcile.Engine,
	store checkpoint.Store,
	status *StatusLog,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SubBatchSize < 1 {
		cfg.SubBatchSize = 25
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ModelConfidence <= 0 {
		cfg.ModelConfidence = 0.70
	}
	return &Orchestrator{
		log:      logger,
		cfg:      cfg,
		source:   source,
		patterns: patterns,
		model:    model,
		engine:   engine,
		store:    store,
		status:   status,
	}
}

// Run processes the given universe. Per-document failures become recorded
// failure records; only systemic failures (store unwritable) return an error,
// with the summary state FAILED.
func (o *Orchestrator) Run(ctx context.Context, docs []Document) (Summary, error) {
	runID := uuid.New().String()
	sum := Summary{RunID: runID, State: StateRunning, Total: len(docs)}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if o.cfg.Offset > 0 {
		if o.cfg.Offset >= len(docs) {
			docs = nil
		} else {
			docs = docs[o.cfg.Offset:]
		}
	}

	if err := o.store.SetTotal(sum.Total); err != nil {
		return o.fail(sum, err)
	}

	pending := make([]Document, 0, len(docs))
	for _, d := range docs {
		if !o.store.IsProcessed(d.ID) {
			pending = append(pending, d)
		}
	}
	bounded := pending
	if o.cfg.MaxDocuments > 0 && len(bounded) > o.cfg.MaxDocuments {
		bounded = bounded[:o.cfg.MaxDocuments]
	}

	o.log.Info("batch.run.start",
		"run_id", runID,
		"universe", sum.Total,
		"pending", len(pending),
		"this_run", len(bounded),
		"sub_batch_size", o.cfg.SubBatchSize,
		"workers", o.cfg.Workers,
	)
	if err := o.status.Append("=== run %s started: %d pending of %d", runID, len(pending), sum.Total); err != nil {
		return o.fail(sum, err)
	}

	for start := 0; start < len(bounded); start += o.cfg.SubBatchSize {
		if ctx.Err() != nil {
			o.log.Warn("batch.run.interrupted", "run_id", runID, "error", ctx.Err())
			return o.finish(sum, StatePaused)
		}
		end := start + o.cfg.SubBatchSize
		if end > len(bounded) {
			end = len(bounded)
		}
		interrupted, err := o.processSubBatch(ctx, bounded[start:end], &sum)
		if err != nil {
			return o.fail(sum, err)
		}
		if interrupted {
			o.log.Warn("batch.run.interrupted", "run_id", runID, "error", ctx.Err())
			return o.finish(sum, StatePaused)
		}

		done, total, _ := o.store.SnapshotProgress()
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(done) / float64(total)
		}
		o.log.Info("batch.subbatch.done",
			"run_id", runID,
			"done", done,
			"total", total,
			"pct", fmt.Sprintf("%.1f", pct),
			"succeeded", sum.Succeeded,
			"failed", sum.Failed,
		)
	}

	if len(bounded) < len(pending) {
		return o.finish(sum, StatePaused)
	}
	return o.finish(sum, StateCompleted)
}

// processSubBatch runs one bounded slice and commits every completed result
// before returning, so the sub-batch boundary is always a safe stopping
// point. A true first return means the context was cancelled while documents
// were in flight; those documents stay pending and are redone on resume.
func (o *Orchestrator) processSubBatch(ctx context.Context, subBatch []Document, sum *Summary) (bool, error) {
	records := make([]*reconcile.Record, len(subBatch))

	if o.cfg.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.Workers)
		for i, d := range subBatch {
			g.Go(func() error {
				records[i] = o.processDocument(gctx, d)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, d := range subBatch {
			records[i] = o.processDocument(ctx, d)
		}
	}

	// commit in universe order; the store write is the atomic step
	interrupted := false
	for _, rec := range records {
		if rec == nil {
			// cancelled while in flight: no record, the document stays pending
			interrupted = true
			continue
		}
		if err := o.store.RecordResult(rec.DocID, rec); err != nil {
			return interrupted, err
		}
		if rec.Success {
			sum.Succeeded++
			unresolved := len(constants.TargetFields) - len(rec.Fields)
			sum.UnresolvedFields += unresolved
			if err := o.status.Document(rec.DocID, true,
				fmt.Sprintf("(confidence %.2f, %d/%d fields)", rec.OverallConfidence, len(rec.Fields), len(constants.TargetFields))); err != nil {
				return interrupted, err
			}
		} else {
			sum.Failed++
			sum.UnresolvedFields += len(constants.TargetFields)
			if err := o.status.Document(rec.DocID, false, rec.FailureReason); err != nil {
				return interrupted, err
			}
		}
	}
	return interrupted, nil
}

// processDocument converts every per-document error into a recorded outcome:
// absence and failure are first-class results. The one exception is context
// cancellation mid-document, reported as a nil record so the document is not
// committed with a degraded result it would never get to redo.
func (o *Orchestrator) processDocument(ctx context.Context, doc Document) *reconcile.Record {
	start := time.Now()

	src, err := o.source.ExtractText(ctx, doc.Path)
	if err != nil {
		if ctx.Err() != nil {
			o.log.Warn("batch.document.interrupted", "doc_id", doc.ID)
			return nil
		}
		o.log.Error("batch.document.source_error", "doc_id", doc.ID, "error", err)
		return reconcile.FailedRecord(doc.ID, fmt.Sprintf("source error: %v", err))
	}
	if strings.TrimSpace(src.Text) == "" {
		o.log.Error("batch.document.no_text", "doc_id", doc.ID, "warnings", src.Warnings)
		return reconcile.FailedRecord(doc.ID, "source text unavailable")
	}

	patternCands := o.patterns.Extract(src.Text)

	var modelCands []reconcile.Candidate
	modelUsed := false
	if o.model != nil && o.engine.NeedsModel(patternCands) {
		fields, _, mErr := o.model.ExtractFields(ctx, llm.ExtractRequest{DocID: doc.ID, Text: src.Text})
		if mErr != nil {
			if ctx.Err() != nil {
				o.log.Warn("batch.document.interrupted", "doc_id", doc.ID)
				return nil
			}
			o.log.Warn("batch.document.model_degraded", "doc_id", doc.ID, "error", mErr)
		} else {
			modelCands = fields.Candidates(o.cfg.ModelConfidence)
			modelUsed = true
		}
	}

	rec := o.engine.Resolve(doc.ID, patternCands, modelCands)
	if modelUsed {
		rec.AddNote("fell back to model extractor for weak fields")
	} else if o.model != nil && len(modelCands) == 0 && o.engine.NeedsModel(patternCands) {
		rec.AddNote("model extractor unavailable; pattern-only resolution")
	}
	if src.Corrupted {
		rec.AddNote("source text flagged as corrupted")
	}

	o.log.Info("batch.document.done",
		"doc_id", doc.ID,
		"resolved", len(rec.Fields),
		"overall_confidence", rec.OverallConfidence,
		"model_used", modelUsed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec
}

func (o *Orchestrator) finish(sum Summary, state RunState) (Summary, error) {
	sum.State = state
	done, total, _ := o.store.SnapshotProgress()
	sum.Done = done
	sum.Total = total
	sum.Remaining = total - done
	_ = o.status.Append("=== run %s %s: %d/%d done, %d succeeded, %d failed this run",
		sum.RunID, strings.ToLower(string(state)), done, total, sum.Succeeded, sum.Failed)
	o.log.Info("batch.run.finished",
		"run_id", sum.RunID,
		"state", string(state),
		"done", done,
		"total", total,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"unresolved_fields", sum.UnresolvedFields,
	)
	return sum, nil
}

func (o *Orchestrator) fail(sum Summary, err error) (Summary, error) {
	sum.State = StateFailed
	sum.FatalError = err.Error()
	done, total, _ := o.store.SnapshotProgress()
	sum.Done = done
	sum.Total = total
	sum.Remaining = total - done
	o.log.Error("batch.run.fatal", "run_id", sum.RunID, "error", err)
	// best effort; the store may be the thing that broke
	_ = o.status.Append("=== run %s FAILED: %v", sum.RunID, err)
	if !common.IsSystemic(err) {
		err = common.Systemic(err, "batch run")
	}
	return sum, err
}
