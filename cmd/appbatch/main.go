package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/batch"
	"github.com/htxdata/tdhca-extractor/internal/checkpoint"
	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/llm"
	"github.com/htxdata/tdhca-extractor/internal/llm/openai"
	"github.com/htxdata/tdhca-extractor/internal/pattern"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
	"github.com/htxdata/tdhca-extractor/internal/textsource"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = pflag.String("dir", "", "directory holding the application documents (required)")
		configFile = pflag.String("config", "", "optional config file (yaml/toml/json)")
		offset     = pflag.Int("offset", 0, "skip the first N documents of the sorted universe")
		batchSize  = pflag.Int("batch-size", 0, "sub-batch size (overrides config)")
		maxDocs    = pflag.Int("max-docs", 0, "process at most N documents this invocation (0 = all)")
		workers    = pflag.Int("workers", 0, "concurrent documents per sub-batch (overrides config)")
		backend    = pflag.String("store", "", "checkpoint backend: file or sqlite (overrides config)")
		checkpt    = pflag.String("checkpoint", "", "checkpoint path (overrides config)")
		noModel    = pflag.Bool("no-model", false, "skip the model extractor, pattern-only run")
	)
	pflag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *batchSize > 0 {
		cfg.Batch.SubBatchSize = *batchSize
	}
	if *maxDocs > 0 {
		cfg.Batch.MaxDocuments = *maxDocs
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *backend != "" {
		cfg.Checkpoint.Backend = *backend
	}
	if *checkpt != "" {
		cfg.Checkpoint.Path = *checkpt
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// interruption pauses the run; the checkpoint makes resumption free
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store checkpoint.Store
	switch cfg.Checkpoint.Backend {
	case "sqlite":
		store, err = checkpoint.NewSQLiteStore(cfg.Checkpoint.Path, logger)
	default:
		store, err = checkpoint.NewFileStore(cfg.Checkpoint.Path, cfg.Checkpoint.ResultsLog, logger)
	}
	if err != nil {
		logger.Error("failed to open checkpoint store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	source := textsource.NewAdapter(textsource.Config{
		Pdftotext: cfg.TextSource.Pdftotext,
		MaxPages:  cfg.TextSource.MaxPages,
	}, logger)
	patterns := pattern.NewExtractor(logger)
	engine := reconcile.NewEngine(reconcile.Config{
		HighConfidence: cfg.Extraction.HighConfidence,
	}, constants.TargetFields, logger)

	var model llm.FieldExtractor
	if !*noModel && cfg.LLM.APIKey != "" {
		model = openai.NewClient(openai.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			Timeout:      cfg.LLM.Timeout,
			MaxRetries:   cfg.LLM.MaxRetries,
			ExcerptBytes: cfg.LLM.ExcerptBytes,
		}, logger)
		logger.Info("model extractor initialized", "model", cfg.LLM.Model)
	} else {
		logger.Warn("model extractor disabled, pattern-only resolution")
	}

	docs, err := batch.ListDocuments(*dir)
	if err != nil {
		logger.Error("failed to list document universe", "dir", *dir, "error", err)
		os.Exit(1)
	}

	orch := batch.NewOrchestrator(logger, batch.Config{
		SubBatchSize:    cfg.Batch.SubBatchSize,
		MaxDocuments:    cfg.Batch.MaxDocuments,
		Offset:          *offset,
		Workers:         cfg.Batch.Workers,
		ModelConfidence: cfg.LLM.ModelConfidence,
	}, source, patterns, model, engine, store, batch.NewStatusLog(cfg.Checkpoint.StatusLog))

	sum, runErr := orch.Run(ctx, docs)

	fmt.Printf("Batch run %s: %s\n", sum.RunID, sum.State)
	fmt.Printf("- Processed: %d/%d (%d remaining)\n", sum.Done, sum.Total, sum.Remaining)
	fmt.Printf("- This run: %d succeeded, %d failed\n", sum.Succeeded, sum.Failed)
	fmt.Printf("- Unresolved fields: %d\n", sum.UnresolvedFields)
	fmt.Printf("- Status log: %s\n", cfg.Checkpoint.StatusLog)
	if runErr != nil {
		printError("Fatal: %v\n", runErr)
		os.Exit(1)
	}
}
