// appextract runs the full extraction pipeline for a single document and
// prints the resolved record as JSON. Debug tool; no checkpointing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/common"
	"github.com/htxdata/tdhca-extractor/internal/llm"
	"github.com/htxdata/tdhca-extractor/internal/llm/openai"
	"github.com/htxdata/tdhca-extractor/internal/pattern"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
	"github.com/htxdata/tdhca-extractor/internal/textsource"
)

func main() {
	var (
		file       = pflag.String("file", "", "document to extract (required)")
		configFile = pflag.String("config", "", "optional config file")
		noModel    = pflag.Bool("no-model", false, "skip the model extractor")
		verbose    = pflag.Bool("verbose", false, "debug logging")
	)
	pflag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	source := textsource.NewAdapter(textsource.Config{
		Pdftotext: cfg.TextSource.Pdftotext,
		MaxPages:  cfg.TextSource.MaxPages,
	}, logger)

	res, err := source.ExtractText(ctx, *file)
	if err != nil {
		logger.Error("text extraction failed", "file", *file, "error", err)
		os.Exit(1)
	}

	patterns := pattern.NewExtractor(logger)
	engine := reconcile.NewEngine(reconcile.Config{
		HighConfidence: cfg.Extraction.HighConfidence,
	}, constants.TargetFields, logger)

	patternCands := patterns.Extract(res.Text)

	var modelCands []reconcile.Candidate
	if !*noModel && cfg.LLM.APIKey != "" && engine.NeedsModel(patternCands) {
		client := openai.NewClient(openai.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			Timeout:      cfg.LLM.Timeout,
			MaxRetries:   cfg.LLM.MaxRetries,
			ExcerptBytes: cfg.LLM.ExcerptBytes,
		}, logger)
		fields, _, mErr := client.ExtractFields(ctx, llm.ExtractRequest{DocID: *file, Text: res.Text})
		if mErr != nil {
			logger.Warn("model extraction failed, pattern-only", "error", mErr)
		} else {
			modelCands = fields.Candidates(cfg.LLM.ModelConfidence)
		}
	}

	rec := engine.Resolve(*file, patternCands, modelCands)
	if res.Corrupted {
		rec.AddNote("source text flagged as corrupted")
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Error("encode record", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
