package textsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/htxdata/tdhca-extractor/constants"
)

// Result is the raw text produced for one document, with reliability
// indicators. Corrupted means the text is best-effort: the document was
// malformed, OCR artifacts dominate, or a fallback path produced it.
type Result struct {
	Text      string
	Pages     int
	Corrupted bool
	Method    string // "pdf-text" | "pdf-external" | "plain-text"
	Warnings  []string
	Duration  time.Duration
}

// Source converts a document path to raw text. Implementations must not fail
// on malformed documents; they return best-effort text with Corrupted set.
type Source interface {
	ExtractText(ctx context.Context, path string) (Result, error)
}

// Config for the adapter.
type Config struct {
	// Pdftotext names the external fallback binary; empty disables the
	// fallback and malformed PDFs yield an empty, corrupted result.
	Pdftotext string
	MaxPages  int // 0 = no limit
}

// Adapter wraps the in-process PDF reader with a structural pre-check and an
// external pdftotext fallback.
type Adapter struct {
	cfg    Config
	runner Runner
	log    *slog.Logger
}

func NewAdapter(cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{cfg: cfg, runner: execRunner{}, log: logger}
}

// ExtractText picks a strategy based on file extension. An error return is
// reserved for unsupported inputs; a malformed PDF comes back as a corrupted
// Result, not an error.
func (a *Adapter) ExtractText(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	a.log.Debug("textsource.extract.start", "path", path, "ext", ext)

	var res Result
	switch ext {
	case "txt":
		res = a.extractPlain(path)
	case "pdf":
		res = a.extractPDF(ctx, path)
	default:
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	res.Text = Normalize(res.Text)
	if !res.Corrupted && suspectCorruption(res.Text) {
		res.Corrupted = true
		res.Warnings = append(res.Warnings, "text fails corruption heuristics")
	}
	res.Duration = time.Since(start)

	a.log.Info("textsource.extract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"corrupted", res.Corrupted,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *Adapter) extractPlain(path string) Result {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{
			Method:    "plain-text",
			Corrupted: true,
			Warnings:  []string{fmt.Sprintf("read failed: %v", err)},
		}
	}
	return Result{Text: string(b), Pages: 1, Method: "plain-text"}
}
