package textsource

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// extractPDF validates structure, reads text in-process, and falls back to an
// external pdftotext when the in-process reader gets nothing usable.
func (a *Adapter) extractPDF(ctx context.Context, path string) Result {
	res := Result{Method: "pdf-text"}

	// structural pre-check; a failing file is still worth a text attempt
	if err := api.ValidateFile(path, nil); err != nil {
		res.Corrupted = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("pdf validation: %v", err))
		a.log.Warn("textsource.pdf.invalid", "path", path, "error", err)
	}
	if n, err := api.PageCountFile(path); err == nil {
		res.Pages = n
	}

	text, pages, err := readPDFText(path, a.cfg.MaxPages)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("in-process read: %v", err))
	}
	if pages > 0 {
		res.Pages = pages
	}
	res.Text = text

	if strings.TrimSpace(res.Text) == "" && a.cfg.Pdftotext != "" {
		out, errb, rerr := a.runner.Run(ctx, a.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
		if rerr != nil {
			res.Corrupted = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("pdftotext: %v: %s", rerr, string(errb)))
			return res
		}
		res.Text = string(out)
		res.Method = "pdf-external"
		// pdftotext separates pages with form feeds
		res.Pages = 1 + strings.Count(res.Text, "\f")
	}

	if strings.TrimSpace(res.Text) == "" {
		res.Corrupted = true
		res.Warnings = append(res.Warnings, "no text produced")
	}
	return res
}

// readPDFText pulls plain text per page. The reader is known to panic on some
// malformed files, so the whole read is fenced.
func readPDFText(path string, maxPages int) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	total := reader.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}
	var b strings.Builder
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, perr := p.GetPlainText(nil)
		if perr != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(s)
	}
	return b.String(), total, nil
}
