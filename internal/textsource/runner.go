package textsource

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner abstracts external process execution so tests can stub the
// pdftotext fallback.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}
