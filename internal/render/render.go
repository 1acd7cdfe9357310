// Package render converts LaTeX documents into PDF artifacts using a local toolchain.
package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	StatusRendered    = "rendered"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
)

// Outcome is the result of a render attempt. A missing toolchain is a
// first-class outcome, not an error.
type Outcome struct {
	Status string
	PDF    []byte
	Detail string
}

// Renderer converts a LaTeX document body into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, document string) Outcome
	Available() bool
}

// LaTeX shells out to pdflatex (or a configured equivalent). Stateless across
// calls: every render gets its own temporary working directory so concurrent
// renders never interfere.
type LaTeX struct {
	command string
	timeout time.Duration

	probeOnce sync.Once
	path      string
	available bool
}

func NewLaTeX(command string, timeout time.Duration) *LaTeX {
	return &LaTeX{command: command, timeout: timeout}
}

// Available reports whether the toolchain is installed. The probe runs once
// and is cached for the process lifetime; a crashing pdflatex run is therefore
// distinguishable from a missing one.
func (l *LaTeX) Available() bool {
	l.probeOnce.Do(func() {
		path, err := exec.LookPath(l.command)
		if err == nil {
			l.path = path
			l.available = true
		}
	})
	return l.available
}

func (l *LaTeX) Render(ctx context.Context, document string) Outcome {
	if !l.Available() {
		return Outcome{Status: StatusUnavailable, Detail: l.command + " not found in PATH"}
	}

	workdir, err := os.MkdirTemp("", "reportpipe-render-*")
	if err != nil {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("create workdir: %v", err)}
	}
	defer os.RemoveAll(workdir)

	texPath := filepath.Join(workdir, "report.tex")
	if err := os.WriteFile(texPath, []byte(document), 0o644); err != nil {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("write tex: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, l.path, "-interaction=nonstopmode", "-halt-on-error", "report.tex")
	cmd.Dir = workdir
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("render timeout after %s", l.timeout)}
	}
	if err != nil {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%s: %v: %s", l.command, err, tail(output, 512))}
	}

	pdf, err := os.ReadFile(filepath.Join(workdir, "report.pdf"))
	if err != nil {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("read pdf: %v", err)}
	}

	return Outcome{Status: StatusRendered, PDF: pdf}
}

// tail returns the last n bytes of toolchain output, where the actual error lives.
func tail(output []byte, n int) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

var _ Renderer = (*LaTeX)(nil)
