// Package compress shrinks a linked binary with an optional post-link
// compressor (upx). Compression is an optimization: nothing in this package
// returns an error to its caller.
package compress

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flarebyte/shipwright/internal/proc"
)

const DefaultProgram = "upx"

// Status is the terminal state of one Compress call.
type Status string

const (
	StatusCompressed  Status = "compressed"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
)

// tempSuffixes replace the target's extension on files upx may leave behind.
var tempSuffixes = []string{".000", ".upx"}

// Outcome reports what happened to one file.
type Outcome struct {
	Status   Status   `json:"status" yaml:"status"`
	Before   int64    `json:"before,omitempty" yaml:"before,omitempty"`
	After    int64    `json:"after,omitempty" yaml:"after,omitempty"`
	Ratio    float64  `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Compressor invokes Program through Exec.
type Compressor struct {
	Exec    proc.Executor
	Program string
	Logger  *slog.Logger
}

// New returns a Compressor for program (DefaultProgram when empty).
func New(exec proc.Executor, program string, logger *slog.Logger) *Compressor {
	if program == "" {
		program = DefaultProgram
	}
	return &Compressor{Exec: exec, Program: program, Logger: logger}
}

func (c *Compressor) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Available probes the compressor's version query.
func (c *Compressor) Available(ctx context.Context) bool {
	return proc.Probe(ctx, c.Exec, c.Program, "--version")
}

// Compress runs the compressor in maximal, verbose mode against path.
func (c *Compressor) Compress(ctx context.Context, path string) Outcome {
	log := c.logger()
	if !c.Available(ctx) {
		log.Info("compressor not installed, skipping compression", "program", c.Program)
		return Outcome{Status: StatusUnavailable}
	}
	st, err := os.Stat(path)
	if err != nil {
		log.Error("compression skipped", "path", path, "error", err)
		return Outcome{Status: StatusFailed}
	}
	before := st.Size()
	log.Info("compressing", "path", path, "size", megabytes(before))

	res, err := c.Exec.Run(ctx, proc.Spec{
		Args:        []string{c.Program, "--best", "--verbose", path},
		Passthrough: true,
	})
	if err != nil || res.ExitCode != 0 {
		log.Error("compression failed", "path", path, "exitCode", res.ExitCode, "error", err)
		return Outcome{Status: StatusFailed, Before: before}
	}

	out := Outcome{Status: StatusCompressed, Before: before, After: before}
	if st, err := os.Stat(path); err == nil {
		out.After = st.Size()
	}
	out.Ratio = Ratio(out.Before, out.After)
	log.Info(fmt.Sprintf("compressed %s: %s -> %s (ratio %.1f%%)",
		filepath.Base(path), megabytes(out.Before), megabytes(out.After), out.Ratio))

	out.Warnings = CleanupTemp(path, log)
	return out
}

// Ratio returns the size reduction in percent: (1 - after/before) * 100.
func Ratio(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return (1 - float64(after)/float64(before)) * 100
}

// TempCandidates lists the transient files the compressor may leave next to path.
func TempCandidates(path string) []string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	out := make([]string, 0, len(tempSuffixes))
	for _, s := range tempSuffixes {
		out = append(out, base+s)
	}
	return out
}

// CleanupTemp deletes each present candidate. Failures come back as warnings.
func CleanupTemp(path string, log *slog.Logger) []string {
	var warnings []string
	for _, p := range TempCandidates(path) {
		if _, err := os.Lstat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			msg := fmt.Sprintf("cleanup %s: %v", p, err)
			log.Warn("failed to remove compressor temp file", "path", p, "error", err)
			warnings = append(warnings, msg)
			continue
		}
		log.Info("removed compressor temp file", "path", p)
	}
	return warnings
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.2fMB", float64(n)/1024/1024)
}
