package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/flarebyte/shipwright/internal/proc"
)

// CLI queries the git executable through a proc.Executor.
type CLI struct {
	Exec    proc.Executor
	Dir     string
	Program string
}

func (c CLI) query(ctx context.Context, args ...string) (string, error) {
	program := c.Program
	if program == "" {
		program = "git"
	}
	res, err := c.Exec.Capture(ctx, proc.Spec{Args: append([]string{program}, args...), Dir: c.Dir})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s %s: exit code %d", program, strings.Join(args, " "), res.ExitCode)
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return "", fmt.Errorf("%s %s: empty output", program, strings.Join(args, " "))
	}
	return out, nil
}

func (c CLI) NearestTag(ctx context.Context) (string, error) {
	return c.query(ctx, "describe", "--tags", "--abbrev=0")
}

func (c CLI) ShortCommit(ctx context.Context) (string, error) {
	return c.query(ctx, "rev-parse", "--short", "HEAD")
}

func (c CLI) FullCommit(ctx context.Context) (string, error) {
	return c.query(ctx, "rev-parse", "HEAD")
}

func (c CLI) Branch(ctx context.Context) (string, error) {
	return c.query(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}
