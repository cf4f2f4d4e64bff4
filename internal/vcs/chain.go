package vcs

import (
	"context"
	"fmt"

	"github.com/flarebyte/shipwright/internal/proc"
)

const (
	SourceAuto  = "auto"
	SourceGoGit = "go-git"
	SourceCLI   = "git"
)

// Chain asks each source in turn, per query, and returns the first answer.
type Chain []Source

func (c Chain) first(ask func(Source) (string, error)) (string, error) {
	err := ErrNoRepository
	for _, s := range c {
		v, e := ask(s)
		if e == nil && v != "" {
			return v, nil
		}
		if e != nil {
			err = e
		}
	}
	return "", err
}

func (c Chain) NearestTag(ctx context.Context) (string, error) {
	return c.first(func(s Source) (string, error) { return s.NearestTag(ctx) })
}

func (c Chain) ShortCommit(ctx context.Context) (string, error) {
	return c.first(func(s Source) (string, error) { return s.ShortCommit(ctx) })
}

func (c Chain) FullCommit(ctx context.Context) (string, error) {
	return c.first(func(s Source) (string, error) { return s.FullCommit(ctx) })
}

func (c Chain) Branch(ctx context.Context) (string, error) {
	return c.first(func(s Source) (string, error) { return s.Branch(ctx) })
}

// NewSource builds the source named by kind for the work tree at dir.
func NewSource(kind, dir string, exec proc.Executor) (Source, error) {
	switch kind {
	case SourceGoGit:
		return GoGit{Dir: dir}, nil
	case SourceCLI:
		return CLI{Exec: exec, Dir: dir}, nil
	case "", SourceAuto:
		return Chain{GoGit{Dir: dir}, CLI{Exec: exec, Dir: dir}}, nil
	default:
		return nil, fmt.Errorf("unknown vcs source: %q", kind)
	}
}
