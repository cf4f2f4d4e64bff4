// Package proctest provides a scripted proc.Executor for stage tests.
package proctest

import (
	"context"
	"sync"

	"github.com/flarebyte/shipwright/internal/proc"
)

// Handler decides the outcome of one invocation.
type Handler func(spec proc.Spec) (proc.Result, error)

// Fake records every spec it receives and answers through Handler.
// A nil Handler makes every command succeed with exit code 0.
type Fake struct {
	Handler Handler

	mu    sync.Mutex
	calls []proc.Spec
}

func (f *Fake) Run(_ context.Context, spec proc.Spec) (proc.Result, error) {
	return f.answer(spec)
}

func (f *Fake) Capture(_ context.Context, spec proc.Spec) (proc.Result, error) {
	return f.answer(spec)
}

func (f *Fake) answer(spec proc.Spec) (proc.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	h := f.Handler
	f.mu.Unlock()
	if h == nil {
		return proc.Result{}, nil
	}
	return h(spec)
}

// Calls returns a copy of the recorded specs in invocation order.
func (f *Fake) Calls() []proc.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]proc.Spec(nil), f.calls...)
}

// Programs returns the first token of every recorded spec.
func (f *Fake) Programs() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		if len(c.Args) > 0 {
			out = append(out, c.Args[0])
		}
	}
	return out
}

// NotFound returns the error a real runner produces for a missing program.
func NotFound(program string) error {
	return &notFoundError{program: program}
}

type notFoundError struct{ program string }

func (e *notFoundError) Error() string { return e.program + ": " + proc.ErrNotFound.Error() }
func (e *notFoundError) Unwrap() error { return proc.ErrNotFound }
