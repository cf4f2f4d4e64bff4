package stage

import "fmt"

// Kind classifies why a stage halted the pipeline.
type Kind string

const (
	KindBuildFailed   Kind = "build-failed"
	KindNotFound      Kind = "not-found"
	KindIO            Kind = "io"
	KindToolMissing   Kind = "tool-missing"
	KindCompileFailed Kind = "compile-failed"
	KindConfig        Kind = "config"
	KindCancelled     Kind = "cancelled"
)

// Failure is the tagged reason a stage stopped the run.
type Failure struct {
	Stage string
	Kind  Kind
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Stage, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is what every stage returns. The stage succeeded iff Failure is nil.
type Result struct {
	Out     Envelope
	Failure *Failure
}

// OK reports whether the stage succeeded.
func (r Result) OK() bool { return r.Failure == nil }

// Ok wraps a successful output envelope.
func Ok(out Envelope) Result { return Result{Out: out} }

// Fail builds a failed Result.
func Fail(stage string, kind Kind, err error) Result {
	return Result{Failure: &Failure{Stage: stage, Kind: kind, Err: err}}
}

// Failf is Fail with a formatted error.
func Failf(stage string, kind Kind, format string, args ...any) Result {
	return Fail(stage, kind, fmt.Errorf(format, args...))
}
