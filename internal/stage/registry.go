package stage

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/flarebyte/shipwright/internal/compress"
	"github.com/flarebyte/shipwright/internal/proc"
	"github.com/flarebyte/shipwright/internal/vcs"
)

// Compressor shrinks one artifact in place. It never fails the pipeline.
type Compressor interface {
	Compress(ctx context.Context, path string) compress.Outcome
}

// Observer receives measurements as stages run.
type Observer interface {
	ObserveStage(name string, d time.Duration)
	ObserveArtifact(name, state string, size int64)
}

// Deps carries the collaborators shared by every stage.
type Deps struct {
	Exec       proc.Executor
	Logger     *slog.Logger
	VCS        vcs.Source
	Compressor Compressor
	Host       Platform
	Now        func() time.Time
	Metrics    Observer
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) host() Platform {
	if d.Host.OS == "" {
		return HostPlatform()
	}
	return d.Host
}

// HostPlatform is the platform this process runs on.
func HostPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Runner executes a stage.
type Runner func(ctx context.Context, in Envelope, deps Deps) Result

var registry = map[string]Runner{}

// Register adds a stage runner.
func Register(name string, r Runner) {
	registry[name] = r
}

// Run executes a registered stage by name.
func Run(ctx context.Context, name string, in Envelope, deps Deps) Result {
	r, ok := registry[name]
	if !ok {
		return Fail(name, KindConfig, ErrUnknown{name: name})
	}
	return r(ctx, in, deps)
}

// ErrUnknown is returned when a stage is not found.
type ErrUnknown struct{ name string }

func (e ErrUnknown) Error() string { return "unknown stage: " + e.name }
