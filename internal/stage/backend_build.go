package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flarebyte/shipwright/internal/proc"
	"github.com/flarebyte/shipwright/internal/vcs"
)

const BackendBuild = "backend-build"

func backendBuildRunner(ctx context.Context, in Envelope, deps Deps) Result {
	return BuildBackend(ctx, in.Mode, in, deps)
}

// BuildBackend compiles the backend in the given mode.
func BuildBackend(ctx context.Context, mode BuildMode, in Envelope, deps Deps) Result {
	if mode == ModeMatrix {
		return buildMatrix(ctx, in, deps)
	}
	return buildSingle(ctx, in, deps)
}

func buildSingle(ctx context.Context, in Envelope, deps Deps) Result {
	cfg := in.Config
	log := deps.logger()
	host := deps.host()
	v := ensureVersion(ctx, &in, deps)

	name := executableName(cfg.App.Name, host.OS)
	spec := proc.Spec{
		Args: []string{"go", "build", "-ldflags", vcs.LDFlags(cfg.App.VersionPackage, v), "-o", name, cfg.App.Package},
		Dir:  cfg.BackendRoot(),
	}
	log.Info("compiling backend", "target", host.String(), "output", name)
	if r := compile(ctx, deps.Exec, spec); r != nil {
		return Result{Failure: r}
	}
	path := filepath.Join(spec.Dir, name)
	st, err := os.Stat(path)
	if err != nil {
		return Fail(BackendBuild, KindIO, fmt.Errorf("compiled binary: %w", err))
	}
	a := &Artifact{Name: name, Path: path, Platform: host, Size: st.Size()}
	in.Artifacts = ArtifactSet{}
	in.Artifacts.Add(a)
	observeBuilt(deps, in.Artifacts)
	log.Info("backend compiled", "version", v.Version, "artifact", name)

	compressArtifacts(ctx, in, deps, []*Artifact{a})
	return Ok(in)
}

func buildMatrix(ctx context.Context, in Envelope, deps Deps) Result {
	cfg := in.Config
	log := deps.logger()
	tool := cfg.Backend.CrossCompiler
	if !proc.Present(ctx, deps.Exec, tool, "-h") {
		return Failf(BackendBuild, KindToolMissing, "%s is not installed (go install github.com/mitchellh/gox@v1.0.1)", tool)
	}

	out := cfg.OutputDir()
	if err := checkRemovable(out, cfg.BaseDir, cfg.BackendRoot(), cfg.FrontendRoot(), cfg.EmbedDir()); err != nil {
		return Fail(BackendBuild, KindConfig, err)
	}
	if err := os.RemoveAll(out); err != nil {
		return Fail(BackendBuild, KindIO, fmt.Errorf("clean %s: %w", out, err))
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return Fail(BackendBuild, KindIO, err)
	}

	v := ensureVersion(ctx, &in, deps)
	app := cfg.App.Name
	args := []string{
		tool,
		"-os", strings.Join(cfg.Backend.OS, " "),
		"-arch", strings.Join(cfg.Backend.Arch, " "),
		"-ldflags", vcs.LDFlags(cfg.App.VersionPackage, v),
		"-output", OutputTemplate(out, app),
	}
	if cfg.App.Package != "" && cfg.App.Package != "." {
		args = append(args, cfg.App.Package)
	}
	if r := compile(ctx, deps.Exec, proc.Spec{Args: args, Dir: cfg.BackendRoot()}); r != nil {
		return Result{Failure: r}
	}
	log.Info("cross-compilation succeeded", "version", v.Version)

	renamed, err := RenameWindows(out, app)
	for _, n := range renamed {
		log.Info("renamed windows executable", "artifact", n)
	}
	if err != nil {
		return Fail(BackendBuild, KindIO, err)
	}

	set, err := collectArtifacts(out, app)
	if err != nil {
		return Fail(BackendBuild, KindIO, err)
	}
	in.Artifacts = set
	observeBuilt(deps, set)

	selected, skipped, err := SelectHost(out, app, deps.host().OS)
	if err != nil {
		return Fail(BackendBuild, KindIO, err)
	}
	for _, s := range skipped {
		log.Info("skipping compression", "artifact", s.Name, "reason", s.Reason)
	}
	var candidates []*Artifact
	for _, name := range selected {
		for _, a := range set {
			if a.Name == name {
				candidates = append(candidates, a)
			}
		}
	}
	compressArtifacts(ctx, in, deps, candidates)
	return Ok(in)
}

func compile(ctx context.Context, exec proc.Executor, spec proc.Spec) *Failure {
	res, err := exec.Run(ctx, spec)
	if err != nil {
		if proc.IsNotFound(err) {
			return &Failure{Stage: BackendBuild, Kind: KindToolMissing, Err: err}
		}
		return &Failure{Stage: BackendBuild, Kind: KindCompileFailed, Err: err}
	}
	if res.ExitCode != 0 {
		return &Failure{Stage: BackendBuild, Kind: KindCompileFailed, Err: fmt.Errorf("%s exited with status %d", spec.Args[0], res.ExitCode)}
	}
	return nil
}

func observeBuilt(deps Deps, set ArtifactSet) {
	if deps.Metrics == nil {
		return
	}
	for _, a := range set.Sorted() {
		deps.Metrics.ObserveArtifact(a.Name, "built", a.Size)
	}
}

func init() { Register(BackendBuild, backendBuildRunner) }
