package stage

import (
	"context"
	"fmt"

	"github.com/flarebyte/shipwright/internal/proc"
)

const (
	FrontendBuild  = "frontend-build"
	defaultBundler = "npm"

	// Exit codes the shells use for "command not found".
	shellNotFound  = 127
	cmdExeNotFound = 9009
)

// bundlerCommand returns the shell tokens running the bundler's build script.
// The default npm bundler is a .cmd shim on Windows.
func bundlerCommand(bundler, script, hostOS string) []string {
	if bundler == "" {
		bundler = defaultBundler
	}
	if script == "" {
		script = "build"
	}
	if bundler == defaultBundler && hostOS == "windows" {
		bundler = "npm.cmd"
	}
	return []string{bundler, "run", script}
}

// frontendBuildRunner runs the bundler through the platform shell. A bundler
// missing from PATH surfaces as the shell's not-found exit status, which is
// reported as KindNotFound like a missing shell.
func frontendBuildRunner(ctx context.Context, in Envelope, deps Deps) Result {
	cfg := in.Config
	log := deps.logger()
	spec := proc.Spec{
		Args:  bundlerCommand(cfg.Frontend.Bundler, cfg.Frontend.Script, deps.host().OS),
		Dir:   cfg.FrontendRoot(),
		Shell: true,
	}
	log.Info("building frontend", "cmd", spec.String(), "dir", spec.Dir)
	res, err := deps.Exec.Run(ctx, spec)
	if err != nil {
		if proc.IsNotFound(err) {
			return Fail(FrontendBuild, KindNotFound, err)
		}
		return Fail(FrontendBuild, KindBuildFailed, err)
	}
	if res.ExitCode == shellNotFound || res.ExitCode == cmdExeNotFound {
		return Fail(FrontendBuild, KindNotFound, fmt.Errorf("%s: bundler not found (exit status %d)", spec.String(), res.ExitCode))
	}
	if res.ExitCode != 0 {
		return Fail(FrontendBuild, KindBuildFailed, fmt.Errorf("%s exited with status %d", spec.String(), res.ExitCode))
	}
	log.Info("frontend build succeeded")
	return Ok(in)
}

func init() { Register(FrontendBuild, frontendBuildRunner) }
