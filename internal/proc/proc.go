// Package proc runs external commands for the pipeline stages.
//
// Two output modes exist. Streamed mode reads stdout line by line and forwards
// each non-empty line to the logger as it arrives; stderr is logged once after
// the process exits. Passthrough mode wires the child directly to the terminal
// so carriage-return progress bars render untouched.
package proc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNotFound is wrapped by errors returned when the program cannot be located.
var ErrNotFound = errors.New("program not found")

const maxLineBytes = 1024 * 1024

// Spec describes one command invocation.
type Spec struct {
	// Args holds the program followed by its arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Passthrough connects stdout/stderr to the terminal instead of the logger.
	Passthrough bool
	// Shell joins Args with spaces and runs them through the platform shell.
	Shell bool
	// Env is overlaid on the current process environment.
	Env map[string]string
}

// String renders the command line for log messages.
func (s Spec) String() string { return strings.Join(s.Args, " ") }

// Result is the outcome of a command that started.
type Result struct {
	ExitCode int
	// Stdout is only set by Capture.
	Stdout string
	// Stderr is only set in streamed mode.
	Stderr string
}

// Executor runs command specs. A non-zero exit is reported in Result, not as an error.
type Executor interface {
	Run(ctx context.Context, spec Spec) (Result, error)
	Capture(ctx context.Context, spec Spec) (Result, error)
}

// Runner is the os/exec backed Executor.
type Runner struct {
	Logger *slog.Logger
	// Stdout and Stderr receive passthrough output; nil means os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner logging through logger.
func New(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Run executes spec to completion in streamed or passthrough mode.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	cmd, err := command(ctx, spec)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	if spec.Passthrough {
		return r.passthrough(cmd, spec)
	}
	return r.streamed(cmd, spec)
}

// Capture executes spec and returns its stdout verbatim. Stderr is discarded.
func (r *Runner) Capture(ctx context.Context, spec Spec) (Result, error) {
	cmd, err := command(ctx, spec)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, startError(spec, err)
	}
	code, err := exitStatus(spec, cmd.Wait())
	return Result{ExitCode: code, Stdout: out.String()}, err
}

func (r *Runner) streamed(cmd *exec.Cmd, spec Spec) (Result, error) {
	log := r.logger()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%s: %w", programName(spec), err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, startError(spec, err)
	}

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			log.Info(line)
		}
	}
	if err := sc.Err(); err != nil {
		log.Warn("stdout stream interrupted", "cmd", spec.String(), "error", err)
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	res := Result{Stderr: strings.TrimSpace(stderr.String())}
	if res.Stderr != "" {
		log.Error(res.Stderr)
	}
	res.ExitCode, err = exitStatus(spec, waitErr)
	return res, err
}

func (r *Runner) passthrough(cmd *exec.Cmd, spec Spec) (Result, error) {
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, startError(spec, err)
	}
	code, err := exitStatus(spec, cmd.Wait())
	return Result{ExitCode: code}, err
}

func (r *Runner) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func command(ctx context.Context, spec Spec) (*exec.Cmd, error) {
	if len(spec.Args) == 0 || strings.TrimSpace(spec.Args[0]) == "" {
		return nil, errors.New("empty command")
	}
	if spec.Dir != "" {
		st, err := os.Stat(spec.Dir)
		if err != nil {
			return nil, fmt.Errorf("working directory %s: %w", spec.Dir, err)
		}
		if !st.IsDir() {
			return nil, fmt.Errorf("working directory %s: not a directory", spec.Dir)
		}
	}
	program, args := spec.Args[0], spec.Args[1:]
	if spec.Shell {
		program, args = shellCommand(spec.String())
	}
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = applyEnvOverlay(os.Environ(), spec.Env)
	}
	return cmd, nil
}

func shellCommand(line string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", line}
	}
	return "sh", []string{"-c", line}
}

func programName(spec Spec) string {
	if len(spec.Args) == 0 {
		return ""
	}
	return spec.Args[0]
}

func startError(spec Spec, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", programName(spec), ErrNotFound)
	}
	return fmt.Errorf("%s: start failed: %w", programName(spec), err)
}

func exitStatus(spec Spec, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("%s: execution failed: %w", programName(spec), err)
}

// Probe reports whether the command starts and exits 0. Errors never escape.
func Probe(ctx context.Context, e Executor, args ...string) bool {
	res, err := e.Run(ctx, Spec{Args: args})
	return err == nil && res.ExitCode == 0
}

// Present reports whether the program could be started, whatever its exit
// code. Some tools only print usage and exit non-zero when probed.
func Present(ctx context.Context, e Executor, args ...string) bool {
	_, err := e.Run(ctx, Spec{Args: args})
	return err == nil
}

// IsNotFound reports whether err means the program could not be located.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func applyEnvOverlay(base []string, overlay map[string]string) []string {
	m := make(map[string]string, len(base)+len(overlay))
	order := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		k := kv[:i]
		if _, seen := m[k]; !seen {
			order = append(order, k)
		}
		m[k] = kv[i+1:]
	}
	for k, v := range overlay {
		if _, seen := m[k]; !seen {
			order = append(order, k)
		}
		m[k] = v
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+m[k])
	}
	return out
}
