package proc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests require POSIX shell")
	}
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func TestRun_StreamedLogsLinesAndStderr(t *testing.T) {
	requirePOSIXShell(t)
	var logs bytes.Buffer
	r := New(newTestLogger(&logs))
	res, err := r.Run(context.Background(), Spec{
		Args:  []string{`printf 'first\n\n  second  \n'; printf 'oops' >&2; exit 3`},
		Shell: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("exit code: got %d want 3", res.ExitCode)
	}
	if res.Stderr != "oops" {
		t.Fatalf("stderr: %q", res.Stderr)
	}
	want := "level=INFO msg=first\nlevel=INFO msg=second\nlevel=ERROR msg=oops\n"
	if logs.String() != want {
		t.Fatalf("unexpected logs\nwant:\n%s\ngot:\n%s", want, logs.String())
	}
}

// signalHandler closes seen the first time a record with msg is handled.
type signalHandler struct {
	msg  string
	once sync.Once
	seen chan struct{}
}

func (h *signalHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *signalHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *signalHandler) WithGroup(string) slog.Handler { return h }

func (h *signalHandler) Handle(_ context.Context, rec slog.Record) error {
	if rec.Message == h.msg {
		h.once.Do(func() { close(h.seen) })
	}
	return nil
}

func TestRun_StreamedLogsBeforeExit(t *testing.T) {
	requirePOSIXShell(t)
	release := filepath.Join(t.TempDir(), "release")
	h := &signalHandler{msg: "first", seen: make(chan struct{})}
	r := New(slog.New(h))

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.Run(context.Background(), Spec{
			Args:  []string{"echo first; while [ ! -f '" + release + "' ]; do sleep 0.05; done; echo second"},
			Shell: true,
		})
		done <- outcome{res, err}
	}()

	select {
	case <-h.seen:
	case <-time.After(5 * time.Second):
		_ = os.WriteFile(release, nil, 0o644)
		<-done
		t.Fatalf("first line was not logged while the child was running")
	}
	if err := os.WriteFile(release, nil, 0o644); err != nil {
		t.Fatalf("release: %v", err)
	}
	out := <-done
	if out.err != nil || out.res.ExitCode != 0 {
		t.Fatalf("run: %+v %v", out.res, out.err)
	}
}

func TestRun_PassthroughBypassesLogger(t *testing.T) {
	requirePOSIXShell(t)
	var logs, out, errOut bytes.Buffer
	r := &Runner{Logger: newTestLogger(&logs), Stdout: &out, Stderr: &errOut}
	res, err := r.Run(context.Background(), Spec{
		Args:        []string{"sh", "-c", "printf '10%%\\r20%%\\r'; printf 'warn' >&2"},
		Passthrough: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 || res.Stderr != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if out.String() != "10%\r20%\r" {
		t.Fatalf("stdout not passed through verbatim: %q", out.String())
	}
	if errOut.String() != "warn" {
		t.Fatalf("stderr not passed through: %q", errOut.String())
	}
	if logs.Len() != 0 {
		t.Fatalf("logger should be bypassed, got: %s", logs.String())
	}
}

func TestRun_MissingProgramIsNotFound(t *testing.T) {
	r := New(slog.Default())
	res, err := r.Run(context.Background(), Spec{Args: []string{"this-program-does-not-exist-xyz", "--version"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrNotFound) || !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if res.ExitCode != -1 {
		t.Fatalf("unexpected exit code: %d", res.ExitCode)
	}
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	requirePOSIXShell(t)
	r := New(slog.Default())
	res, err := r.Run(context.Background(), Spec{Args: []string{"sh", "-c", "exit 7"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 7 {
		t.Fatalf("exit code: %d", res.ExitCode)
	}
}

func TestRun_MissingWorkingDirIsNotNotFound(t *testing.T) {
	requirePOSIXShell(t)
	r := New(slog.Default())
	_, err := r.Run(context.Background(), Spec{Args: []string{"true"}, Dir: t.TempDir() + "/missing"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsNotFound(err) {
		t.Fatalf("missing directory must not look like a missing program: %v", err)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	if _, err := New(nil).Run(context.Background(), Spec{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCapture_ReturnsStdoutWithEnvOverlay(t *testing.T) {
	requirePOSIXShell(t)
	r := New(slog.Default())
	res, err := r.Capture(context.Background(), Spec{
		Args: []string{"sh", "-c", `printf '%s' "$SHIPWRIGHT_TEST"; printf 'noise' >&2`},
		Env:  map[string]string{"SHIPWRIGHT_TEST": "value"},
		Dir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if res.Stdout != "value" || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProbe(t *testing.T) {
	requirePOSIXShell(t)
	r := New(slog.Default())
	if Probe(context.Background(), r, "this-program-does-not-exist-xyz", "-h") {
		t.Fatalf("probe should be false for a missing program")
	}
	if Probe(context.Background(), r, "sh", "-c", "exit 1") {
		t.Fatalf("probe should be false for a non-zero exit")
	}
	if !Probe(context.Background(), r, "sh", "-c", "exit 0") {
		t.Fatalf("probe should be true for exit 0")
	}
}

func TestPresent(t *testing.T) {
	requirePOSIXShell(t)
	var buf bytes.Buffer
	r := New(newTestLogger(&buf))
	if Present(context.Background(), r, "this-program-does-not-exist-xyz", "-h") {
		t.Fatalf("missing program must not be present")
	}
	if !Present(context.Background(), r, "sh", "-c", "exit 2") {
		t.Fatalf("a program exiting non-zero is still present")
	}
}

func TestApplyEnvOverlay_OverridesExisting(t *testing.T) {
	got := applyEnvOverlay([]string{"A=1", "B=2", "broken"}, map[string]string{"B": "3", "C": "4"})
	joined := strings.Join(got, ",")
	if !strings.HasPrefix(joined, "A=1,B=3,") || !strings.Contains(joined, "C=4") || len(got) != 3 {
		t.Fatalf("unexpected env: %v", got)
	}
}
