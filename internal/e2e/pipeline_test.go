package e2e

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/flarebyte/shipwright/cmd/shipwright/root"
	"github.com/flarebyte/shipwright/internal/testutil"
)

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("e2e tests require POSIX shell")
	}
}

// writeProject lays out a frontend with a fake bundler and a config pointing at it.
func writeProject(t *testing.T, bundlerBody string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	bundler := filepath.Join(dir, "bin", "fakebundler")
	if err := testutil.WriteScript(bundler, bundlerBody); err != nil {
		t.Fatalf("write bundler: %v", err)
	}
	if err := testutil.WriteTree(dir, map[string]string{
		"web/package.json":                 "{}",
		"resource/public/html/unrelated.txt": "stale",
	}); err != nil {
		t.Fatalf("write tree: %v", err)
	}
	cfgPath = filepath.Join(dir, "shipwright.cue")
	cfg := fmt.Sprintf("{\n  configVersion: \"1\"\n  frontend: { bundler: %q }\n}\n", bundler)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs bytes.Buffer
	cmd := root.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&logs)
	cmd.SetErr(&logs)
	err := cmd.Execute()
	return logs.String(), err
}

func TestRun_BuildsAndReplacesEmbeddedAssets(t *testing.T) {
	requirePOSIXShell(t)
	dir, cfg := writeProject(t, `echo "bundling $2"
mkdir -p dist/assets
echo '<html></html>' > dist/index.html
echo 'console.log(1)' > dist/assets/app.js
`)
	logs, err := execute(t, "run", "--config", cfg)
	if err != nil {
		t.Fatalf("run: %v\nlogs:\n%s", err, logs)
	}
	got, err := testutil.ListFiles(filepath.Join(dir, "resource", "public", "html"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"assets/app.js", "index.html"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("embedded files: %v", got)
	}
	if !strings.Contains(logs, "bundling build") {
		t.Fatalf("bundler output not streamed to the log:\n%s", logs)
	}
	if !strings.Contains(logs, "pipeline succeeded") {
		t.Fatalf("missing success line:\n%s", logs)
	}
	if _, err := os.Stat(filepath.Join(dir, "build")); !os.IsNotExist(err) {
		t.Fatalf("backend build is opt-in, build/ must not exist: %v", err)
	}
}

func TestRun_BundlerFailureHalts(t *testing.T) {
	requirePOSIXShell(t)
	dir, cfg := writeProject(t, "echo 'syntax error' >&2\nexit 3\n")
	logs, err := execute(t, "run", "--config", cfg, "--log-format", "json")
	if err == nil {
		t.Fatalf("expected failure\nlogs:\n%s", logs)
	}
	if !strings.HasPrefix(err.Error(), "frontend-build: build-failed:") {
		t.Fatalf("unexpected error: %v", err)
	}
	ec, ok := err.(interface{ ExitCode() int })
	if !ok || ec.ExitCode() != 1 {
		t.Fatalf("expected exit code 1")
	}
	if !strings.Contains(logs, `"msg":"syntax error"`) {
		t.Fatalf("stderr not logged at error level:\n%s", logs)
	}
	got, _ := testutil.ListFiles(filepath.Join(dir, "resource", "public", "html"))
	if !reflect.DeepEqual(got, []string{"unrelated.txt"}) {
		t.Fatalf("assets must be untouched after a failed build: %v", got)
	}
}

func TestRun_MissingDistIsNotFound(t *testing.T) {
	requirePOSIXShell(t)
	_, cfg := writeProject(t, "echo done\n")
	_, err := execute(t, "run", "--config", cfg)
	if err == nil || !strings.HasPrefix(err.Error(), "replace-assets: not-found:") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_ExplicitMissingConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "nope.cue"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Fatalf("unexpected error: %v", err)
	}
}
