package stage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/flarebyte/shipwright/internal/compress"
	"github.com/flarebyte/shipwright/internal/config"
	"github.com/flarebyte/shipwright/internal/proc"
)

type fakeCompressor struct {
	mu    sync.Mutex
	paths []string
}

func (c *fakeCompressor) Compress(_ context.Context, path string) compress.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	return compress.Outcome{Status: compress.StatusCompressed, Before: 100, After: 60, Ratio: 40}
}

func (c *fakeCompressor) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.paths))
	for _, p := range c.paths {
		out = append(out, filepath.Base(p))
	}
	return out
}

type staticVCS struct{}

func (staticVCS) NearestTag(context.Context) (string, error)  { return "v1.2.3", nil }
func (staticVCS) ShortCommit(context.Context) (string, error) { return "abcdef1", nil }
func (staticVCS) FullCommit(context.Context) (string, error)  { return "abcdef1234567890", nil }
func (staticVCS) Branch(context.Context) (string, error)      { return "main", nil }

type recordingObserver struct {
	stages    []string
	artifacts map[string]int64
}

func (o *recordingObserver) ObserveStage(name string, _ time.Duration) {
	o.stages = append(o.stages, name)
}

func (o *recordingObserver) ObserveArtifact(name, state string, size int64) {
	if o.artifacts == nil {
		o.artifacts = map[string]int64{}
	}
	o.artifacts[name+"/"+state] = size
}

func testConfig(t *testing.T) config.Release {
	t.Helper()
	r := config.Default()
	r.BaseDir = t.TempDir()
	r.App.Name = "app"
	return r
}

func testDeps(exec proc.Executor, c Compressor) Deps {
	return Deps{
		Exec:       exec,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		VCS:        staticVCS{},
		Compressor: c,
		Host:       Platform{OS: "linux", Arch: "amd64"},
		Now:        func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) },
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// listTree returns every file below root as slash-separated relative paths.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}
