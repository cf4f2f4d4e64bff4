package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeCUE(t *testing.T, body string) string {
	t.Helper()
	d := t.TempDir()
	p := filepath.Join(d, "shipwright.cue")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	return p
}

func TestLoad_MinimalUsesDefaults(t *testing.T) {
	p := writeCUE(t, "{\n  configVersion: \"1\"\n}\n")
	r, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.BaseDir != filepath.Dir(p) {
		t.Fatalf("base dir: %q", r.BaseDir)
	}
	if r.Frontend.Bundler != "npm" || r.Frontend.Script != "build" || r.Frontend.Dist != "dist" {
		t.Fatalf("frontend defaults: %+v", r.Frontend)
	}
	if r.Backend.Enabled {
		t.Fatalf("backend must be opt-in")
	}
	if r.Backend.Mode != ModeSingle {
		t.Fatalf("mode: %q", r.Backend.Mode)
	}
	if !r.Compress.Enabled || r.Compress.Program != "upx" {
		t.Fatalf("compress defaults: %+v", r.Compress)
	}
	if got := r.EmbedDir(); got != filepath.Join(r.BaseDir, "resource", "public", "html") {
		t.Fatalf("embed dir: %s", got)
	}
	if got := r.DistDir(); got != filepath.Join(r.BaseDir, "web", "dist") {
		t.Fatalf("dist dir: %s", got)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	p := writeCUE(t, `{
  configVersion: "1"
  app: { name: "aibookmark", versionPackage: "github.com/x/aibookmark/cli" }
  frontend: { root: "ui", bundler: "pnpm", script: "dist", dist: "out" }
  embed: { target: "static" }
  backend: {
    enabled: true
    mode: "matrix"
    outputDir: "bin"
    os: ["linux", "darwin"]
    arch: ["amd64", "arm64"]
  }
  compress: { enabled: false, select: "return artifact.arch == \"amd64\"" }
  vcs: { source: "git" }
  manifest: { enabled: false }
  metrics: { textfile: "metrics.prom" }
  log: { level: "debug", format: "json" }
}
`)
	r, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.App.Name != "aibookmark" || r.App.VersionPackage != "github.com/x/aibookmark/cli" {
		t.Fatalf("app: %+v", r.App)
	}
	if r.Frontend.Root != "ui" || r.Frontend.Bundler != "pnpm" || r.Frontend.Script != "dist" || r.Frontend.Dist != "out" {
		t.Fatalf("frontend: %+v", r.Frontend)
	}
	if !r.Backend.Enabled || r.Backend.Mode != ModeMatrix {
		t.Fatalf("backend: %+v", r.Backend)
	}
	if !reflect.DeepEqual(r.Backend.OS, []string{"linux", "darwin"}) {
		t.Fatalf("os: %v", r.Backend.OS)
	}
	if !reflect.DeepEqual(r.Backend.Arch, []string{"amd64", "arm64"}) {
		t.Fatalf("arch: %v", r.Backend.Arch)
	}
	if r.Backend.CrossCompiler != "gox" {
		t.Fatalf("cross compiler default lost: %q", r.Backend.CrossCompiler)
	}
	if r.Compress.Enabled || !strings.Contains(r.Compress.Select, "amd64") {
		t.Fatalf("compress: %+v", r.Compress)
	}
	if r.VCS.Source != "git" || r.Manifest.Enabled || r.Metrics.Textfile != "metrics.prom" {
		t.Fatalf("misc: %+v %+v %+v", r.VCS, r.Manifest, r.Metrics)
	}
	if r.Log.Level != "debug" || r.Log.Format != "json" {
		t.Fatalf("log: %+v", r.Log)
	}
	if r.OutputDir() != filepath.Join(r.BaseDir, "bin") {
		t.Fatalf("output dir: %s", r.OutputDir())
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing version", "{}\n", "missing required field: configVersion"},
		{"version type", "{ configVersion: 1 }\n", "invalid type for field: configVersion (expected string)"},
		{"bool type", "{ configVersion: \"1\", backend: { enabled: \"yes\" } }\n", "invalid type for field: backend.enabled (expected bool)"},
		{"list type", "{ configVersion: \"1\", backend: { os: \"linux\" } }\n", "invalid type for field: backend.os (expected list of strings)"},
		{"bad mode", "{ configVersion: \"1\", backend: { mode: \"fanout\" } }\n", "invalid value for backend.mode: \"fanout\" (expected single or matrix)"},
		{"empty matrix", "{ configVersion: \"1\", backend: { mode: \"matrix\", arch: [] } }\n", "invalid value for backend.arch: matrix mode needs at least one architecture"},
		{"bad vcs", "{ configVersion: \"1\", vcs: { source: \"svn\" } }\n", "invalid value for vcs.source: \"svn\" (expected auto, go-git or git)"},
		{"slash name", "{ configVersion: \"1\", app: { name: \"a/b\" } }\n", "invalid value for app.name: \"a/b\" must not contain path separators"},
		{"output is project", "{ configVersion: \"1\", backend: { outputDir: \".\" } }\n", "invalid value for backend.outputDir: must not be the project directory"},
		{"output empty", "{ configVersion: \"1\", backend: { outputDir: \"\" } }\n", "invalid value for backend.outputDir: must not be empty"},
		{"output outside", "{ configVersion: \"1\", backend: { outputDir: \"../elsewhere\" } }\n", "invalid value for backend.outputDir: must stay inside the project directory"},
		{"output holds frontend", "{ configVersion: \"1\", backend: { outputDir: \"web\" } }\n", "invalid value for backend.outputDir: must not contain frontend.root"},
		{"output holds embed", "{ configVersion: \"1\", backend: { outputDir: \"resource\" } }\n", "invalid value for backend.outputDir: must not contain embed.target"},
		{"embed is project", "{ configVersion: \"1\", embed: { target: \".\" } }\n", "invalid value for embed.target: must not be the project directory"},
		{"embed parent", "{ configVersion: \"1\", embed: { target: \"..\" } }\n", "invalid value for embed.target: must stay inside the project directory"},
		{"embed holds frontend", "{ configVersion: \"1\", embed: { target: \"web\" } }\n", "invalid value for embed.target: must not contain frontend.root"},
		{"embed in dist", "{ configVersion: \"1\", embed: { target: \"web/dist/html\" } }\n", "invalid value for embed.target: must not be inside frontend.dist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeCUE(t, tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tc.want {
				t.Fatalf("want %q got %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoad_RejectsNonCUE(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err == nil || err.Error() != "unsupported config format: expected .cue" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "shipwright.cue")
	r, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config: %v", err)
	}
	if r.App.Name != "app" {
		t.Fatalf("expected defaults, got %+v", r.App)
	}
	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Fatalf("explicit missing config must fail")
	}
}

func TestWithin(t *testing.T) {
	cases := []struct {
		parent, child string
		want          bool
	}{
		{"/p", "/p", true},
		{"/p", "/p/a/b", true},
		{"/p/", "/p/a/../b", true},
		{"/p", "/", false},
		{"/p", "/pa", false},
		{"/p/a", "/p", false},
		{"/p", "/p/..a", true},
	}
	for _, tc := range cases {
		if got := Within(filepath.FromSlash(tc.parent), filepath.FromSlash(tc.child)); got != tc.want {
			t.Fatalf("Within(%q, %q) = %v", tc.parent, tc.child, got)
		}
	}
}

func TestDefaultPassesPathChecks(t *testing.T) {
	r, err := LoadOrDefault(filepath.Join(t.TempDir(), "shipwright.cue"), false)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
