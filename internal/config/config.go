// Package config loads the CUE release configuration.
//
// Every field is optional; Default describes a web/ frontend embedded into
// resource/public/html with backend compilation switched off.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "shipwright.cue"

const (
	ModeSingle = "single"
	ModeMatrix = "matrix"
)

// Release is the resolved configuration of one pipeline run.
type Release struct {
	ConfigVersion string
	// BaseDir anchors every relative path. It is the config file's directory.
	BaseDir  string
	App      App
	Frontend Frontend
	Embed    Embed
	Backend  Backend
	Compress Compress
	VCS      VCS
	Manifest Manifest
	Metrics  Metrics
	Log      Log
}

// App names the backend binary and where version variables live.
type App struct {
	Name           string
	Package        string
	VersionPackage string
}

// Frontend describes the bundler invocation and its output directory.
type Frontend struct {
	Root    string
	Bundler string
	Script  string
	Dist    string
}

// Embed is the backend's static-resource directory receiving the bundle.
type Embed struct {
	Target string
}

// Backend controls compilation. Enabled is opt-in.
type Backend struct {
	Enabled       bool
	Mode          string
	Root          string
	OutputDir     string
	CrossCompiler string
	OS            []string
	Arch          []string
}

// Compress controls the post-link compressor.
type Compress struct {
	Enabled bool
	Program string
	// Select is an optional Lua predicate narrowing which host artifacts are compressed.
	Select string
}

type VCS struct {
	Source string
}

type Manifest struct {
	Enabled bool
}

type Metrics struct {
	Textfile string
}

type Log struct {
	Level  string
	Format string
}

// Default returns the configuration used when no file is present.
func Default() Release {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Release{
		ConfigVersion: CurrentConfigVersion,
		BaseDir:       wd,
		App:           App{Name: "app", Package: ".", VersionPackage: "main"},
		Frontend:      Frontend{Root: "web", Bundler: "npm", Script: "build", Dist: "dist"},
		Embed:         Embed{Target: filepath.Join("resource", "public", "html")},
		Backend: Backend{
			Mode:          ModeSingle,
			Root:          ".",
			OutputDir:     "build",
			CrossCompiler: "gox",
			OS:            []string{"windows", "linux", "darwin"},
			Arch:          []string{"amd64"},
		},
		Compress: Compress{Enabled: true, Program: "upx"},
		VCS:      VCS{Source: "auto"},
		Manifest: Manifest{Enabled: true},
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads path and overlays its fields on Default.
func Load(path string) (Release, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Release{}, err
	}
	if err := requireStringField(v, "configVersion"); err != nil {
		return Release{}, err
	}
	r := Default()
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&r.ConfigVersion); err != nil {
		return Release{}, fmt.Errorf("invalid value for configVersion: %v", err)
	}
	if !IsSupportedConfigVersion(r.ConfigVersion) {
		return Release{}, fmt.Errorf("unsupported configVersion: %q (supported: %s)", r.ConfigVersion, SupportedConfigVersionsCSV())
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Release{}, err
	}
	r.BaseDir = filepath.Dir(abs)

	for _, parse := range []func(cue.Value, *Release) error{
		parseAppSection,
		parseFrontendSection,
		parseBackendSection,
		parseCompressSection,
		parseMiscSections,
	} {
		if err := parse(v, &r); err != nil {
			return Release{}, err
		}
	}
	if err := r.Validate(); err != nil {
		return Release{}, err
	}
	return r, nil
}

// LoadOrDefault loads path; a missing file is only tolerated when explicit is false.
func LoadOrDefault(path string, explicit bool) (Release, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) && !explicit {
		r := Default()
		return r, r.Validate()
	}
	return Load(path)
}

// Path resolves p against BaseDir unless it is absolute.
func (r Release) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.BaseDir, p)
}

// FrontendRoot is the absolute frontend source root.
func (r Release) FrontendRoot() string { return r.Path(r.Frontend.Root) }

// DistDir is the bundler's output directory.
func (r Release) DistDir() string {
	return filepath.Join(r.FrontendRoot(), r.Frontend.Dist)
}

// EmbedDir is the directory the bundle is copied into.
func (r Release) EmbedDir() string { return r.Path(r.Embed.Target) }

// BackendRoot is where the backend compiler runs.
func (r Release) BackendRoot() string { return r.Path(r.Backend.Root) }

// OutputDir receives matrix build artifacts and the build manifest.
func (r Release) OutputDir() string { return r.Path(r.Backend.OutputDir) }
