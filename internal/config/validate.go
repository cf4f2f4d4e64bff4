package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks cross-field constraints after defaults are applied.
func (r Release) Validate() error {
	if strings.TrimSpace(r.App.Name) == "" {
		return errors.New("invalid value for app.name: must not be empty")
	}
	if strings.ContainsAny(r.App.Name, `/\`) {
		return fmt.Errorf("invalid value for app.name: %q must not contain path separators", r.App.Name)
	}
	if strings.TrimSpace(r.Frontend.Bundler) == "" {
		return errors.New("invalid value for frontend.bundler: must not be empty")
	}
	if strings.TrimSpace(r.Embed.Target) == "" {
		return errors.New("invalid value for embed.target: must not be empty")
	}
	switch r.Backend.Mode {
	case ModeSingle, ModeMatrix:
	default:
		return fmt.Errorf("invalid value for backend.mode: %q (expected %s or %s)", r.Backend.Mode, ModeSingle, ModeMatrix)
	}
	if r.Backend.Mode == ModeMatrix {
		if len(r.Backend.OS) == 0 {
			return errors.New("invalid value for backend.os: matrix mode needs at least one OS")
		}
		if len(r.Backend.Arch) == 0 {
			return errors.New("invalid value for backend.arch: matrix mode needs at least one architecture")
		}
	}
	switch r.VCS.Source {
	case "", "auto", "go-git", "git":
	default:
		return fmt.Errorf("invalid value for vcs.source: %q (expected auto, go-git or git)", r.VCS.Source)
	}
	return r.validatePaths()
}

// validatePaths guards the directories the pipeline deletes: embed.target is
// emptied and backend.outputDir is recreated on every matrix build.
func (r Release) validatePaths() error {
	sources := []namedPath{
		{"frontend.root", r.FrontendRoot()},
		{"frontend.dist", r.DistDir()},
		{"backend.root", r.BackendRoot()},
	}
	if err := r.checkClearable("embed.target", r.Embed.Target, sources); err != nil {
		return err
	}
	if Within(r.DistDir(), r.EmbedDir()) {
		return fieldError("embed.target", "must not be inside frontend.dist")
	}
	return r.checkClearable("backend.outputDir", r.Backend.OutputDir, append(sources, namedPath{"embed.target", r.EmbedDir()}))
}

func fieldError(field, msg string) error {
	return fmt.Errorf("invalid value for %s: %s", field, msg)
}
