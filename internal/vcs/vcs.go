// Package vcs derives the release version and build metadata from
// version-control state. Every lookup degrades to a sentinel instead of failing.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DevVersion is used when no VCS metadata is reachable at all.
	DevVersion = "0.0.0-dev"
	// Unknown replaces any BuildInfo field whose lookup failed.
	Unknown = "unknown"
	// TimeLayout formats BuildInfo.Time.
	TimeLayout = "2006-01-02 15:04:05"

	untaggedPrefix = "0.0.0-"
	shortHashLen   = 7
)

var (
	ErrNoRepository = errors.New("no repository")
	ErrNoTag        = errors.New("no reachable tag")
	ErrNoHead       = errors.New("no HEAD commit")
)

// Source answers the four read-only VCS queries.
type Source interface {
	NearestTag(ctx context.Context) (string, error)
	ShortCommit(ctx context.Context) (string, error)
	FullCommit(ctx context.Context) (string, error)
	Branch(ctx context.Context) (string, error)
}

// BuildInfo is the metadata injected next to the version string.
type BuildInfo struct {
	Commit string `json:"commit" yaml:"commit"`
	Branch string `json:"branch" yaml:"branch"`
	Time   string `json:"buildTime" yaml:"buildTime"`
}

// VersionInfo is computed once per pipeline run and read-only afterwards.
type VersionInfo struct {
	Version string    `json:"version" yaml:"version"`
	Build   BuildInfo `json:"build" yaml:"build"`
}

// Resolve returns the version and build info for src at time now.
func Resolve(ctx context.Context, src Source, now time.Time) VersionInfo {
	return VersionInfo{
		Version: ResolveVersion(ctx, src),
		Build:   ResolveBuildInfo(ctx, src, now),
	}
}

// ResolveVersion applies the fallback chain: tag, 0.0.0-<short commit>, 0.0.0-dev.
func ResolveVersion(ctx context.Context, src Source) string {
	if src == nil {
		return DevVersion
	}
	if tag, err := src.NearestTag(ctx); err == nil && tag != "" {
		return tag
	}
	if short, err := src.ShortCommit(ctx); err == nil && short != "" {
		return untaggedPrefix + short
	}
	return DevVersion
}

// ResolveBuildInfo resolves each field independently.
func ResolveBuildInfo(ctx context.Context, src Source, now time.Time) BuildInfo {
	info := BuildInfo{Commit: Unknown, Branch: Unknown, Time: now.Local().Format(TimeLayout)}
	if src == nil {
		return info
	}
	if c, err := src.FullCommit(ctx); err == nil && c != "" {
		info.Commit = c
	}
	if b, err := src.Branch(ctx); err == nil && b != "" {
		info.Branch = b
	}
	return info
}

// LDFlags renders the linker assignments embedding info into package pkg.
func LDFlags(pkg string, info VersionInfo) string {
	if pkg == "" {
		pkg = "main"
	}
	vars := []struct{ name, value string }{
		{"Version", info.Version},
		{"BuildTime", info.Build.Time},
		{"GitCommit", info.Build.Commit},
		{"GitBranch", info.Build.Branch},
	}
	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		parts = append(parts, fmt.Sprintf("-X '%s.%s=%s'", pkg, v.name, v.value))
	}
	return strings.Join(parts, " ")
}

func shorten(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}
