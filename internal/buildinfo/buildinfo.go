// Package buildinfo exposes the version metadata linked into shipwright itself.
package buildinfo

import (
	"strings"

	"github.com/flarebyte/shipwright/cli"
	"github.com/flarebyte/shipwright/internal/vcs"
)

// Info returns the linked metadata, with "dev" and "unknown" standing in for
// values that were not injected.
func Info() vcs.VersionInfo {
	info := vcs.VersionInfo{
		Version: orDefault(cli.Version, "dev"),
		Build: vcs.BuildInfo{
			Commit: orDefault(cli.GitCommit, vcs.Unknown),
			Branch: orDefault(cli.GitBranch, vcs.Unknown),
			Time:   orDefault(cli.BuildTime, vcs.Unknown),
		},
	}
	return info
}

// Summary returns a concise single-line version string.
func Summary() string {
	v := orDefault(cli.Version, "dev")
	parts := make([]string, 0, 2)
	if c := cli.GitCommit; c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if cli.BuildTime != "" {
		parts = append(parts, "date="+cli.BuildTime)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
