package diagnose

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/flarebyte/shipwright/internal/config"
	"github.com/flarebyte/shipwright/internal/logging"
	"github.com/flarebyte/shipwright/internal/proc"
	"github.com/flarebyte/shipwright/internal/stage"
	"github.com/flarebyte/shipwright/internal/vcs"
	"github.com/spf13/cobra"
)

var flagConfig string

// Cmd implements `shipwright diagnose`.
var Cmd = &cobra.Command{
	Use:           "diagnose",
	Short:         "Report external tool availability and the resolved version as JSON",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(flagConfig, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		// Probe output would otherwise end up in the log.
		exec := proc.New(logging.Discard())
		rep, err := buildReport(cmd.Context(), exec, cfg, time.Now())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rep)
	},
}

type toolReport struct {
	Name      string   `json:"name"`
	Command   []string `json:"command"`
	Available bool     `json:"available"`
	Required  bool     `json:"required"`
}

type report struct {
	Host    string          `json:"host"`
	Config  string          `json:"config"`
	Backend bool            `json:"backend"`
	Mode    string          `json:"mode"`
	Tools   []toolReport    `json:"tools"`
	Version vcs.VersionInfo `json:"version"`
}

type probe struct {
	name     string
	args     []string
	required bool
	// startOnly tools print usage and exit non-zero when probed.
	startOnly bool
}

func probesFor(cfg config.Release, host stage.Platform) []probe {
	bundler := cfg.Frontend.Bundler
	if bundler == "npm" && host.OS == "windows" {
		bundler = "npm.cmd"
	}
	matrix := cfg.Backend.Enabled && cfg.Backend.Mode == config.ModeMatrix
	return []probe{
		{name: "bundler", args: []string{bundler, "--version"}, required: true},
		{name: "go", args: []string{"go", "version"}, required: cfg.Backend.Enabled},
		{name: "cross-compiler", args: []string{cfg.Backend.CrossCompiler, "-h"}, required: matrix, startOnly: true},
		{name: "compressor", args: []string{cfg.Compress.Program, "--version"}},
		{name: "git", args: []string{"git", "--version"}},
	}
}

func buildReport(ctx context.Context, exec proc.Executor, cfg config.Release, now time.Time) (report, error) {
	host := stage.HostPlatform()
	rep := report{
		Host:    host.String(),
		Config:  cfg.BaseDir,
		Backend: cfg.Backend.Enabled,
		Mode:    cfg.Backend.Mode,
	}
	for _, p := range probesFor(cfg, host) {
		var ok bool
		if p.startOnly {
			ok = proc.Present(ctx, exec, p.args...)
		} else {
			ok = proc.Probe(ctx, exec, p.args...)
		}
		rep.Tools = append(rep.Tools, toolReport{Name: p.name, Command: p.args, Available: ok, Required: p.required})
	}
	src, err := vcs.NewSource(cfg.VCS.Source, cfg.BackendRoot(), exec)
	if err != nil {
		return report{}, err
	}
	rep.Version = vcs.Resolve(ctx, src, now)
	return rep, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	Cmd.Flags().StringVarP(&flagConfig, "config", "c", config.DefaultPath, "Path to config file (.cue)")
}
