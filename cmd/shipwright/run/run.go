package run

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/flarebyte/shipwright/internal/config"
	"github.com/flarebyte/shipwright/internal/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	cfgPath      string
	backend      bool
	mode         string
	skipFrontend bool
}

// NewCmd builds the `shipwright run` command. Each call has its own flag values.
func NewCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "run",
		Short:         "Build the frontend, replace the embedded assets and optionally compile the backend",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runPipeline(ctx, cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.cfgPath, "config", "c", config.DefaultPath, "Path to config file (.cue)")
	cmd.Flags().BoolVar(&o.backend, "backend", false, "Compile the backend after embedding the frontend")
	cmd.Flags().StringVar(&o.mode, "mode", "", "Backend build mode: single or matrix (overrides backend.mode)")
	cmd.Flags().BoolVar(&o.skipFrontend, "skip-frontend", false, "Skip the frontend build and asset replacement")
	return cmd
}

func runPipeline(ctx context.Context, cmd *cobra.Command, o options) error {
	cfg, err := config.LoadOrDefault(o.cfgPath, cmd.Flags().Changed("config"))
	if err != nil {
		return runExitError{code: exitCodeFailure, msg: err.Error()}
	}
	if err := applyFlags(cmd, &cfg, o); err != nil {
		return runExitError{code: exitCodeFailure, msg: err.Error()}
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return runExitError{code: exitCodeFailure, msg: err.Error()}
	}
	slog.SetDefault(logger)

	runID := uuid.NewString()
	p, err := prepare(cfg, o.skipFrontend)
	if err != nil {
		return runExitError{code: exitCodeFailure, msg: err.Error()}
	}
	return evaluateRunExit(executePipeline(ctx, runID, cfg, p, logger.With("run", runID)))
}

// applyFlags overlays command-line switches on the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Release, o options) error {
	if o.backend {
		cfg.Backend.Enabled = true
	}
	if cmd.Flags().Changed("mode") {
		cfg.Backend.Mode = o.mode
	}
	return cfg.Validate()
}

// newLogger honours --log-level/--log-format when given, else the config's log section.
func newLogger(cmd *cobra.Command, cfg config.Release) (*slog.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if f := cmd.Flag(logging.FlagLevel); f != nil && f.Changed {
		level = f.Value.String()
	}
	if f := cmd.Flag(logging.FlagFormat); f != nil && f.Changed {
		format = f.Value.String()
	}
	return logging.New(cmd.ErrOrStderr(), level, format)
}
