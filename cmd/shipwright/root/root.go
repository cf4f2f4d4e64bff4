package root

import (
	"log/slog"

	"github.com/flarebyte/shipwright/cmd/shipwright/diagnose"
	"github.com/flarebyte/shipwright/cmd/shipwright/run"
	"github.com/flarebyte/shipwright/cmd/shipwright/version"
	"github.com/flarebyte/shipwright/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for shipwright.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipwright",
		Short: "Build the web frontend, embed it into the Go backend and ship versioned binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString(logging.FlagLevel)
			format, _ := cmd.Flags().GetString(logging.FlagFormat)
			logger, err := logging.New(cmd.ErrOrStderr(), level, format)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String(logging.FlagLevel, "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String(logging.FlagFormat, logging.FormatText, "Log format: text or json")

	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(run.NewCmd())
	cmd.AddCommand(diagnose.Cmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
