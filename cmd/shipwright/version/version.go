package version

import (
	"fmt"
	"os"
	"runtime"

	"github.com/flarebyte/shipwright/internal/buildinfo"
	"github.com/spf13/cobra"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagShort || !flagJSON {
			_, err := fmt.Fprintf(os.Stdout, "shipwright %s\n", buildinfo.Summary())
			return err
		}
		info := buildinfo.Info()
		out := map[string]any{
			"version":   info.Version,
			"commit":    info.Build.Commit,
			"branch":    info.Build.Branch,
			"buildTime": info.Build.Time,
			"go":        runtime.Version(),
			"go_os":     runtime.GOOS,
			"go_arch":   runtime.GOARCH,
		}
		return encodeJSON(os.Stdout, out)
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
