package cmd

import (
	"encoding/json"

	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/rnwolfe/habit/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print habit version",
	Args:  cobra.NoArgs,
	RunE:  hook.Wrap("version", runVersion),
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build info as JSON")
}

func runVersion(_ *cobra.Command, _ []string) error {
	switch {
	case versionJSON:
		return json.NewEncoder(ui.Out).Encode(version.Get())
	case versionShort:
		ui.Puts(version.Version)
	default:
		ui.Puts("habit " + version.Full())
	}
	return nil
}
