package cmd

import (
	"fmt"

	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var tokenQuiet bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token for 'habit serve'",
	Args:  cobra.NoArgs,
	RunE:  hook.Wrap("token", runToken),
}

func init() {
	tokenCmd.Flags().BoolVarP(&tokenQuiet, "quiet", "q", false, "Print only the token")
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if cfg.User.ID == "" {
		return fmt.Errorf("%w (run %s)", errNotInitialized, ui.Accent.Render("habit init"))
	}
	iss, err := issuerFor(cfg)
	if err != nil {
		return err
	}
	token, err := iss.Issue(cfg.User.ID)
	if err != nil {
		return err
	}

	if tokenQuiet {
		ui.Puts(token)
		return nil
	}
	ui.Puts("")
	ui.Puts("  " + token)
	ui.Puts("")
	ui.Puts(ui.Muted.Render(fmt.Sprintf("  valid for %s. Send it as: Authorization: Bearer <token>", iss.TTL)))
	ui.Puts("")
	return nil
}
