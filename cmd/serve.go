package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rnwolfe/habit/internal/auth"
	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/logger"
	"github.com/rnwolfe/habit/internal/server"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Long: `Serve habits, completions and streaks over HTTP.

Requests need a bearer token from 'habit token'. Settings come from the
[server] config section, overridden by HABIT_ADDR, HABIT_TOKEN_SECRET and
HABIT_TOKEN_TTL.`,
	Args: cobra.NoArgs,
	RunE: hook.Wrap("serve", runServe),
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
}

// issuerFor builds the token issuer from config.
func issuerFor(cfg *config.Config) (auth.Issuer, error) {
	if cfg.Server.TokenSecret == "" {
		return auth.Issuer{}, fmt.Errorf("no token secret configured (run %s or set HABIT_TOKEN_SECRET)",
			ui.Accent.Render("habit init"))
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return auth.Issuer{}, err
	}
	iss := auth.Issuer{Secret: []byte(cfg.Server.TokenSecret), TTL: ttl, Now: nowFunc}
	if len(iss.Secret) < auth.MinSecretLength {
		return auth.Issuer{}, fmt.Errorf("%w: server.token_secret needs at least %d characters",
			auth.ErrWeakSecret, auth.MinSecretLength)
	}
	return iss, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	iss, err := issuerFor(sess.cfg)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Options{
		Habits:   sess.habits,
		Verifier: iss,
		Location: sess.loc,
		Now:      nowFunc,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = sess.cfg.Server.Addr
	}
	if addr == "" {
		addr = config.DefaultAddr
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.Ok(fmt.Sprintf("Serving on http://%s", addr))
	ui.Puts(ui.Muted.Render("  Ctrl+C to stop."))
	logger.Info("server starting", "addr", addr, "db", sess.db.Path())

	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
