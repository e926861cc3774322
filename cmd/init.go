package cmd

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/store"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up habit for the first time",
	Long:  `Create the config file and database. Safe to rerun: your user id and token secret are kept.`,
	Args:  cobra.NoArgs,
	RunE:  hook.Wrap("init", runInit),
}

func runInit(_ *cobra.Command, _ []string) error {
	return runInitWithReader(bufio.NewReader(os.Stdin))
}

func runInitWithReader(reader *bufio.Reader) error {
	ui.Puts(ui.Title.Render(ui.IconHabit + "Welcome to habit!"))
	ui.Puts("")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fresh := cfg.EnsureUserID()

	defaultName := cfg.User.Name
	if defaultName == "" {
		defaultName = os.Getenv("USER")
	}
	cfg.User.Name = prompt(reader, "  What should I call you?", defaultName)

	tzDefault := cfg.Habit.Timezone
	if tzDefault == "" {
		tzDefault = "Local"
	}
	for {
		tz := prompt(reader, "  Timezone for \"today\"?", tzDefault)
		entry, _ := config.LookupKey("habit.timezone")
		if err := entry.Set(cfg, tz); err != nil {
			ui.Warn(err.Error())
			if tz == tzDefault {
				return err
			}
			continue
		}
		break
	}
	ui.Puts("")

	if cfg.Server.TokenSecret == "" {
		secret, err := newTokenSecret()
		if err != nil {
			return err
		}
		cfg.Server.TokenSecret = secret
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if fresh {
		ui.Ok("All set! " + ui.Greet(cfg.User.Name))
	} else {
		ui.Ok("Settings updated.")
	}
	ui.Kv("Config", config.GetPaths().ConfigFile)
	ui.Kv("Database", db.Path())
	ui.Tip("`habit add \"Read 10 pages\"` to track your first habit.")
	ui.Puts("")
	return nil
}

// newTokenSecret returns 32 random bytes, hex encoded.
func newTokenSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(ui.Out, "%s %s ", question, ui.Muted.Render(fmt.Sprintf("(%s)", defaultVal)))
	} else {
		fmt.Fprintf(ui.Out, "%s ", question)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
