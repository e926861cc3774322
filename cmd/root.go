package cmd

import (
	"fmt"
	"os"

	"github.com/rnwolfe/habit/internal/config"
	"github.com/rnwolfe/habit/internal/encourage"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/logger"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/tips"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "habit",
	Short: "Track daily habits and keep your streaks alive",
	Long:  `habit is a small, local-first habit tracker. Check things off daily and watch the streaks grow.`,
	RunE:  hook.Wrap("habit", runSummary),
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		ui.SetupColor()
		return setupLogging()
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	hook.RegisterBuiltins(hook.DefaultRegistry)
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		ui.Err(err.Error())
		logger.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Mirror debug logs to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(streakCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging starts the rotating log. A broken config file is reported by
// the command itself, so logging falls back to defaults here.
func setupLogging() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	return logger.Init(logger.Config{
		Debug: cfg.Log.Debug || debugFlag,
		File:  config.GetPaths().LogFile,
	})
}

// runSummary is what plain `habit` shows: a greeting and how today is going.
func runSummary(_ *cobra.Command, _ []string) error {
	if !config.Initialized() {
		ui.Puts(ui.Greet(""))
		ui.Puts("")
		ui.Puts("  Looks like this is your first time. Let's set things up!")
		ui.Puts("")
		ui.Putsf("  Run %s to get started.", ui.Accent.Render("habit init"))
		ui.Puts("")
		return nil
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ui.Puts(ui.Greet(sess.cfg.User.Name))
	ui.Puts("")

	habits, err := sess.habits.List(sess.userID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ui.Puts(ui.Muted.Render("  No habits yet."))
		ui.Tip("`habit add \"Read 10 pages\"` to start your first one.")
		ui.Puts("")
		return nil
	}

	records, err := sess.habits.Records(sess.userID, "")
	if err != nil {
		return err
	}
	byHabit := streak.GroupByHabit(records)
	now := sess.now()

	remaining, best := 0, 0
	for _, h := range habits {
		if !streak.IsCompletedOnDate(byHabit[h.ID], now) {
			remaining++
		}
		best = max(best, streak.Calculate(byHabit[h.ID], now))
	}

	ui.Kv(ui.IconHabit+"Habits", fmt.Sprintf("%d active", len(habits)))
	ui.Kv("  📅 Today", fmt.Sprintf("%s  %d of %d done", sess.today(), len(habits)-remaining, len(habits)))
	ui.Kv("  "+ui.IconFire+" Best", ui.Streak(best))
	ui.Puts("")
	ui.Puts("  " + encourage.NextHabit(remaining))

	if remaining > 0 {
		ui.Tip("`habit today` to check things off.")
	} else {
		ui.Tip(tips.Daily(now))
	}
	ui.Puts("")
	return nil
}
