package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

// streakWindow is how many days the per-habit calendar strip shows.
const streakWindow = 14

var (
	streakJSON bool
	logLimit   int
)

var streakCmd = &cobra.Command{
	Use:   "streak [habit]",
	Short: "Show current and longest streaks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  hook.Wrap("streak", runStreak),
}

var logCmd = &cobra.Command{
	Use:   "log <habit>",
	Short: "Show a habit's completion history",
	Args:  cobra.ExactArgs(1),
	RunE:  hook.Wrap("log", runLog),
}

func init() {
	streakCmd.Flags().BoolVar(&streakJSON, "json", false, "Print streaks as JSON")
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 30, "Show at most this many days (0 for all)")
}

type streakEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
}

func runStreak(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(args) == 1 {
		return showHabitStreak(sess, args[0])
	}

	habits, err := sess.habits.List(sess.userID)
	if err != nil {
		return err
	}
	infos, err := sess.habits.Streaks(sess.userID, "", sess.now())
	if err != nil {
		return err
	}

	entries := make([]streakEntry, 0, len(habits))
	for _, h := range habits {
		info := infos[h.ID]
		entries = append(entries, streakEntry{ID: h.ID, Name: h.Name, Current: info.Current, Longest: info.Longest})
	}

	if streakJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		ui.Puts(ui.Muted.Render("  No habits yet."))
		return nil
	}

	ui.Header("Streaks")
	for _, e := range entries {
		ui.Putsf("  %-28s %s  %s", e.Name, ui.Streak(e.Current), ui.Muted.Render(fmt.Sprintf("best %d", e.Longest)))
	}
	ui.Puts("")
	return nil
}

func showHabitStreak(sess *session, ref string) error {
	h, err := sess.habits.Find(sess.userID, ref)
	if err != nil {
		return habitError(ref, err)
	}
	records, err := sess.habits.Records(sess.userID, h.ID)
	if err != nil {
		return err
	}
	now := sess.now()
	info := streak.Compute(records, now)

	if streakJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(streakEntry{ID: h.ID, Name: h.Name, Current: info.Current, Longest: info.Longest})
	}

	ui.Header(h.Name)
	ui.Kv("Current", ui.Streak(info.Current))
	ui.Kv("Longest", ui.Streak(info.Longest))
	ui.Kv("Completions", fmt.Sprintf("%d", countThrough(records, sess.today())))
	ui.Puts("")
	ui.Puts("  " + calendarStrip(sess, records))
	ui.Puts("")
	return nil
}

// calendarStrip renders the last streakWindow days, oldest first.
func calendarStrip(sess *session, records []streak.Record) string {
	today := sess.today()
	done := make(map[string]bool, len(records))
	for _, r := range records {
		done[r.Date.String()] = true
	}

	var b strings.Builder
	for i := streakWindow - 1; i >= 0; i-- {
		if done[today.AddDays(-i).String()] {
			b.WriteString(ui.Success.Render("■"))
		} else {
			b.WriteString(ui.Muted.Render("□"))
		}
	}
	b.WriteString(ui.Muted.Render(fmt.Sprintf("  last %d days", streakWindow)))
	return b.String()
}

func runLog(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	h, err := sess.habits.Find(sess.userID, args[0])
	if err != nil {
		return habitError(args[0], err)
	}
	history, err := sess.habits.History(sess.userID, h.ID)
	if err != nil {
		return err
	}

	ui.Header(h.Name + " history")
	if len(history) == 0 {
		ui.Puts(ui.Muted.Render("  Never completed."))
		return nil
	}
	shown := history
	if logLimit > 0 && len(shown) > logLimit {
		shown = shown[:logLimit]
	}
	for _, c := range shown {
		ui.Putsf("  %s %s", ui.IconDone, c.Date)
	}
	if len(shown) < len(history) {
		ui.Puts(ui.Muted.Render(fmt.Sprintf("  … and %d more", len(history)-len(shown))))
	}
	ui.Puts("")
	return nil
}

// countThrough counts records dated on or before last.
func countThrough(records []streak.Record, last daykey.Key) int {
	n := 0
	for _, r := range records {
		if !r.Date.After(last) {
			n++
		}
	}
	return n
}
