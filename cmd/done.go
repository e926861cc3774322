package cmd

import (
	"errors"
	"fmt"

	"github.com/rnwolfe/habit/internal/encourage"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var (
	doneDate string
	undoDate string

	// encourager is shared so tests can seed it.
	encourager = encourage.New(nil)
)

var doneCmd = &cobra.Command{
	Use:   "done [habit]",
	Short: "Mark a habit done for today (or --date)",
	Long: `Record a completion. Without a habit argument, an interactive picker opens.

Examples:
  habit done Read
  habit done read --date yesterday
  habit done 3f2a --date 2026-02-24`,
	Args: cobra.MaximumNArgs(1),
	RunE: hook.Wrap("done", runDone),
}

var undoCmd = &cobra.Command{
	Use:   "undo [habit]",
	Short: "Remove today's (or --date's) completion",
	Args:  cobra.MaximumNArgs(1),
	RunE:  hook.Wrap("undo", runUndo),
}

func init() {
	doneCmd.Flags().StringVarP(&doneDate, "date", "d", "", "Day to mark (YYYY-MM-DD, today, yesterday)")
	undoCmd.Flags().StringVarP(&undoDate, "date", "d", "", "Day to clear (YYYY-MM-DD, today, yesterday)")
}

func runDone(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	day, err := sess.day(doneDate)
	if err != nil {
		return err
	}
	h, err := resolveHabit(sess, args)
	if errors.Is(err, errCanceled) {
		return nil
	}
	if err != nil {
		return err
	}

	_, existed, err := sess.habits.Complete(sess.userID, h.ID, day)
	if err != nil {
		return err
	}
	if existed {
		ui.Inf(fmt.Sprintf("%s was already done on %s", h.Name, day))
		return nil
	}

	records, err := sess.habits.Records(sess.userID, h.ID)
	if err != nil {
		return err
	}
	now := sess.now()
	current := streak.Calculate(records, now)

	ui.Ok(fmt.Sprintf("%s done for %s  %s", ui.Accent.Render(h.Name), day, ui.Streak(current)))

	if day.Equal(sess.today()) {
		remaining, err := remainingToday(sess)
		if err != nil {
			return err
		}
		ui.Puts("  " + encourager.Message(current) + " " + encourage.NextHabit(remaining))
	}

	if msg, ok := encourage.Milestone(current); ok {
		hook.SetResult(cmd, hook.Milestone{Habit: h.Name, Streak: current, Message: msg})
	}
	return nil
}

func runUndo(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	day, err := sess.day(undoDate)
	if err != nil {
		return err
	}
	h, err := resolveHabit(sess, args)
	if errors.Is(err, errCanceled) {
		return nil
	}
	if err != nil {
		return err
	}

	removed, err := sess.habits.Uncomplete(sess.userID, h.ID, day)
	if err != nil {
		return err
	}
	if !removed {
		ui.Inf(fmt.Sprintf("%s wasn't marked done on %s", h.Name, day))
		return nil
	}

	records, err := sess.habits.Records(sess.userID, h.ID)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Cleared %s on %s  %s", h.Name, day, ui.Streak(streak.Calculate(records, sess.now()))))
	return nil
}

// remainingToday counts active habits with no completion today.
func remainingToday(sess *session) (int, error) {
	habits, err := sess.habits.List(sess.userID)
	if err != nil {
		return 0, err
	}
	done, err := sess.habits.CompletionsOn(sess.userID, sess.today(), "")
	if err != nil {
		return 0, err
	}
	finished := make(map[string]bool, len(done))
	for _, c := range done {
		finished[c.HabitID] = true
	}
	n := 0
	for _, h := range habits {
		if !finished[h.ID] {
			n++
		}
	}
	return n, nil
}
