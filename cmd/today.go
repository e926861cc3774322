package cmd

import (
	"fmt"

	"github.com/rnwolfe/habit/internal/encourage"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/logger"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/tui"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var todayPlain bool

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Check off today's habits",
	Long:  `Open an interactive checklist for today. When output is not a terminal, print the list instead.`,
	Args:  cobra.NoArgs,
	RunE:  hook.Wrap("today", runToday),
}

func init() {
	todayCmd.Flags().BoolVar(&todayPlain, "plain", false, "Print the list instead of opening the checklist")
}

func runToday(_ *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	habits, err := sess.habits.List(sess.userID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ui.Puts(ui.Muted.Render("  Nothing to do: no habits yet."))
		ui.Tip("`habit add <name>` to start one.")
		return nil
	}
	records, err := sess.habits.Records(sess.userID, "")
	if err != nil {
		return err
	}
	byHabit := streak.GroupByHabit(records)

	items := make([]tui.TodayItem, len(habits))
	for i, h := range habits {
		items[i] = tui.TodayItem{ID: h.ID, Name: h.Name, Records: byHabit[h.ID]}
	}

	if todayPlain || !ui.IsStdoutTTY() || !ui.IsStdinTTY() {
		printToday(sess, items)
		return nil
	}

	actions, err := tui.RunToday(items, sess.now(), encourager)
	if err != nil {
		return err
	}
	return applyTodayActions(sess, actions)
}

// applyTodayActions persists the checklist toggles in order.
func applyTodayActions(sess *session, actions []tui.TodayAction) error {
	today := sess.today()
	done, undone := 0, 0
	for _, a := range actions {
		if a.Done {
			if _, _, err := sess.habits.Complete(sess.userID, a.HabitID, today); err != nil {
				return fmt.Errorf("saving completion: %w", err)
			}
			done++
			continue
		}
		if _, err := sess.habits.Uncomplete(sess.userID, a.HabitID, today); err != nil {
			return fmt.Errorf("clearing completion: %w", err)
		}
		undone++
	}
	logger.Debug("today checklist applied", "done", done, "undone", undone)

	if len(actions) > 0 {
		remaining, err := remainingToday(sess)
		if err != nil {
			return err
		}
		ui.Ok(encourage.NextHabit(remaining))
	}
	return nil
}

func printToday(sess *session, items []tui.TodayItem) {
	now := sess.now()
	remaining := 0

	ui.Header(fmt.Sprintf("Today, %s", sess.today()))
	for _, it := range items {
		mark := ui.IconTodo
		if streak.IsCompletedOnDate(it.Records, now) {
			mark = ui.IconDone
		} else {
			remaining++
		}
		ui.Putsf("  %s %-28s %s", mark, it.Name, ui.Streak(streak.Calculate(it.Records, now)))
	}
	ui.Puts("")
	ui.Puts("  " + encourage.NextHabit(remaining))
}
