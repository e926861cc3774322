package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rnwolfe/habit/internal/habit"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/tui"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
)

var (
	listAll  bool
	listJSON bool
	rmForce  bool
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Start tracking a new habit",
	Args:  cobra.ExactArgs(1),
	RunE:  hook.Wrap("add", runAdd),
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your habits with today's status",
	Args:    cobra.NoArgs,
	RunE:    hook.Wrap("list", runList),
}

var renameCmd = &cobra.Command{
	Use:   "rename <habit> <new-name>",
	Short: "Rename a habit",
	Args:  cobra.ExactArgs(2),
	RunE:  hook.Wrap("rename", runRename),
}

var rmCmd = &cobra.Command{
	Use:   "rm <habit>",
	Short: "Delete a habit and its whole history",
	Long:  `Delete a habit permanently, including every completion. Use 'habit archive' to hide it instead.`,
	Args:  cobra.ExactArgs(1),
	RunE:  hook.Wrap("rm", runRm),
}

var archiveCmd = &cobra.Command{
	Use:   "archive <habit>",
	Short: "Hide a habit without losing its history",
	Args:  cobra.ExactArgs(1),
	RunE:  hook.Wrap("archive", runArchive),
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <habit>",
	Short: "Bring an archived habit back",
	Args:  cobra.ExactArgs(1),
	RunE:  hook.Wrap("unarchive", runUnarchive),
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include archived habits")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print habits as JSON")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Delete even if the habit has completions")
}

func runAdd(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	h, err := sess.habits.Add(sess.userID, args[0])
	if err != nil {
		return err
	}

	ui.Ok(fmt.Sprintf("Tracking %s", ui.Accent.Render(h.Name)))
	ui.Puts(ui.Muted.Render("  id " + shortID(h.ID)))
	ui.Tip(fmt.Sprintf("`habit done %q` when you've done it today.", h.Name))
	return nil
}

// listEntry is the --json shape of one habit.
type listEntry struct {
	habit.Habit
	DoneToday bool `json:"done_today"`
	Current   int  `json:"current_streak"`
	Longest   int  `json:"longest_streak"`
}

func runList(_ *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	list := sess.habits.List
	if listAll {
		list = sess.habits.ListAll
	}
	habits, err := list(sess.userID)
	if err != nil {
		return err
	}
	records, err := sess.habits.Records(sess.userID, "")
	if err != nil {
		return err
	}
	byHabit := streak.GroupByHabit(records)
	now := sess.now()

	entries := make([]listEntry, 0, len(habits))
	for _, h := range habits {
		info := streak.Compute(byHabit[h.ID], now)
		entries = append(entries, listEntry{
			Habit:     h,
			DoneToday: streak.IsCompletedOnDate(byHabit[h.ID], now),
			Current:   info.Current,
			Longest:   info.Longest,
		})
	}

	if listJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		ui.Puts("")
		ui.Puts(ui.Muted.Render("  No habits yet."))
		ui.Tip("`habit add \"Drink water\"` to start one.")
		ui.Puts("")
		return nil
	}

	ui.Header(fmt.Sprintf("Habits for %s", sess.today()))
	for _, e := range entries {
		mark := ui.IconTodo
		if e.DoneToday {
			mark = ui.IconDone
		}
		name := e.Name
		if e.Archived() {
			name = ui.Muted.Render(name + " (archived)")
		}
		ui.Putsf("  %s %-28s %s  %s", mark, name, ui.Streak(e.Current), ui.Muted.Render(shortID(e.ID)))
	}
	ui.Puts("")
	return nil
}

func runRename(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	h, err := sess.habits.Find(sess.userID, args[0])
	if err != nil {
		return habitError(args[0], err)
	}
	old := h.Name
	h, err = sess.habits.Rename(sess.userID, h.ID, args[1])
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("%s %s %s", old, ui.IconArrow, ui.Accent.Render(h.Name)))
	return nil
}

func runRm(_ *cobra.Command, args []string) error {
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
	if len(history) > 0 && !rmForce {
		return fmt.Errorf("%s has %d completion(s); rerun with --force to delete them, or %s",
			h.Name, len(history), ui.Accent.Render("habit archive "+shortID(h.ID)))
	}

	if err := sess.habits.Delete(sess.userID, h.ID); err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Deleted %s", h.Name))
	return nil
}

func runArchive(_ *cobra.Command, args []string) error {
	return setArchived(args[0], true)
}

func runUnarchive(_ *cobra.Command, args []string) error {
	return setArchived(args[0], false)
}

func setArchived(ref string, archived bool) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	h, err := sess.habits.Find(sess.userID, ref)
	if err != nil {
		return habitError(ref, err)
	}
	if archived {
		err = sess.habits.Archive(sess.userID, h.ID)
	} else {
		err = sess.habits.Unarchive(sess.userID, h.ID)
	}
	if err != nil {
		return err
	}

	if archived {
		ui.Ok(fmt.Sprintf("Archived %s. Its history is kept.", h.Name))
	} else {
		ui.Ok(fmt.Sprintf("%s is back on the list", h.Name))
	}
	return nil
}

// resolveHabit finds the habit a command refers to. With no argument and an
// interactive terminal it opens a picker over the active habits.
func resolveHabit(sess *session, args []string) (*habit.Habit, error) {
	if len(args) > 0 {
		h, err := sess.habits.Find(sess.userID, args[0])
		if err != nil {
			return nil, habitError(args[0], err)
		}
		return h, nil
	}

	if !ui.IsStdinTTY() || !ui.IsStdoutTTY() {
		return nil, errors.New("which habit? pass a name or id")
	}
	habits, err := sess.habits.List(sess.userID)
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, fmt.Errorf("no habits yet (run %s)", ui.Accent.Render("habit add <name>"))
	}
	choices := make([]tui.Choice, len(habits))
	for i, h := range habits {
		choices[i] = tui.Choice{ID: h.ID, Name: h.Name, Detail: shortID(h.ID)}
	}
	chosen, err := tui.Pick("Which habit?", choices)
	if err != nil {
		return nil, err
	}
	if chosen == nil {
		return nil, errCanceled
	}
	return sess.habits.Get(sess.userID, chosen.ID)
}

var errCanceled = errors.New("canceled")

// habitError turns store lookup failures into something a person can act on.
func habitError(ref string, err error) error {
	switch {
	case habit.IsNotFound(err):
		return fmt.Errorf("no habit matches %q (see %s)", ref, ui.Accent.Render("habit list --all"))
	case errors.Is(err, habit.ErrAmbiguous):
		return fmt.Errorf("%q matches more than one habit; use its id", ref)
	}
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
