package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rnwolfe/habit/internal/backup"
	"github.com/rnwolfe/habit/internal/hook"
	"github.com/rnwolfe/habit/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passphraseEnv skips the interactive prompt.
const passphraseEnv = "HABIT_BACKUP_PASSPHRASE"

// kvLastExport records when the last backup was written.
const kvLastExport = "backup.last_export"

var (
	exportFile string
	importFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an encrypted backup of your habits",
	Long: `Export every habit and completion as an age-encrypted file.

Set HABIT_BACKUP_PASSPHRASE to skip the prompt.`,
	Args: cobra.NoArgs,
	RunE: hook.Wrap("export", runExport),
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore habits from an encrypted backup",
	Long: `Merge a backup made by 'habit export' into this database.
Existing completions are kept; habits with the same id are updated.`,
	Args: cobra.NoArgs,
	RunE: hook.Wrap("import", runImport),
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "output", "o", "", "Output file path (default: stdout)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Input file path (default: stdin)")
}

func runExport(_ *cobra.Command, _ []string) error {
	if exportFile == "" && ui.IsStdoutTTY() {
		return fmt.Errorf("refusing to write a backup to the terminal; use %s or redirect stdout",
			ui.Accent.Render("-o <file>"))
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	pass, err := readPassphrase(true)
	if err != nil {
		return err
	}
	snap, err := sess.habits.Snapshot(sess.userID)
	if err != nil {
		return err
	}

	if exportFile == "" {
		if err := backup.Export(os.Stdout, snap, pass); err != nil {
			return err
		}
	} else {
		if err := backup.WriteFile(exportFile, snap, pass); err != nil {
			return err
		}
	}

	if err := sess.db.SetKV(kvLastExport, nowFunc().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if exportFile != "" {
		ui.Ok(fmt.Sprintf("Backed up %d habit(s) and %d completion(s) to %s",
			len(snap.Habits), len(snap.Completions), exportFile))
	}
	return nil
}

func runImport(_ *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	var src io.Reader = os.Stdin
	if importFile != "" {
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("opening backup: %w", err)
		}
		defer f.Close()
		src = f
	} else if ui.IsStdinTTY() {
		return fmt.Errorf("no backup given; use %s or pipe one on stdin", ui.Accent.Render("-f <file>"))
	}

	pass, err := readPassphrase(false)
	if err != nil {
		return err
	}
	snap, err := backup.Import(src, pass)
	if err != nil {
		return formatBackupError(err)
	}

	res, err := sess.habits.Restore(sess.userID, snap)
	if err != nil {
		return err
	}
	ui.Ok(fmt.Sprintf("Restored %d habit(s) and %d completion(s)", res.Habits, res.Completions))
	if res.Skipped > 0 {
		ui.Warn(fmt.Sprintf("Skipped %d item(s) that could not be restored", res.Skipped))
	}
	return nil
}

// readPassphrase takes the passphrase from HABIT_BACKUP_PASSPHRASE or, on a
// terminal, a hidden prompt. confirm asks twice.
func readPassphrase(confirm bool) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("backup passphrase required: set %s or run interactively", passphraseEnv)
	}

	fmt.Fprint(os.Stderr, ui.Muted.Render("  Backup passphrase: "))
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	pass := strings.TrimSpace(string(first))
	if pass == "" {
		return "", backup.ErrEmptyPassphrase
	}

	if confirm {
		fmt.Fprint(os.Stderr, ui.Muted.Render("  Confirm passphrase: "))
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase confirmation: %w", err)
		}
		if strings.TrimSpace(string(second)) != pass {
			return "", errors.New("passphrases do not match")
		}
	}
	return pass, nil
}

func formatBackupError(err error) error {
	switch {
	case errors.Is(err, backup.ErrWrongPassphrase):
		return errors.New("wrong passphrase for this backup")
	case errors.Is(err, backup.ErrCorrupted):
		return errors.New("that file isn't a habit backup, or it is damaged")
	}
	return err
}
