package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// IsStdoutTTY returns true when stdout is connected to a terminal.
func IsStdoutTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// IsStdinTTY returns true when stdin is connected to a terminal.
func IsStdinTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// ColorDisabled reports whether NO_COLOR is set to any non-empty value.
func ColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// SetupColor picks the lipgloss color profile: plain ASCII when colors are
// disabled or stdout is not a terminal, otherwise whatever the terminal
// advertises.
func SetupColor() {
	if ColorDisabled() || !IsStdoutTTY() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
}
