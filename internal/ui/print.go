package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Out is where the print helpers write. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

// ErrOut receives Err output.
var ErrOut io.Writer = os.Stderr

// Puts prints a styled line.
func Puts(s string) {
	fmt.Fprintln(Out, s)
}

// Putsf prints a formatted styled line.
func Putsf(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// Warn prints a warning message.
func Warn(msg string) {
	fmt.Fprintln(Out, Warning.Render(IconWarn+msg))
}

// Err prints an error message to stderr.
func Err(msg string) {
	styled := Error.Bold(true).Render(IconError + msg)
	fmt.Fprintln(ErrOut, styled)
}

// Ok prints a success message.
func Ok(msg string) {
	fmt.Fprintln(Out, Success.Render(IconOk+msg))
}

// Inf prints an info message.
func Inf(msg string) {
	fmt.Fprintln(Out, Info.Render("  "+msg))
}

// Header prints a section header.
func Header(s string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, Title.Render(s))
	fmt.Fprintln(Out, Muted.Render(strings.Repeat("─", len([]rune(s))+2)))
}

// Tip prints a helpful tip.
func Tip(msg string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, Muted.Render("  tip: "+msg))
}

// Kv prints a key-value pair, padded.
func Kv(key string, value string) {
	k := KeyStyle.Render(fmt.Sprintf("  %-14s", key))
	v := ValueStyle.Render(value)
	fmt.Fprintf(Out, "%s %s\n", k, v)
}

// Greet returns a greeting for name.
func Greet(name string) string {
	if name == "" {
		return IconHabit + "Hey there!"
	}
	return fmt.Sprintf("%sHey %s!", IconHabit, name)
}

// Streak formats a streak length, e.g. "🔥 3 days". Zero renders muted.
func Streak(n int) string {
	if n <= 0 {
		return Muted.Render("no streak")
	}
	unit := "days"
	if n == 1 {
		unit = "day"
	}
	return StreakStyle.Render(fmt.Sprintf("%s %d %s", IconFire, n, unit))
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	r := []rune(secret)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
