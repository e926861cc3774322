package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevErr := Out, ErrOut
	Out, ErrOut = &buf, &buf
	prevProfile := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() {
		Out, ErrOut = prevOut, prevErr
		lipgloss.SetColorProfile(prevProfile)
	})
	return &buf
}

func TestGreet(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"", "🌱 Hey there!"},
		{"Sam", "🌱 Hey Sam!"},
	}

	for _, tt := range tests {
		got := Greet(tt.name)
		if got != tt.expected {
			t.Errorf("Greet(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestStreak(t *testing.T) {
	captureOut(t)
	tests := []struct {
		n    int
		want string
	}{
		{0, "no streak"},
		{-1, "no streak"},
		{1, "🔥 1 day"},
		{12, "🔥 12 days"},
	}
	for _, tt := range tests {
		if got := Streak(tt.n); got != tt.want {
			t.Errorf("Streak(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"abcdefgh", "****efgh"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOut(t)

	Ok("saved")
	Warn("careful")
	Err("broken")
	Kv("habit", "Read")
	Header("Today")

	out := buf.String()
	for _, want := range []string{"✓ saved", "careful", "✗ broken", "habit", "Read", "Today", "───"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestIconConstants(t *testing.T) {
	icons := []string{
		IconHabit, IconDone, IconTodo, IconFire, IconStar, IconVault,
		IconWarn, IconError, IconOk, IconArrow, IconDot,
	}
	for i, icon := range icons {
		if icon == "" {
			t.Errorf("Icon at index %d is empty", i)
		}
	}
}

func TestSetupColor_NoColor(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	t.Setenv("NO_COLOR", "1")
	SetupColor()
	if lipgloss.ColorProfile() != termenv.Ascii {
		t.Errorf("expected Ascii profile with NO_COLOR set, got %v", lipgloss.ColorProfile())
	}
}
