package ui

import "github.com/charmbracelet/lipgloss"

// habit's palette: greens for growth, gold for streaks, stone for chrome.
var (
	Gold     = lipgloss.Color("#FFD700")
	Amber    = lipgloss.Color("#FFBF00")
	Copper   = lipgloss.Color("#B87333")
	Stone    = lipgloss.Color("#8B8680")
	Emerald  = lipgloss.Color("#50C878")
	Moss     = lipgloss.Color("#8A9A5B")
	Ruby     = lipgloss.Color("#E0115F")
	Sapphire = lipgloss.Color("#0F52BA")
	Dim      = lipgloss.Color("#666666")
	Bright   = lipgloss.Color("#FFFFFF")

	// Semantic styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	Subtitle = lipgloss.NewStyle().
			Foreground(Moss)

	Success = lipgloss.NewStyle().
		Foreground(Emerald)

	Error = lipgloss.NewStyle().
		Foreground(Ruby)

	Warning = lipgloss.NewStyle().
		Foreground(Amber)

	Info = lipgloss.NewStyle().
		Foreground(Sapphire)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	// Component styles
	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(0, 1)

	StreakStyle = lipgloss.NewStyle().
			Foreground(Copper).
			Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Moss).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)
)

const (
	IconHabit = "🌱 "
	IconDone  = "✅"
	IconTodo  = "⬜"
	IconFire  = "🔥"
	IconStar  = "⭐"
	IconVault = "🔑"
	IconWarn  = "⚠️ "
	IconError = "✗ "
	IconOk    = "✓ "
	IconArrow = "→"
	IconDot   = "·"
)
