package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/encourage"
	"github.com/rnwolfe/habit/internal/streak"
	"github.com/rnwolfe/habit/internal/ui"
)

// TodayItem is one habit row in the today checklist.
type TodayItem struct {
	ID   string
	Name string
	// Records is the habit's full completion history, used to recompute
	// the streak after a local toggle.
	Records []streak.Record
}

// TodayAction asks the caller to persist a toggle. Done false means undo.
type TodayAction struct {
	HabitID string
	Done    bool
}

// TodayModel is the interactive checklist for the current day.
type TodayModel struct {
	items    []TodayItem
	filtered []int // indexes into items
	cursor   int
	filter   string
	filterOn bool

	now    time.Time
	today  daykey.Key
	picker *encourage.Picker

	message string

	width  int
	height int

	// Actions are pending toggles in the order they were made.
	Actions []TodayAction
}

// NewTodayModel builds the checklist as of now. now's location decides which
// day is today.
func NewTodayModel(items []TodayItem, now time.Time, picker *encourage.Picker) *TodayModel {
	if picker == nil {
		picker = encourage.New(nil)
	}
	m := &TodayModel{
		items:  items,
		now:    now,
		today:  daykey.FromTime(now),
		picker: picker,
		width:  80,
		height: 24,
	}
	m.applyFilter()
	return m
}

// RunToday launches the checklist and returns the toggles to apply.
func RunToday(items []TodayItem, now time.Time, picker *encourage.Picker) ([]TodayAction, error) {
	m := NewTodayModel(items, now, picker)
	result, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("today tui: %w", err)
	}
	return result.(*TodayModel).Actions, nil
}

func (m *TodayModel) Init() tea.Cmd {
	return nil
}

func (m *TodayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if m.filterOn {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *TodayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g":
		m.cursor = 0
	case "G":
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
		}
	case "x", " ", "enter":
		m.toggle()
	case "/":
		m.filterOn = true
		m.filter = ""
		m.applyFilter()
	}
	return m, nil
}

func (m *TodayModel) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.filterOn = false
		m.filter = ""
		m.applyFilter()
	case tea.KeyEnter:
		m.filterOn = false
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeyRunes:
		m.filter += string(msg.Runes)
		m.applyFilter()
	case tea.KeySpace:
		m.filter += " "
		m.applyFilter()
	}
	return m, nil
}

func (m *TodayModel) applyFilter() {
	m.filtered = m.filtered[:0]
	for i, it := range m.items {
		if ok, _ := FuzzyMatch(m.filter, it.Name); ok {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

// toggle flips today's completion for the selected habit and records it.
func (m *TodayModel) toggle() {
	if len(m.filtered) == 0 {
		return
	}
	it := &m.items[m.filtered[m.cursor]]
	done := !m.isDone(*it)
	if done {
		it.Records = append(it.Records, streak.Record{HabitID: it.ID, Date: m.today})
	} else {
		kept := make([]streak.Record, 0, len(it.Records))
		for _, r := range it.Records {
			if r.Date != m.today {
				kept = append(kept, r)
			}
		}
		it.Records = kept
	}
	m.Actions = append(m.Actions, TodayAction{HabitID: it.ID, Done: done})

	if !done {
		m.message = ""
		return
	}
	m.message = m.picker.Message(m.streakOf(*it)) + " " + encourage.NextHabit(m.Remaining())
}

func (m *TodayModel) isDone(it TodayItem) bool {
	return streak.IsCompletedOnDate(it.Records, m.now)
}

func (m *TodayModel) streakOf(it TodayItem) int {
	return streak.Calculate(it.Records, m.now)
}

// Remaining counts habits not yet done today.
func (m *TodayModel) Remaining() int {
	n := 0
	for _, it := range m.items {
		if !m.isDone(it) {
			n++
		}
	}
	return n
}

func (m *TodayModel) View() string {
	var b strings.Builder

	header := ui.Title.Render("  "+ui.IconHabit+"Today") + ui.Muted.Render("  "+m.today.String())
	if m.filter != "" {
		header += ui.Muted.Render(fmt.Sprintf("  filter: %q", m.filter))
	}
	b.WriteString(header + "\n\n")

	vis := max(m.height-9, 3)
	offset := 0
	if m.cursor >= vis {
		offset = m.cursor - vis + 1
	}

	switch {
	case len(m.items) == 0:
		b.WriteString("  " + ui.Muted.Render("No habits yet. Add one with `habit add <name>`.") + "\n")
	case len(m.filtered) == 0:
		b.WriteString("  " + ui.Muted.Render("No matches. Press esc to clear filter.") + "\n")
	default:
		end := min(offset+vis, len(m.filtered))
		for i := offset; i < end; i++ {
			b.WriteString(m.renderItem(m.items[m.filtered[i]], i == m.cursor) + "\n")
		}
	}

	b.WriteString("\n")
	if m.filterOn {
		prompt := lipgloss.NewStyle().Foreground(ui.Gold).Bold(true).Render("/")
		b.WriteString("  " + prompt + " " + m.filter + blinkCursor() + "\n")
	} else if m.message != "" {
		b.WriteString("  " + ui.Accent.Render(m.message) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	done := len(m.items) - m.Remaining()
	b.WriteString(ui.Muted.Render(fmt.Sprintf("  %d/%d done today", done, len(m.items))) + "\n")
	if m.filterOn {
		b.WriteString(ui.Muted.Render("  esc clear · enter confirm") + "\n")
	} else {
		b.WriteString(ui.Muted.Render("  j/k move · x toggle · / filter · q quit") + "\n")
	}
	return b.String()
}

func (m *TodayModel) renderItem(it TodayItem, selected bool) string {
	pointer := "  "
	nameStyle := lipgloss.NewStyle()
	if selected {
		pointer = ui.Accent.Render(ui.IconArrow + " ")
		nameStyle = nameStyle.Foreground(ui.Gold).Bold(true)
	}

	marker := "[ ]"
	name := nameStyle.Render(it.Name)
	if m.isDone(it) {
		marker = ui.Success.Render("[x]")
		name = ui.Muted.Render(it.Name)
	}
	return fmt.Sprintf("  %s %s %s  %s", pointer, marker, name, ui.Streak(m.streakOf(it)))
}

func blinkCursor() string {
	return lipgloss.NewStyle().Foreground(ui.Gold).Render("▎")
}
