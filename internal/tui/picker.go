package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rnwolfe/habit/internal/ui"
)

// Choice is one selectable habit.
type Choice struct {
	ID     string
	Name   string
	Detail string
}

// Picker is a type-to-filter single selection list.
type Picker struct {
	title   string
	choices []Choice
	matches []int
	query   string
	cursor  int

	chosen   *Choice
	canceled bool
	height   int
}

// NewPicker creates a Picker over choices.
func NewPicker(title string, choices []Choice) *Picker {
	p := &Picker{title: title, choices: choices, height: 24}
	p.applyFilter()
	return p
}

// Pick shows a picker and returns the selection, or nil if the user canceled.
func Pick(title string, choices []Choice) (*Choice, error) {
	result, err := tea.NewProgram(NewPicker(title, choices), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	p := result.(*Picker)
	if p.canceled {
		return nil, nil
	}
	return p.chosen, nil
}

// Chosen returns the selection once the picker has quit.
func (p *Picker) Chosen() *Choice { return p.chosen }

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.height = msg.Height
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.canceled = true
			return p, tea.Quit
		case tea.KeyEnter:
			if len(p.matches) > 0 {
				c := p.choices[p.matches[p.cursor]]
				p.chosen = &c
			}
			return p, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if p.cursor > 0 {
				p.cursor--
			}
		case tea.KeyDown, tea.KeyCtrlN:
			if p.cursor < len(p.matches)-1 {
				p.cursor++
			}
		case tea.KeyBackspace:
			if r := []rune(p.query); len(r) > 0 {
				p.query = string(r[:len(r)-1])
				p.applyFilter()
			}
		case tea.KeyRunes:
			p.query += string(msg.Runes)
			p.applyFilter()
		case tea.KeySpace:
			p.query += " "
			p.applyFilter()
		}
	}
	return p, nil
}

// applyFilter keeps matching choices, best score first. Ties keep input order.
func (p *Picker) applyFilter() {
	type hit struct{ idx, score int }
	var hits []hit
	for i, c := range p.choices {
		if ok, score := FuzzyMatch(p.query, c.Name); ok {
			hits = append(hits, hit{i, score})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return b.score - a.score })

	p.matches = p.matches[:0]
	for _, h := range hits {
		p.matches = append(p.matches, h.idx)
	}
	p.cursor = 0
}

func (p *Picker) View() string {
	var b strings.Builder
	if p.title != "" {
		b.WriteString("  " + ui.Title.Render(p.title) + "\n\n")
	}
	prompt := lipgloss.NewStyle().Foreground(ui.Gold).Bold(true).Render("> ")
	b.WriteString("  " + prompt + p.query + blinkCursor() + "\n\n")

	if len(p.matches) == 0 {
		b.WriteString("  " + ui.Muted.Render("No matches") + "\n")
	}
	vis := max(p.height-6, 3)
	start := max(p.cursor-vis+1, 0)
	for i := start; i < len(p.matches) && i < start+vis; i++ {
		c := p.choices[p.matches[i]]
		pointer, name := "  ", c.Name
		if i == p.cursor {
			pointer = ui.Accent.Render(ui.IconArrow + " ")
			name = lipgloss.NewStyle().Foreground(ui.Gold).Bold(true).Render(name)
		}
		line := "  " + pointer + name
		if c.Detail != "" {
			line += "  " + ui.Muted.Render(c.Detail)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + ui.Muted.Render(fmt.Sprintf("  %d/%d · ↑↓ move · enter select · esc cancel", len(p.matches), len(p.choices))) + "\n")
	return b.String()
}
