package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// NameInput is a one-line text prompt overlay.
type NameInput struct {
	Title  string
	Value  string
	Width  int
	Height int
}

func NewNameInput(title, initial string) NameInput {
	return NameInput{Title: title, Value: initial}
}

// Type appends printable input to the value.
func (m *NameInput) Type(s string) {
	m.Value += s
}

// Backspace removes the last rune.
func (m *NameInput) Backspace() {
	if m.Value == "" {
		return
	}
	runes := []rune(m.Value)
	m.Value = string(runes[:len(runes)-1])
}

func (m NameInput) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	inputStyle := lipgloss.NewStyle().Padding(0, 1)
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title) + "\n\n")
	b.WriteString(inputStyle.Render("> "+m.Value+"█") + "\n\n")
	b.WriteString(hintStyle.Render("enter confirm · esc cancel"))

	return boxStyle.Render(b.String())
}
