package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabgruppen/internal/types"
)

// CategoryPicker is an overlay for assigning a category to a group.
type CategoryPicker struct {
	Cursor int
	Width  int
	Height int
}

func NewCategoryPicker(current types.Category) CategoryPicker {
	cursor := 0
	for i, c := range types.Categories {
		if c == current {
			cursor = i
			break
		}
	}
	return CategoryPicker{Cursor: cursor}
}

func (m *CategoryPicker) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
}

func (m *CategoryPicker) MoveDown() {
	if m.Cursor < len(types.Categories)-1 {
		m.Cursor++
	}
}

func (m CategoryPicker) Selected() types.Category {
	return types.Categories[m.Cursor]
}

func (m CategoryPicker) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Set category:") + "\n\n")

	for i, c := range types.Categories {
		label := string(c)
		if i == m.Cursor {
			label = selectedStyle.Render(label)
		} else {
			label = normalStyle.Render("  " + label)
		}
		b.WriteString(label + "\n")
	}

	b.WriteString("\n" + normalStyle.Render("↑↓ navigate · enter confirm · esc cancel"))

	return boxStyle.Render(b.String())
}
