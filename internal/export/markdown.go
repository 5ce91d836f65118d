package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

// Markdown formats the state as a markdown document.
func Markdown(st *types.PersistedState, profile string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tab Groups — %s\n", profile)
	fmt.Fprintf(&b, "> Exported %s\n", time.Now().Format("2006-01-02 15:04"))

	for _, g := range st.Groups {
		fmt.Fprintf(&b, "\n## %s (%d %s)", g.Name, len(g.Tabs), noun(len(g.Tabs)))
		if g.Category != "" {
			fmt.Fprintf(&b, " [%s]", g.Category)
		}
		b.WriteString("\n\n")

		if g.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", g.Summary)
		}

		writeTabs(&b, g.Tabs)
	}

	if len(st.UngroupedTabs) > 0 {
		fmt.Fprintf(&b, "\n## Ungrouped (%d %s)\n\n", len(st.UngroupedTabs), noun(len(st.UngroupedTabs)))
		writeTabs(&b, st.UngroupedTabs)
	}

	return b.String()
}

func writeTabs(b *strings.Builder, tabs []*types.Tab) {
	for _, tab := range tabs {
		title := tab.Title
		if title == "" {
			title = tab.URL
		}
		fmt.Fprintf(b, "- [%s](%s)", title, tab.URL)
		if !tab.LastAccessed.IsZero() {
			fmt.Fprintf(b, " — %s", relativeTime(tab.LastAccessed))
		}
		b.WriteString("\n")
	}
}

func noun(n int) string {
	if n == 1 {
		return "tab"
	}
	return "tabs"
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
