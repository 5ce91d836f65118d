package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

func TestJSON_GroupedAndUngrouped(t *testing.T) {
	now := time.Now()
	st := &types.PersistedState{
		Groups: []*types.TabGroup{
			{
				ID:       "g1",
				Name:     "Research",
				Category: types.CatResearch,
				Summary:  "Reading about Go.",
				Color:    "blue",
				Tabs: []*types.Tab{
					{Title: "Go docs", URL: "https://go.dev/doc", LastAccessed: now.Add(-3 * 24 * time.Hour)},
					{Title: "Bubble Tea", URL: "https://github.com/charmbracelet/bubbletea", LastAccessed: now.Add(-1 * 24 * time.Hour)},
				},
			},
		},
		UngroupedTabs: []*types.Tab{
			{Title: "Example", URL: "https://example.com", LastAccessed: now.Add(-5 * time.Hour)},
		},
	}

	result, err := JSON(st, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed jsonExport
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\noutput:\n%s", err, result)
	}

	if parsed.Profile != "default" {
		t.Errorf("expected profile 'default', got %q", parsed.Profile)
	}
	if len(parsed.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(parsed.Groups))
	}
	g := parsed.Groups[0]
	if g.Name != "Research" || g.Category != "research" || g.Color != "blue" {
		t.Errorf("group fields mismatch: %+v", g)
	}
	if g.Summary != "Reading about Go." {
		t.Errorf("expected summary, got %q", g.Summary)
	}
	if len(g.Tabs) != 2 {
		t.Errorf("expected 2 tabs in Research, got %d", len(g.Tabs))
	}
	if g.Tabs[0].Domain != "go.dev" {
		t.Errorf("expected domain 'go.dev', got %q", g.Tabs[0].Domain)
	}
	if g.Tabs[0].LastAccessedPretty != "3d ago" {
		t.Errorf("expected '3d ago', got %q", g.Tabs[0].LastAccessedPretty)
	}

	if len(parsed.Ungrouped) != 1 {
		t.Fatalf("expected 1 ungrouped tab, got %d", len(parsed.Ungrouped))
	}
	if parsed.Ungrouped[0].Domain != "example.com" {
		t.Errorf("expected domain 'example.com', got %q", parsed.Ungrouped[0].Domain)
	}
}

func TestJSON_AnalysisFields(t *testing.T) {
	now := time.Now()
	st := &types.PersistedState{
		Groups: []*types.TabGroup{
			{
				Name: "Mixed",
				Tabs: []*types.Tab{
					{Title: "Stale", URL: "https://stale.com", LastAccessed: now, IsStale: true, StaleDays: 14},
					{Title: "Dead", URL: "https://dead.com", LastAccessed: now, IsDead: true, DeadReason: "404"},
					{Title: "Dup", URL: "https://dup.com", LastAccessed: now, IsDuplicate: true},
					{Title: "Clean", URL: "https://clean.com", LastAccessed: now},
				},
			},
		},
	}

	result, err := JSON(st, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed jsonExport
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	tabs := parsed.Groups[0].Tabs
	if !tabs[0].IsStale || tabs[0].StaleDays != 14 {
		t.Errorf("expected stale tab with 14 days, got stale=%v days=%d", tabs[0].IsStale, tabs[0].StaleDays)
	}
	if !tabs[1].IsDead || tabs[1].DeadReason != "404" {
		t.Errorf("expected dead tab with reason '404', got dead=%v reason=%q", tabs[1].IsDead, tabs[1].DeadReason)
	}
	if !tabs[2].IsDuplicate {
		t.Errorf("expected duplicate tab")
	}
	if tabs[3].IsStale || tabs[3].IsDead || tabs[3].IsDuplicate {
		t.Errorf("expected clean tab with no flags")
	}
}

func TestJSON_EmptyState(t *testing.T) {
	result, err := JSON(&types.PersistedState{}, "empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed jsonExport
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Profile != "empty" {
		t.Errorf("expected profile 'empty', got %q", parsed.Profile)
	}
	if len(parsed.Groups) != 0 || len(parsed.Ungrouped) != 0 {
		t.Errorf("expected empty export, got %+v", parsed)
	}
}
