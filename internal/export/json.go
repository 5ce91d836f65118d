package export

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

type jsonExport struct {
	Profile    string      `json:"profile"`
	ExportedAt time.Time   `json:"exported_at"`
	LastSync   time.Time   `json:"last_sync,omitempty"`
	Groups     []jsonGroup `json:"groups"`
	Ungrouped  []jsonTab   `json:"ungrouped"`
}

type jsonGroup struct {
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Color    string    `json:"color,omitempty"`
	Created  time.Time `json:"created,omitempty"`
	Tabs     []jsonTab `json:"tabs"`
}

type jsonTab struct {
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	Domain             string    `json:"domain"`
	Pinned             bool      `json:"pinned,omitempty"`
	LastAccessed       time.Time `json:"last_accessed,omitempty"`
	LastAccessedPretty string    `json:"last_accessed_pretty,omitempty"`
	IsStale            bool      `json:"is_stale,omitempty"`
	IsDead             bool      `json:"is_dead,omitempty"`
	IsDuplicate        bool      `json:"is_duplicate,omitempty"`
	DeadReason         string    `json:"dead_reason,omitempty"`
	StaleDays          int       `json:"stale_days,omitempty"`
}

func toJSONTab(tab *types.Tab) jsonTab {
	jt := jsonTab{
		Title:       tab.Title,
		URL:         tab.URL,
		Domain:      extractDomain(tab.URL),
		Pinned:      tab.Pinned,
		IsStale:     tab.IsStale,
		IsDead:      tab.IsDead,
		IsDuplicate: tab.IsDuplicate,
		DeadReason:  tab.DeadReason,
		StaleDays:   tab.StaleDays,
	}
	if !tab.LastAccessed.IsZero() {
		jt.LastAccessed = tab.LastAccessed
		jt.LastAccessedPretty = relativeTime(tab.LastAccessed)
	}
	return jt
}

// JSON formats the state as a JSON document.
func JSON(st *types.PersistedState, profile string) (string, error) {
	out := jsonExport{
		Profile:    profile,
		ExportedAt: time.Now(),
		LastSync:   st.LastSync,
		Groups:     make([]jsonGroup, 0, len(st.Groups)),
		Ungrouped:  make([]jsonTab, 0, len(st.UngroupedTabs)),
	}

	for _, g := range st.Groups {
		group := jsonGroup{
			Name:     g.Name,
			Category: string(g.Category),
			Summary:  g.Summary,
			Color:    g.Color,
			Created:  g.Created,
			Tabs:     make([]jsonTab, 0, len(g.Tabs)),
		}
		for _, tab := range g.Tabs {
			group.Tabs = append(group.Tabs, toJSONTab(tab))
		}
		out.Groups = append(out.Groups, group)
	}

	for _, tab := range st.UngroupedTabs {
		out.Ungrouped = append(out.Ungrouped, toJSONTab(tab))
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
