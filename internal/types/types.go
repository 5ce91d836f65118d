package types

import "time"

// Tab represents a single browser tab. Tabs are owned by the browser and
// only mirrored here.
type Tab struct {
	BrowserID     int       `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	WindowID      int       `json:"windowId"`
	NativeGroupID int       `json:"nativeGroupId"` // Ungrouped if the tab belongs to no native group
	TabIndex      int       `json:"index"`
	Favicon       string    `json:"favicon,omitempty"`
	LastAccessed  time.Time `json:"lastAccessed"`
	Pinned        bool      `json:"pinned,omitempty"`

	// Analyzer findings (populated after analysis, not persisted)
	IsStale     bool   `json:"-"`
	IsDead      bool   `json:"-"`
	IsDuplicate bool   `json:"-"`
	DeadReason  string `json:"-"` // e.g. "404", "unreachable"
	StaleDays   int    `json:"-"`
	DuplicateOf []int  `json:"-"` // indices of duplicate tabs
}

// Ungrouped is the NativeGroupID of a tab that belongs to no native group.
const Ungrouped = -1

// Category is an application-level bucket assigned to a group.
type Category string

const (
	CatWork          Category = "work"
	CatResearch      Category = "research"
	CatShopping      Category = "shopping"
	CatSocial        Category = "social"
	CatEntertainment Category = "entertainment"
	CatNews          Category = "news"
	CatDev           Category = "dev"
	CatOther         Category = "other"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CatWork, CatResearch, CatShopping, CatSocial,
	CatEntertainment, CatNews, CatDev, CatOther,
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// TabGroup is the application-level group. It mirrors a native browser tab
// group (via NativeGroupID) but carries metadata the browser does not know
// about: a stable UUID, a category, an optional summary, and
// created/modified timestamps.
type TabGroup struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Tabs          []*Tab    `json:"tabs"`
	Category      Category  `json:"category"`
	Summary       string    `json:"summary,omitempty"`
	Created       time.Time `json:"created"`
	LastModified  time.Time `json:"lastModified"`
	NativeGroupID int       `json:"nativeGroupId"`
	Color         string    `json:"color,omitempty"`
	Collapsed     bool      `json:"collapsed,omitempty"`
}

// NativeGroup is the browser's own tab-group object, mirrored verbatim.
type NativeGroup struct {
	ID        int
	Title     string
	Color     string
	Collapsed bool
	WindowID  int
}

// PersistedState is the whole application document. It is read and written
// atomically as a unit on every mutation; there are no partial updates.
type PersistedState struct {
	Groups          []*TabGroup `json:"groups"`
	ActiveGroupID   string      `json:"activeGroupId,omitempty"`
	LastSync        time.Time   `json:"lastSync"`
	UngroupedTabs   []*Tab      `json:"ungroupedTabs"`
	CurrentWindowID int         `json:"currentWindowId"`
}

// AllTabs returns every tab in the state, grouped tabs first, then ungrouped.
func (s *PersistedState) AllTabs() []*Tab {
	var tabs []*Tab
	for _, g := range s.Groups {
		tabs = append(tabs, g.Tabs...)
	}
	return append(tabs, s.UngroupedTabs...)
}

// FindGroup returns the group with the given application ID, or nil.
func (s *PersistedState) FindGroup(id string) *TabGroup {
	for _, g := range s.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// FindGroupByNative returns the group mirroring the given native group, or nil.
func (s *PersistedState) FindGroupByNative(nativeID int) *TabGroup {
	if nativeID == Ungrouped {
		return nil
	}
	for _, g := range s.Groups {
		if g.NativeGroupID == nativeID {
			return g
		}
	}
	return nil
}

// Profile represents a Firefox profile (offline source).
type Profile struct {
	Name       string
	Path       string // absolute path to profile directory
	IsDefault  bool
	IsRelative bool
}

// Stats holds aggregate statistics over the persisted state.
type Stats struct {
	TotalTabs     int
	TotalGroups   int
	UngroupedTabs int
	StaleTabs     int
	DeadTabs      int
	DuplicateTabs int
}

// FilterMode controls which tabs are shown.
type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterStale
	FilterDead
	FilterDuplicate
	FilterAge7
	FilterAge30
	FilterAge90
	FilterUngrouped
)

// SortMode controls tab ordering.
type SortMode int

const (
	SortByGroup SortMode = iota
	SortByAge
	SortByStatus
)
