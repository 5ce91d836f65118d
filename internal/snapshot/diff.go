package snapshot

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/types"
)

// DiffEntry represents a single tab in a diff result.
type DiffEntry struct {
	URL   string
	Title string
	Group string // group name, or empty if ungrouped
}

// DiffResult holds the result of comparing two group layouts.
type DiffResult struct {
	Label   string
	Added   []DiffEntry // in current but not in snapshot
	Removed []DiffEntry // in snapshot but not in current
	Moved   []DiffEntry // same URL, different group
}

// stateEntries flattens a PersistedState into URL -> entry.
func stateEntries(st *types.PersistedState) map[string]DiffEntry {
	entries := make(map[string]DiffEntry)
	for _, g := range st.Groups {
		for _, t := range g.Tabs {
			entries[t.URL] = DiffEntry{URL: t.URL, Title: t.Title, Group: g.Name}
		}
	}
	for _, t := range st.UngroupedTabs {
		entries[t.URL] = DiffEntry{URL: t.URL, Title: t.Title}
	}
	return entries
}

// snapshotEntries flattens a stored snapshot into URL -> entry.
func snapshotEntries(snap *storage.SnapshotFull) map[string]DiffEntry {
	entries := make(map[string]DiffEntry, len(snap.Tabs))
	for _, tab := range snap.Tabs {
		entries[tab.URL] = DiffEntry{URL: tab.URL, Title: tab.Title, Group: tab.GroupName}
	}
	return entries
}

func diffEntries(old, cur map[string]DiffEntry, label string) *DiffResult {
	result := &DiffResult{Label: label}

	for url, entry := range cur {
		prev, ok := old[url]
		if !ok {
			result.Added = append(result.Added, entry)
		} else if prev.Group != entry.Group {
			result.Moved = append(result.Moved, entry)
		}
	}
	for url, entry := range old {
		if _, ok := cur[url]; !ok {
			result.Removed = append(result.Removed, entry)
		}
	}

	return result
}

// diffSnapshotState compares a stored snapshot against current state.
func diffSnapshotState(snap *storage.SnapshotFull, st *types.PersistedState) *DiffResult {
	return diffEntries(snapshotEntries(snap), stateEntries(st), fmt.Sprintf("#%d", snap.Rev))
}

// DiffAgainstCurrent compares a stored revision (0 = latest) against the
// current state.
func DiffAgainstCurrent(db *sql.DB, profile string, rev int, st *types.PersistedState) (*DiffResult, error) {
	var snap *storage.SnapshotFull
	var err error
	if rev == 0 {
		snap, err = storage.GetLatestSnapshot(db, profile)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, fmt.Errorf("no snapshots for profile %q", profile)
		}
	} else {
		snap, err = storage.GetSnapshot(db, profile, rev)
		if err != nil {
			return nil, err
		}
	}
	return diffSnapshotState(snap, st), nil
}

// DiffRevisions compares two stored revisions.
func DiffRevisions(db *sql.DB, profile string, rev1, rev2 int) (*DiffResult, error) {
	snap1, err := storage.GetSnapshot(db, profile, rev1)
	if err != nil {
		return nil, err
	}
	snap2, err := storage.GetSnapshot(db, profile, rev2)
	if err != nil {
		return nil, err
	}
	return diffEntries(snapshotEntries(snap1), snapshotEntries(snap2),
		fmt.Sprintf("#%d..#%d", rev1, rev2)), nil
}

// FormatDiff returns a human-readable string representation of a DiffResult.
func FormatDiff(d *DiffResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Diff against snapshot %s\n", d.Label)
	fmt.Fprintf(&sb, "Added: %d  Removed: %d  Moved: %d\n", len(d.Added), len(d.Removed), len(d.Moved))

	if len(d.Added) > 0 {
		sb.WriteString("\n+ Added:\n")
		for _, e := range d.Added {
			if e.Group != "" {
				fmt.Fprintf(&sb, "  + %s [%s]\n", e.URL, e.Group)
			} else {
				fmt.Fprintf(&sb, "  + %s\n", e.URL)
			}
		}
	}

	if len(d.Removed) > 0 {
		sb.WriteString("\n- Removed:\n")
		for _, e := range d.Removed {
			if e.Group != "" {
				fmt.Fprintf(&sb, "  - %s [%s]\n", e.URL, e.Group)
			} else {
				fmt.Fprintf(&sb, "  - %s\n", e.URL)
			}
		}
	}

	if len(d.Moved) > 0 {
		sb.WriteString("\n~ Moved:\n")
		for _, e := range d.Moved {
			if e.Group != "" {
				fmt.Fprintf(&sb, "  ~ %s -> [%s]\n", e.URL, e.Group)
			} else {
				fmt.Fprintf(&sb, "  ~ %s -> ungrouped\n", e.URL)
			}
		}
	}

	if len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0 {
		sb.WriteString("\nNo changes.\n")
	}

	return sb.String()
}
