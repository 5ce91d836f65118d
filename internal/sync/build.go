package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabgruppen/internal/types"
)

// BuildState rebuilds the whole application-level group model from a fresh
// browser snapshot. It is the full-replace reconciliation step: the result
// replaces the previous state entirely rather than patching it.
//
// Rules:
//   - one TabGroup per native group with at least one member tab in the
//     current window; empty native groups get no application group
//   - application metadata (ID, category, summary, created) is carried over
//     from prev by NativeGroupID match; everything the browser owns (name,
//     color, collapsed, membership) is taken from the snapshot
//   - every tab with no live native group lands in UngroupedTabs, so each
//     tab appears in exactly one collection
//   - ActiveGroupID survives only if the group it points at still exists
func BuildState(prev *types.PersistedState, tabs []*types.Tab, native []*types.NativeGroup, windowID int, now time.Time) *types.PersistedState {
	if prev == nil {
		prev = &types.PersistedState{}
	}

	st := &types.PersistedState{
		LastSync:        now,
		CurrentWindowID: windowID,
	}

	nativeByID := make(map[int]*types.NativeGroup, len(native))
	order := make([]int, 0, len(native))
	for _, ng := range native {
		if windowID != 0 && ng.WindowID != 0 && ng.WindowID != windowID {
			continue
		}
		nativeByID[ng.ID] = ng
		order = append(order, ng.ID)
	}

	members := make(map[int][]*types.Tab, len(nativeByID))
	for _, tab := range tabs {
		if windowID != 0 && tab.WindowID != 0 && tab.WindowID != windowID {
			continue
		}
		if _, ok := nativeByID[tab.NativeGroupID]; tab.NativeGroupID != types.Ungrouped && ok {
			members[tab.NativeGroupID] = append(members[tab.NativeGroupID], tab)
		} else {
			// No native group, or the native group is gone: ungrouped.
			t := *tab
			t.NativeGroupID = types.Ungrouped
			st.UngroupedTabs = append(st.UngroupedTabs, &t)
		}
	}

	for _, nid := range order {
		tabsIn := members[nid]
		if len(tabsIn) == 0 {
			continue
		}
		ng := nativeByID[nid]

		group := &types.TabGroup{
			Name:          ng.Title,
			Tabs:          tabsIn,
			NativeGroupID: nid,
			Color:         ng.Color,
			Collapsed:     ng.Collapsed,
			Category:      types.CatOther,
			Created:       now,
			LastModified:  now,
		}

		if old := prev.FindGroupByNative(nid); old != nil {
			group.ID = old.ID
			group.Category = old.Category
			group.Summary = old.Summary
			group.Created = old.Created
			if groupUnchanged(old, group) {
				group.LastModified = old.LastModified
			}
		} else {
			group.ID = uuid.NewString()
		}

		st.Groups = append(st.Groups, group)
	}

	if prev.ActiveGroupID != "" && st.FindGroup(prev.ActiveGroupID) != nil {
		st.ActiveGroupID = prev.ActiveGroupID
	}

	return st
}

// groupUnchanged reports whether the browser-owned part of a group is
// identical between the previous and rebuilt version: same name, color,
// collapsed state, and member tab set.
func groupUnchanged(old, cur *types.TabGroup) bool {
	if old.Name != cur.Name || old.Color != cur.Color || old.Collapsed != cur.Collapsed {
		return false
	}
	if len(old.Tabs) != len(cur.Tabs) {
		return false
	}
	prevIDs := make(map[int]bool, len(old.Tabs))
	for _, t := range old.Tabs {
		prevIDs[t.BrowserID] = true
	}
	for _, t := range cur.Tabs {
		if !prevIDs[t.BrowserID] {
			return false
		}
	}
	return true
}
