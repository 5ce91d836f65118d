package sync

import (
	"testing"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

func tab(id, group, window int) *types.Tab {
	return &types.Tab{
		BrowserID:     id,
		URL:           "https://example.com/" + string(rune('a'+id)),
		Title:         "Tab",
		WindowID:      window,
		NativeGroupID: group,
	}
}

func native(id int, title string) *types.NativeGroup {
	return &types.NativeGroup{ID: id, Title: title, Color: "blue", WindowID: 1}
}

// checkPartition verifies the core invariant: every tab appears in exactly
// one collection.
func checkPartition(t *testing.T, st *types.PersistedState, wantIDs []int) {
	t.Helper()
	seen := make(map[int]int)
	for _, g := range st.Groups {
		for _, tb := range g.Tabs {
			seen[tb.BrowserID]++
		}
	}
	for _, tb := range st.UngroupedTabs {
		seen[tb.BrowserID]++
	}
	for _, id := range wantIDs {
		if seen[id] != 1 {
			t.Errorf("tab %d appears %d times, want exactly 1", id, seen[id])
		}
		delete(seen, id)
	}
	for id, n := range seen {
		t.Errorf("unexpected tab %d (appears %d times)", id, n)
	}
}

func TestBuildStatePartitionsTabs(t *testing.T) {
	now := time.Now()
	tabs := []*types.Tab{tab(1, 5, 1), tab(2, 5, 1), tab(3, types.Ungrouped, 1)}
	groups := []*types.NativeGroup{native(5, "Work")}

	st := BuildState(nil, tabs, groups, 1, now)

	checkPartition(t, st, []int{1, 2, 3})
	if len(st.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(st.Groups))
	}
	g := st.Groups[0]
	if g.Name != "Work" || g.NativeGroupID != 5 || len(g.Tabs) != 2 {
		t.Errorf("group mismatch: %+v", g)
	}
	if g.ID == "" {
		t.Error("new group should get an ID")
	}
	if len(st.UngroupedTabs) != 1 || st.UngroupedTabs[0].BrowserID != 3 {
		t.Errorf("ungrouped mismatch: %+v", st.UngroupedTabs)
	}
}

func TestBuildStateVanishedNativeGroup(t *testing.T) {
	// A tab still references native group 9 but the group no longer exists:
	// the tab must land in ungrouped and no app group may survive for it.
	now := time.Now()
	prev := BuildState(nil, []*types.Tab{tab(1, 9, 1)}, []*types.NativeGroup{native(9, "Gone")}, 1, now)
	if len(prev.Groups) != 1 {
		t.Fatalf("setup: %d groups", len(prev.Groups))
	}

	st := BuildState(prev, []*types.Tab{tab(1, 9, 1)}, nil, 1, now.Add(time.Second))

	if len(st.Groups) != 0 {
		t.Errorf("group should be deleted when native group disappears, got %+v", st.Groups)
	}
	if len(st.UngroupedTabs) != 1 || st.UngroupedTabs[0].NativeGroupID != types.Ungrouped {
		t.Errorf("tab should be ungrouped: %+v", st.UngroupedTabs)
	}
	checkPartition(t, st, []int{1})
}

func TestBuildStateEmptyNativeGroupDropped(t *testing.T) {
	st := BuildState(nil, []*types.Tab{tab(1, types.Ungrouped, 1)}, []*types.NativeGroup{native(5, "Empty")}, 1, time.Now())
	if len(st.Groups) != 0 {
		t.Errorf("native group with no members should produce no app group, got %+v", st.Groups)
	}
	checkPartition(t, st, []int{1})
}

func TestBuildStatePreservesAppMetadata(t *testing.T) {
	now := time.Now()
	prev := BuildState(nil, []*types.Tab{tab(1, 5, 1)}, []*types.NativeGroup{native(5, "Work")}, 1, now)
	prev.Groups[0].Category = types.CatDev
	prev.Groups[0].Summary = "build pipelines"
	prevID := prev.Groups[0].ID

	later := now.Add(time.Minute)
	st := BuildState(prev, []*types.Tab{tab(1, 5, 1), tab(2, 5, 1)}, []*types.NativeGroup{native(5, "Work renamed")}, 1, later)

	g := st.Groups[0]
	if g.ID != prevID {
		t.Errorf("ID not preserved: %s != %s", g.ID, prevID)
	}
	if g.Category != types.CatDev || g.Summary != "build pipelines" {
		t.Errorf("app metadata lost: %+v", g)
	}
	if !g.Created.Equal(prev.Groups[0].Created) {
		t.Errorf("Created changed: %v", g.Created)
	}
	if g.Name != "Work renamed" {
		t.Errorf("browser-owned name should follow the snapshot, got %q", g.Name)
	}
	if !g.LastModified.Equal(later) {
		t.Errorf("LastModified should update on membership change, got %v", g.LastModified)
	}
}

func TestBuildStateUnchangedGroupKeepsLastModified(t *testing.T) {
	now := time.Now()
	tabs := []*types.Tab{tab(1, 5, 1)}
	groups := []*types.NativeGroup{native(5, "Work")}
	prev := BuildState(nil, tabs, groups, 1, now)

	st := BuildState(prev, tabs, groups, 1, now.Add(time.Hour))
	if !st.Groups[0].LastModified.Equal(prev.Groups[0].LastModified) {
		t.Errorf("LastModified should not move for an unchanged group")
	}
}

func TestBuildStateActiveGroup(t *testing.T) {
	now := time.Now()
	prev := BuildState(nil,
		[]*types.Tab{tab(1, 5, 1), tab(2, 6, 1)},
		[]*types.NativeGroup{native(5, "A"), native(6, "B")}, 1, now)
	prev.ActiveGroupID = prev.Groups[1].ID

	// B's native group disappears: active selection must be cleared.
	st := BuildState(prev,
		[]*types.Tab{tab(1, 5, 1), tab(2, types.Ungrouped, 1)},
		[]*types.NativeGroup{native(5, "A")}, 1, now.Add(time.Second))
	if st.ActiveGroupID != "" {
		t.Errorf("ActiveGroupID should be cleared, got %q", st.ActiveGroupID)
	}

	// A survives: its selection is carried.
	prev.ActiveGroupID = prev.Groups[0].ID
	st = BuildState(prev,
		[]*types.Tab{tab(1, 5, 1)},
		[]*types.NativeGroup{native(5, "A")}, 1, now.Add(time.Second))
	if st.ActiveGroupID != prev.Groups[0].ID {
		t.Errorf("ActiveGroupID should survive, got %q", st.ActiveGroupID)
	}
}

func TestBuildStateFiltersOtherWindows(t *testing.T) {
	tabs := []*types.Tab{tab(1, 5, 1), tab(2, 5, 2)}
	groups := []*types.NativeGroup{native(5, "Work")}

	st := BuildState(nil, tabs, groups, 1, time.Now())
	checkPartition(t, st, []int{1})
	if st.CurrentWindowID != 1 {
		t.Errorf("CurrentWindowID = %d, want 1", st.CurrentWindowID)
	}
}

func TestBuildStateEventSequences(t *testing.T) {
	// Simulate a sequence of snapshots (create, regroup, close, group
	// removal) and check the partition invariant after each.
	now := time.Now()
	type step struct {
		name   string
		tabs   []*types.Tab
		native []*types.NativeGroup
		want   []int
	}
	steps := []step{
		{"initial", []*types.Tab{tab(1, types.Ungrouped, 1)}, nil, []int{1}},
		{"tab created", []*types.Tab{tab(1, types.Ungrouped, 1), tab(2, types.Ungrouped, 1)}, nil, []int{1, 2}},
		{"grouped", []*types.Tab{tab(1, 5, 1), tab(2, 5, 1)}, []*types.NativeGroup{native(5, "Work")}, []int{1, 2}},
		{"regrouped", []*types.Tab{tab(1, 5, 1), tab(2, 6, 1)}, []*types.NativeGroup{native(5, "Work"), native(6, "News")}, []int{1, 2}},
		{"tab closed", []*types.Tab{tab(2, 6, 1)}, []*types.NativeGroup{native(5, "Work"), native(6, "News")}, []int{2}},
		{"group removed", []*types.Tab{tab(2, types.Ungrouped, 1)}, nil, []int{2}},
	}

	var st *types.PersistedState
	for i, s := range steps {
		st = BuildState(st, s.tabs, s.native, 1, now.Add(time.Duration(i)*time.Second))
		checkPartition(t, st, s.want)
	}
	if len(st.Groups) != 0 {
		t.Errorf("final state should have no groups, got %d", len(st.Groups))
	}
}
