package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state.json"))
}

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	s := testStore(t)

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Groups) != 0 || len(st.UngroupedTabs) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
	if st.ActiveGroupID != "" {
		t.Errorf("expected empty ActiveGroupID, got %q", st.ActiveGroupID)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	st := &types.PersistedState{
		Groups: []*types.TabGroup{
			{
				ID:            "g-1",
				Name:          "Research",
				Category:      types.CatResearch,
				Summary:       "papers on lz4",
				Created:       created,
				LastModified:  created.Add(time.Hour),
				NativeGroupID: 7,
				Color:         "blue",
				Collapsed:     true,
				Tabs: []*types.Tab{
					{BrowserID: 11, URL: "https://example.com/a", Title: "A", WindowID: 1, NativeGroupID: 7, LastAccessed: created},
				},
			},
		},
		ActiveGroupID: "g-1",
		LastSync:      created.Add(2 * time.Hour),
		UngroupedTabs: []*types.Tab{
			{BrowserID: 12, URL: "https://example.com/b", Title: "B", WindowID: 1, NativeGroupID: types.Ungrouped},
		},
		CurrentWindowID: 1,
	}

	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(got.Groups))
	}
	g := got.Groups[0]
	if g.ID != "g-1" || g.Name != "Research" || g.Category != types.CatResearch {
		t.Errorf("group mismatch: %+v", g)
	}
	if g.NativeGroupID != 7 || g.Color != "blue" || !g.Collapsed {
		t.Errorf("native fields mismatch: %+v", g)
	}
	if !g.Created.Equal(created) || !g.LastModified.Equal(created.Add(time.Hour)) {
		t.Errorf("timestamps not preserved: created=%v modified=%v", g.Created, g.LastModified)
	}
	if len(g.Tabs) != 1 || g.Tabs[0].BrowserID != 11 {
		t.Errorf("tabs mismatch: %+v", g.Tabs)
	}
	if got.ActiveGroupID != "g-1" || got.CurrentWindowID != 1 {
		t.Errorf("state fields mismatch: %+v", got)
	}
	if !got.LastSync.Equal(st.LastSync) {
		t.Errorf("LastSync not preserved: %v", got.LastSync)
	}
	if len(got.UngroupedTabs) != 1 || got.UngroupedTabs[0].NativeGroupID != types.Ungrouped {
		t.Errorf("ungrouped mismatch: %+v", got.UngroupedTabs)
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "sub", "dir", "state.json"))

	if err := s.Save(&types.PersistedState{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Fatalf("state file not found: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	if err := s.Save(&types.PersistedState{CurrentWindowID: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".state-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	s := testStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestTimestampsSerializeAsRFC3339(t *testing.T) {
	s := testStore(t)
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	if err := s.Save(&types.PersistedState{LastSync: ts}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"2026-01-02T15:04:05Z"`) {
		t.Errorf("lastSync not serialized as RFC3339: %s", data)
	}
}
