package snapshot

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/types"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("OpenDB(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testState() *types.PersistedState {
	return &types.PersistedState{
		Groups: []*types.TabGroup{
			{
				ID: "g1", Name: "Work", Color: "blue",
				Category: types.CatWork, NativeGroupID: 5,
				Tabs: []*types.Tab{
					{BrowserID: 1, URL: "https://example.com", Title: "Example", NativeGroupID: 5, Pinned: true},
				},
			},
		},
		UngroupedTabs: []*types.Tab{
			{BrowserID: 2, URL: "https://loose.test", Title: "Loose", NativeGroupID: types.Ungrouped},
		},
		CurrentWindowID: 1,
	}
}

func TestCreateFirstSnapshot(t *testing.T) {
	db := testDB(t)

	rev, created, diff, err := Create(db, testState(), "default", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for first snapshot")
	}
	if rev != 1 {
		t.Errorf("expected rev 1, got %d", rev)
	}
	if diff != nil {
		t.Error("expected nil diff for first snapshot")
	}

	snap, err := storage.GetSnapshot(db, "default", 1)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.TabCount != 2 {
		t.Errorf("expected 2 tabs, got %d", snap.TabCount)
	}
	if len(snap.Groups) != 1 || snap.Groups[0].Category != "work" {
		t.Errorf("groups mismatch: %+v", snap.Groups)
	}
}

func TestCreateSkipsWhenUnchanged(t *testing.T) {
	db := testDB(t)
	st := testState()

	if _, _, _, err := Create(db, st, "default", ""); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	rev, created, _, err := Create(db, st, "default", "")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if created {
		t.Error("expected created=false when URL set is unchanged")
	}
	if rev != 1 {
		t.Errorf("expected rev 1 (latest), got %d", rev)
	}
}

func TestCreateDiffAgainstPrevious(t *testing.T) {
	db := testDB(t)
	st := testState()

	if _, _, _, err := Create(db, st, "default", ""); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	st.UngroupedTabs = append(st.UngroupedTabs,
		&types.Tab{BrowserID: 3, URL: "https://new.test", Title: "New", NativeGroupID: types.Ungrouped})

	rev, created, diff, err := Create(db, st, "default", "after adding")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if !created || rev != 2 {
		t.Fatalf("created=%v rev=%d, want true/2", created, rev)
	}
	if diff == nil || len(diff.Added) != 1 || diff.Added[0].URL != "https://new.test" {
		t.Errorf("diff mismatch: %+v", diff)
	}
}

func TestDiffAgainstCurrentDetectsMoves(t *testing.T) {
	db := testDB(t)
	st := testState()

	if _, _, _, err := Create(db, st, "default", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Move the loose tab into the Work group.
	moved := st.UngroupedTabs[0]
	st.UngroupedTabs = nil
	moved.NativeGroupID = 5
	st.Groups[0].Tabs = append(st.Groups[0].Tabs, moved)

	diff, err := DiffAgainstCurrent(db, "default", 0, st)
	if err != nil {
		t.Fatalf("DiffAgainstCurrent: %v", err)
	}
	if len(diff.Added) != 0 || len(diff.Removed) != 0 {
		t.Errorf("expected no adds/removes, got %+v", diff)
	}
	if len(diff.Moved) != 1 || diff.Moved[0].Group != "Work" {
		t.Errorf("expected 1 move into Work, got %+v", diff.Moved)
	}
}

func TestDiffRevisions(t *testing.T) {
	db := testDB(t)
	st := testState()

	if _, _, _, err := Create(db, st, "default", ""); err != nil {
		t.Fatalf("Create rev 1: %v", err)
	}

	st.Groups[0].Tabs = nil
	st.Groups = nil
	if _, _, _, err := Create(db, st, "default", ""); err != nil {
		t.Fatalf("Create rev 2: %v", err)
	}

	diff, err := DiffRevisions(db, "default", 1, 2)
	if err != nil {
		t.Fatalf("DiffRevisions: %v", err)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].URL != "https://example.com" {
		t.Errorf("removed mismatch: %+v", diff.Removed)
	}
}

func TestFormatDiff(t *testing.T) {
	d := &DiffResult{
		Label:   "#3",
		Added:   []DiffEntry{{URL: "https://a.test", Group: "Work"}},
		Removed: []DiffEntry{{URL: "https://b.test"}},
		Moved:   []DiffEntry{{URL: "https://c.test", Group: "News"}},
	}
	out := FormatDiff(d)
	for _, want := range []string{
		"Diff against snapshot #3",
		"+ https://a.test [Work]",
		"- https://b.test",
		"~ https://c.test -> [News]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := FormatDiff(&DiffResult{Label: "#1"})
	if !strings.Contains(empty, "No changes.") {
		t.Errorf("empty diff should say no changes:\n%s", empty)
	}
}
