package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotSummary holds the metadata for a saved group layout.
type SnapshotSummary struct {
	ID        int64
	Rev       int
	Name      string // optional label
	Profile   string
	CreatedAt time.Time
	TabCount  int
}

// SnapshotGroup represents one tab group within a snapshot.
type SnapshotGroup struct {
	ID       int64 // set after insert
	NativeID int   // browser tab-group ID at capture time
	Name     string
	Color    string
	Category string
}

// SnapshotTab represents a single tab within a snapshot.
type SnapshotTab struct {
	URL        string
	Title      string
	GroupIndex *int // index into groups slice; nil = ungrouped
	Pinned     bool
	GroupName  string // populated by GetSnapshot
}

// SnapshotFull is a snapshot with its groups and tabs.
type SnapshotFull struct {
	SnapshotSummary
	Groups []SnapshotGroup
	Tabs   []SnapshotTab
}

// migration is a numbered schema change. Migrations are applied in order
// and tracked in the schema_migrations table so each runs exactly once.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS snapshots (
    id          INTEGER PRIMARY KEY,
    rev         INTEGER NOT NULL,
    name        TEXT,
    profile     TEXT NOT NULL,
    created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
    tab_count   INTEGER NOT NULL,
    UNIQUE(profile, rev)
);
CREATE TABLE IF NOT EXISTS snapshot_groups (
    id          INTEGER PRIMARY KEY,
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    native_id   INTEGER NOT NULL,
    name        TEXT NOT NULL,
    color       TEXT
);
CREATE TABLE IF NOT EXISTS snapshot_tabs (
    id          INTEGER PRIMARY KEY,
    snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    group_id    INTEGER REFERENCES snapshot_groups(id),
    url         TEXT NOT NULL,
    title       TEXT NOT NULL,
    pinned      BOOLEAN DEFAULT FALSE
);`,
	},
	{
		Version:     2,
		Description: "add category column to snapshot_groups",
		SQL:         `ALTER TABLE snapshot_groups ADD COLUMN category TEXT DEFAULT '';`,
	},
}

// OpenDB opens (or creates) a SQLite database at the given path.
// It creates parent directories if needed, enables foreign keys and WAL mode,
// and runs any pending migrations.
func OpenDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// WAL for better concurrency between the TUI and subcommands.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// runMigrations ensures the schema_migrations table exists and applies any
// pending migrations in order.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// DefaultDBPath returns the default database file path:
// ~/.local/share/tabgruppen/tabgruppen.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tabgruppen", "tabgruppen.db"), nil
}

// CreateSnapshot inserts a new snapshot with its groups and tabs in a single
// transaction. The rev number is auto-assigned per profile. Label is optional
// (empty string = no label). Returns the assigned rev number.
func CreateSnapshot(db *sql.DB, profile string, groups []SnapshotGroup, tabs []SnapshotTab, label string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Assign next rev for this profile.
	var rev int
	err = tx.QueryRow("SELECT COALESCE(MAX(rev), 0) + 1 FROM snapshots WHERE profile = ?", profile).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("compute next rev: %w", err)
	}

	// Convert empty label to nil for SQL.
	var nameVal interface{}
	if label != "" {
		nameVal = label
	}

	res, err := tx.Exec(
		"INSERT INTO snapshots (rev, name, profile, tab_count) VALUES (?, ?, ?, ?)",
		rev, nameVal, profile, len(tabs),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get snapshot id: %w", err)
	}

	// Insert groups and record their DB IDs (indexed by slice position).
	groupIDs := make([]int64, len(groups))
	for i, g := range groups {
		res, err := tx.Exec(
			"INSERT INTO snapshot_groups (snapshot_id, native_id, name, color, category) VALUES (?, ?, ?, ?, ?)",
			snapID, g.NativeID, g.Name, g.Color, g.Category,
		)
		if err != nil {
			return 0, fmt.Errorf("insert group %q: %w", g.Name, err)
		}
		gID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("get group id: %w", err)
		}
		groupIDs[i] = gID
	}

	for _, tab := range tabs {
		var groupID *int64
		if tab.GroupIndex != nil {
			idx := *tab.GroupIndex
			if idx < 0 || idx >= len(groupIDs) {
				return 0, fmt.Errorf("tab %q has invalid group index %d", tab.URL, idx)
			}
			gid := groupIDs[idx]
			groupID = &gid
		}
		_, err := tx.Exec(
			"INSERT INTO snapshot_tabs (snapshot_id, group_id, url, title, pinned) VALUES (?, ?, ?, ?, ?)",
			snapID, groupID, tab.URL, tab.Title, tab.Pinned,
		)
		if err != nil {
			return 0, fmt.Errorf("insert tab %q: %w", tab.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return rev, nil
}

// ListSnapshots returns all snapshots ordered by creation time descending.
func ListSnapshots(db *sql.DB) ([]SnapshotSummary, error) {
	rows, err := db.Query(
		"SELECT id, rev, name, profile, created_at, tab_count FROM snapshots ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var result []SnapshotSummary
	for rows.Next() {
		var s SnapshotSummary
		var name sql.NullString
		if err := rows.Scan(&s.ID, &s.Rev, &name, &s.Profile, &s.CreatedAt, &s.TabCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if name.Valid {
			s.Name = name.String
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// ListSnapshotsByProfile returns snapshots for a specific profile, ordered by
// creation time descending.
func ListSnapshotsByProfile(db *sql.DB, profile string) ([]SnapshotSummary, error) {
	rows, err := db.Query(
		"SELECT id, rev, name, profile, created_at, tab_count FROM snapshots WHERE profile = ? ORDER BY created_at DESC, id DESC",
		profile,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var result []SnapshotSummary
	for rows.Next() {
		var s SnapshotSummary
		var name sql.NullString
		if err := rows.Scan(&s.ID, &s.Rev, &name, &s.Profile, &s.CreatedAt, &s.TabCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if name.Valid {
			s.Name = name.String
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSnapshot loads a full snapshot by profile and rev number.
// Each tab's GroupName field is populated from the associated group.
func GetSnapshot(db *sql.DB, profile string, rev int) (*SnapshotFull, error) {
	snap := &SnapshotFull{}

	var name sql.NullString
	err := db.QueryRow(
		"SELECT id, rev, name, profile, created_at, tab_count FROM snapshots WHERE profile = ? AND rev = ?",
		profile, rev,
	).Scan(&snap.ID, &snap.Rev, &name, &snap.Profile, &snap.CreatedAt, &snap.TabCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("snapshot rev %d not found for profile %q", rev, profile)
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	if name.Valid {
		snap.Name = name.String
	}

	groupRows, err := db.Query(
		"SELECT id, native_id, name, color, category FROM snapshot_groups WHERE snapshot_id = ?",
		snap.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer groupRows.Close()

	groupNameByID := make(map[int64]string)
	for groupRows.Next() {
		var g SnapshotGroup
		var color, category sql.NullString
		if err := groupRows.Scan(&g.ID, &g.NativeID, &g.Name, &color, &category); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.Color = color.String
		g.Category = category.String
		snap.Groups = append(snap.Groups, g)
		groupNameByID[g.ID] = g.Name
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	tabRows, err := db.Query(
		"SELECT url, title, group_id, pinned FROM snapshot_tabs WHERE snapshot_id = ?",
		snap.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tabs: %w", err)
	}
	defer tabRows.Close()

	for tabRows.Next() {
		var tab SnapshotTab
		var groupID *int64
		if err := tabRows.Scan(&tab.URL, &tab.Title, &groupID, &tab.Pinned); err != nil {
			return nil, fmt.Errorf("scan tab: %w", err)
		}
		if groupID != nil {
			if gName, ok := groupNameByID[*groupID]; ok {
				tab.GroupName = gName
			}
		}
		snap.Tabs = append(snap.Tabs, tab)
	}
	if err := tabRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tabs: %w", err)
	}

	return snap, nil
}

// GetLatestSnapshot returns the most recent snapshot for a profile.
// Returns nil, nil if no snapshots exist for the profile.
func GetLatestSnapshot(db *sql.DB, profile string) (*SnapshotFull, error) {
	var rev int
	err := db.QueryRow(
		"SELECT rev FROM snapshots WHERE profile = ? ORDER BY rev DESC LIMIT 1",
		profile,
	).Scan(&rev)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest rev: %w", err)
	}
	return GetSnapshot(db, profile, rev)
}

// DeleteSnapshot removes a snapshot by profile and rev. Groups and tabs are
// cascade-deleted. Returns an error if the snapshot does not exist.
func DeleteSnapshot(db *sql.DB, profile string, rev int) error {
	res, err := db.Exec("DELETE FROM snapshots WHERE profile = ? AND rev = ?", profile, rev)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("snapshot rev %d not found for profile %q", rev, profile)
	}
	return nil
}
