package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/server"
	"github.com/lotas/tabgruppen/internal/storage"
	"github.com/lotas/tabgruppen/internal/types"
)

// Create persists the current group layout as a numbered revision for the
// profile. It first checks the latest revision and skips saving if the URL
// sets are identical. Returns the rev number, whether a new snapshot was
// created, the diff against the previous snapshot (nil if first), and error.
func Create(db *sql.DB, st *types.PersistedState, profile, label string) (rev int, created bool, diff *DiffResult, err error) {
	latest, err := storage.GetLatestSnapshot(db, profile)
	if err != nil {
		return 0, false, nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	allTabs := st.AllTabs()

	if latest != nil {
		latestURLs := make(map[string]bool, len(latest.Tabs))
		for _, tab := range latest.Tabs {
			latestURLs[tab.URL] = true
		}
		currentURLs := make(map[string]bool, len(allTabs))
		for _, tab := range allTabs {
			currentURLs[tab.URL] = true
		}

		identical := len(latestURLs) == len(currentURLs)
		if identical {
			for url := range currentURLs {
				if !latestURLs[url] {
					identical = false
					break
				}
			}
		}

		if identical {
			applog.Info("snapshot.skipped", "profile", profile, "rev", latest.Rev)
			return latest.Rev, false, nil, nil
		}
	}

	var groups []storage.SnapshotGroup
	groupIndex := make(map[string]int) // app group ID -> index in groups slice
	for _, g := range st.Groups {
		groupIndex[g.ID] = len(groups)
		groups = append(groups, storage.SnapshotGroup{
			NativeID: g.NativeGroupID,
			Name:     g.Name,
			Color:    g.Color,
			Category: string(g.Category),
		})
	}

	tabs := make([]storage.SnapshotTab, 0, len(allTabs))
	for _, g := range st.Groups {
		idx := groupIndex[g.ID]
		for _, t := range g.Tabs {
			tabs = append(tabs, storage.SnapshotTab{
				URL:        t.URL,
				Title:      t.Title,
				Pinned:     t.Pinned,
				GroupIndex: &idx,
			})
		}
	}
	for _, t := range st.UngroupedTabs {
		tabs = append(tabs, storage.SnapshotTab{
			URL:    t.URL,
			Title:  t.Title,
			Pinned: t.Pinned,
		})
	}

	newRev, err := storage.CreateSnapshot(db, profile, groups, tabs, label)
	if err != nil {
		return 0, false, nil, err
	}

	applog.Info("snapshot.created", "rev", newRev, "tabs", len(tabs), "profile", profile)

	if latest != nil {
		diff = diffSnapshotState(latest, st)
	}

	return newRev, true, diff, nil
}

// Restore reopens tabs from a snapshot via the live mode WebSocket bridge.
func Restore(db *sql.DB, profile string, rev int, port int) error {
	applog.Info("snapshot.restore.start", "rev", rev, "profile", profile)
	snap, err := storage.GetSnapshot(db, profile, rev)
	if err != nil {
		return err
	}

	srv := server.New(port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.ListenAndServe(ctx)

	fmt.Fprintf(os.Stderr, "Waiting for browser extension on port %d...\n", port)

	// Wait for initial "snapshot" message from extension (confirms connection).
	select {
	case msg := <-srv.Messages():
		if msg.Type != "snapshot" {
			return fmt.Errorf("expected initial \"snapshot\" message, got %q", msg.Type)
		}
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timed out waiting for extension to connect")
	}

	if err := replay(srv, snap); err != nil {
		return err
	}

	applog.Info("snapshot.restore.done", "rev", rev, "tabs", len(snap.Tabs))
	fmt.Fprintf(os.Stderr, "Restored %d tabs from snapshot #%d\n", len(snap.Tabs), rev)
	return nil
}

// waitResponse reads messages until the response for the given command ID
// arrives, discarding interleaved events.
func waitResponse(srv *server.Server, id string, timeout time.Duration) (server.IncomingMsg, error) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-srv.Messages():
			if msg.ID == id {
				return msg, nil
			}
		case <-deadline:
			return server.IncomingMsg{}, fmt.Errorf("timed out waiting for response to %s", id)
		}
	}
}

// replay recreates a snapshot's groups and tabs in the connected browser.
// Each group's tabs open directly into the native group the browser just
// assigned, so the saved grouping survives the restore.
func replay(srv *server.Server, snap *storage.SnapshotFull) error {
	nativeIDs := make([]int, len(snap.Groups))
	for i, g := range snap.Groups {
		msgID := fmt.Sprintf("create-group-%d", i)
		if err := srv.Send(server.OutgoingMsg{
			ID:     msgID,
			Action: "create-group",
			Name:   g.Name,
			Color:  g.Color,
		}); err != nil {
			return fmt.Errorf("send create-group for %q: %w", g.Name, err)
		}

		resp, err := waitResponse(srv, msgID, 5*time.Second)
		if err != nil {
			return fmt.Errorf("create-group %q: %w", g.Name, err)
		}
		if resp.OK != nil && !*resp.OK {
			return fmt.Errorf("create-group %q failed: %s", g.Name, resp.Error)
		}
		nativeIDs[i] = resp.GroupID
	}

	for i, g := range snap.Groups {
		var tabs []server.TabToOpen
		for _, t := range snap.Tabs {
			if t.GroupIndex != nil && *t.GroupIndex == i {
				tabs = append(tabs, server.TabToOpen{URL: t.URL, Pinned: t.Pinned})
			}
		}
		if len(tabs) == 0 {
			continue
		}

		msgID := fmt.Sprintf("open-group-%d", i)
		if err := srv.Send(server.OutgoingMsg{
			ID:      msgID,
			Action:  "open",
			GroupID: nativeIDs[i],
			Tabs:    tabs,
		}); err != nil {
			return fmt.Errorf("send open for group %q: %w", g.Name, err)
		}
		resp, err := waitResponse(srv, msgID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("open tabs for group %q: %w", g.Name, err)
		}
		if resp.OK != nil && !*resp.OK {
			return fmt.Errorf("open tabs for group %q failed: %s", g.Name, resp.Error)
		}
	}

	var ungrouped []server.TabToOpen
	for _, t := range snap.Tabs {
		if t.GroupIndex == nil {
			ungrouped = append(ungrouped, server.TabToOpen{URL: t.URL, Pinned: t.Pinned})
		}
	}
	if len(ungrouped) > 0 {
		if err := srv.Send(server.OutgoingMsg{
			ID:     "open-ungrouped",
			Action: "open",
			Tabs:   ungrouped,
		}); err != nil {
			return fmt.Errorf("send open ungrouped tabs: %w", err)
		}
		resp, err := waitResponse(srv, "open-ungrouped", 30*time.Second)
		if err != nil {
			return err
		}
		if resp.OK != nil && !*resp.OK {
			return fmt.Errorf("open ungrouped tabs failed: %s", resp.Error)
		}
	}

	return nil
}
