package sync

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lotas/tabgruppen/internal/applog"
	"github.com/lotas/tabgruppen/internal/server"
	"github.com/lotas/tabgruppen/internal/state"
	"github.com/lotas/tabgruppen/internal/types"
)

// Bridge is the command side of the extension connection. *server.Server
// implements it; tests substitute a fake.
type Bridge interface {
	Send(msg server.OutgoingMsg) error
}

var cmdCounter atomic.Int64

func nextCmdID() string {
	return fmt.Sprintf("cmd-%d", cmdCounter.Add(1))
}

// Reconciler keeps the persisted application state consistent with the
// live browser. It is event-driven: any tab or group change event triggers
// a full re-query, and every snapshot replaces the whole state in one
// atomic write. Bridge commands are best-effort — a failure records an
// error and aborts only that operation; the next snapshot self-heals.
type Reconciler struct {
	store   *state.Store
	bridge  Bridge
	st      *types.PersistedState
	lastErr error

	// Categories chosen for groups that the browser has not created yet,
	// keyed by group name. Consumed on the first snapshot that shows them.
	pendingCategories map[string]types.Category
}

// New creates a Reconciler, loading whatever state was persisted last.
func New(store *state.Store, bridge Bridge) (*Reconciler, error) {
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		store:             store,
		bridge:            bridge,
		st:                st,
		pendingCategories: make(map[string]types.Category),
	}, nil
}

// State returns the current in-memory state.
func (r *Reconciler) State() *types.PersistedState {
	return r.st
}

// Err returns the error recorded by the last failed operation, if any.
func (r *Reconciler) Err() error {
	return r.lastErr
}

// HandleEvent processes one bridge message. Snapshots rebuild the state;
// any tab/group change event requests a fresh snapshot from the extension.
// It returns true when the state was replaced.
func (r *Reconciler) HandleEvent(msg server.IncomingMsg) (bool, error) {
	switch msg.Type {
	case "snapshot":
		tabs, native, err := server.ParseSnapshot(msg)
		if err != nil {
			r.lastErr = err
			return false, err
		}
		windowID := msg.WindowID
		if windowID == 0 {
			windowID = currentWindow(tabs)
		}
		return true, r.ApplySnapshot(tabs, native, windowID)

	case "tab.created", "tab.updated", "tab.moved", "tab.removed",
		"group.created", "group.updated", "group.removed":
		// Brute-force refresh: re-query everything on any change event.
		if err := r.bridge.Send(server.OutgoingMsg{ID: nextCmdID(), Action: "query"}); err != nil {
			r.lastErr = fmt.Errorf("request snapshot: %w", err)
			return false, r.lastErr
		}
		return false, nil
	}
	return false, nil
}

// ApplySnapshot rebuilds the state from raw browser mirrors and persists
// it as one whole-document write.
func (r *Reconciler) ApplySnapshot(tabs []*types.Tab, native []*types.NativeGroup, windowID int) error {
	st := BuildState(r.st, tabs, native, windowID, time.Now())

	// Attach categories picked before the browser materialized the group.
	for _, g := range st.Groups {
		if cat, ok := r.pendingCategories[g.Name]; ok && r.st.FindGroupByNative(g.NativeGroupID) == nil {
			g.Category = cat
			delete(r.pendingCategories, g.Name)
		}
	}

	if err := r.store.Save(st); err != nil {
		r.lastErr = err
		return err
	}
	r.st = st
	r.lastErr = nil
	applog.Info("sync.rebuilt", "groups", len(st.Groups), "ungrouped", len(st.UngroupedTabs), "window", windowID)
	return nil
}

// CreateGroup asks the browser to create a native group containing the
// given tabs. The application-level group appears on the next snapshot;
// the chosen category is attached to it then.
func (r *Reconciler) CreateGroup(name string, category types.Category, color string, tabIDs []int) error {
	if len(tabIDs) == 0 {
		return fmt.Errorf("create group %q: no tabs", name)
	}
	if err := r.bridge.Send(server.OutgoingMsg{
		ID:     nextCmdID(),
		Action: "create-group",
		Name:   name,
		Color:  color,
		TabIDs: tabIDs,
	}); err != nil {
		r.lastErr = fmt.Errorf("create group %q: %w", name, err)
		return r.lastErr
	}
	r.pendingCategories[name] = category
	applog.Info("sync.group.create", "name", name, "tabs", len(tabIDs))
	return nil
}

// DeleteGroup destroys an application-level group: its native group is
// dissolved and its tabs become ungrouped. The local state is updated
// immediately so invariants hold even before the next snapshot.
func (r *Reconciler) DeleteGroup(id string) error {
	group := r.st.FindGroup(id)
	if group == nil {
		return fmt.Errorf("group %q not found", id)
	}

	if group.NativeGroupID != types.Ungrouped {
		if err := r.bridge.Send(server.OutgoingMsg{
			ID:      nextCmdID(),
			Action:  "ungroup",
			GroupID: group.NativeGroupID,
		}); err != nil {
			r.lastErr = fmt.Errorf("ungroup %q: %w", group.Name, err)
			return r.lastErr
		}
	}

	st := *r.st
	st.Groups = nil
	for _, g := range r.st.Groups {
		if g.ID == id {
			continue
		}
		st.Groups = append(st.Groups, g)
	}
	for _, t := range group.Tabs {
		tab := *t
		tab.NativeGroupID = types.Ungrouped
		st.UngroupedTabs = append(st.UngroupedTabs, &tab)
	}
	if st.ActiveGroupID == id {
		st.ActiveGroupID = ""
	}
	st.LastSync = time.Now()

	if err := r.store.Save(&st); err != nil {
		r.lastErr = err
		return err
	}
	r.st = &st
	applog.Info("sync.group.delete", "name", group.Name, "tabs", len(group.Tabs))
	return nil
}

// RenameGroup renames a group in the browser and locally.
func (r *Reconciler) RenameGroup(id, name string) error {
	group := r.st.FindGroup(id)
	if group == nil {
		return fmt.Errorf("group %q not found", id)
	}
	if group.NativeGroupID != types.Ungrouped {
		if err := r.bridge.Send(server.OutgoingMsg{
			ID:      nextCmdID(),
			Action:  "update-group",
			GroupID: group.NativeGroupID,
			Name:    name,
		}); err != nil {
			r.lastErr = fmt.Errorf("rename group %q: %w", group.Name, err)
			return r.lastErr
		}
	}
	group.Name = name
	group.LastModified = time.Now()
	if err := r.store.Save(r.st); err != nil {
		r.lastErr = err
		return err
	}
	return nil
}

// SetCategory updates a group's category, which only exists app-side.
func (r *Reconciler) SetCategory(id string, category types.Category) error {
	group := r.st.FindGroup(id)
	if group == nil {
		return fmt.Errorf("group %q not found", id)
	}
	group.Category = category
	group.LastModified = time.Now()
	if err := r.store.Save(r.st); err != nil {
		r.lastErr = err
		return err
	}
	return nil
}

// SetSummary stores a generated description on a group. Summaries are
// app-level metadata, so nothing goes over the bridge.
func (r *Reconciler) SetSummary(id, summary string) error {
	group := r.st.FindGroup(id)
	if group == nil {
		return fmt.Errorf("group %q not found", id)
	}
	group.Summary = summary
	group.LastModified = time.Now()
	if err := r.store.Save(r.st); err != nil {
		r.lastErr = err
		return err
	}
	return nil
}

// SetActive marks a group as active. Empty id clears the selection.
func (r *Reconciler) SetActive(id string) error {
	if id != "" && r.st.FindGroup(id) == nil {
		return fmt.Errorf("group %q not found", id)
	}
	r.st.ActiveGroupID = id
	if err := r.store.Save(r.st); err != nil {
		r.lastErr = err
		return err
	}
	return nil
}

// MoveTabs moves tabs into the native group of the given app group.
// The resulting membership change comes back via the next snapshot.
func (r *Reconciler) MoveTabs(tabIDs []int, groupID string) error {
	group := r.st.FindGroup(groupID)
	if group == nil {
		return fmt.Errorf("group %q not found", groupID)
	}
	if group.NativeGroupID == types.Ungrouped {
		return fmt.Errorf("group %q has no native group", group.Name)
	}
	if err := r.bridge.Send(server.OutgoingMsg{
		ID:      nextCmdID(),
		Action:  "move",
		TabIDs:  tabIDs,
		GroupID: group.NativeGroupID,
	}); err != nil {
		r.lastErr = fmt.Errorf("move tabs to %q: %w", group.Name, err)
		return r.lastErr
	}
	return nil
}

// currentWindow picks the window to reconcile when the snapshot does not
// say: the window of the first tab.
func currentWindow(tabs []*types.Tab) int {
	if len(tabs) == 0 {
		return 0
	}
	return tabs[0].WindowID
}
