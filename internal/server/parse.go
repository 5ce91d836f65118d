package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

type wireTab struct {
	ID           int    `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	LastAccessed int64  `json:"lastAccessed"`
	GroupID      *int   `json:"groupId"`
	WindowID     int    `json:"windowId"`
	Index        int    `json:"index"`
	FavIconURL   string `json:"favIconUrl"`
	Pinned       bool   `json:"pinned"`
}

type wireGroup struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
	WindowID  int    `json:"windowId"`
}

func (wt wireTab) toTab() *types.Tab {
	gid := types.Ungrouped
	if wt.GroupID != nil && *wt.GroupID >= 0 {
		gid = *wt.GroupID
	}
	return &types.Tab{
		BrowserID:     wt.ID,
		URL:           wt.URL,
		Title:         wt.Title,
		WindowID:      wt.WindowID,
		NativeGroupID: gid,
		TabIndex:      wt.Index,
		Favicon:       wt.FavIconURL,
		LastAccessed:  time.UnixMilli(wt.LastAccessed),
		Pinned:        wt.Pinned,
	}
}

// ParseSnapshot converts an IncomingMsg of type "snapshot" into the raw
// browser mirrors: all tabs and all native groups. Grouping decisions are
// left to the reconciler.
func ParseSnapshot(msg IncomingMsg) ([]*types.Tab, []*types.NativeGroup, error) {
	var wts []wireTab
	if err := json.Unmarshal(msg.Tabs, &wts); err != nil {
		return nil, nil, fmt.Errorf("parse tabs: %w", err)
	}
	var wgs []wireGroup
	if len(msg.Groups) > 0 {
		if err := json.Unmarshal(msg.Groups, &wgs); err != nil {
			return nil, nil, fmt.Errorf("parse groups: %w", err)
		}
	}

	tabs := make([]*types.Tab, 0, len(wts))
	for _, wt := range wts {
		tabs = append(tabs, wt.toTab())
	}

	groups := make([]*types.NativeGroup, 0, len(wgs))
	for _, wg := range wgs {
		groups = append(groups, &types.NativeGroup{
			ID:        wg.ID,
			Title:     wg.Title,
			Color:     wg.Color,
			Collapsed: wg.Collapsed,
			WindowID:  wg.WindowID,
		})
	}

	return tabs, groups, nil
}

// ParseTab converts a raw JSON tab into a Tab.
func ParseTab(raw json.RawMessage) (*types.Tab, error) {
	var wt wireTab
	if err := json.Unmarshal(raw, &wt); err != nil {
		return nil, err
	}
	return wt.toTab(), nil
}

// ParseGroup converts a raw JSON native group into a NativeGroup.
func ParseGroup(raw json.RawMessage) (*types.NativeGroup, error) {
	var wg wireGroup
	if err := json.Unmarshal(raw, &wg); err != nil {
		return nil, err
	}
	return &types.NativeGroup{
		ID:        wg.ID,
		Title:     wg.Title,
		Color:     wg.Color,
		Collapsed: wg.Collapsed,
		WindowID:  wg.WindowID,
	}, nil
}
