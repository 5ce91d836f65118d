package firefox

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/lotas/tabgruppen/internal/types"
)

// mozlz4 header: 8-byte magic "mozLz40\x00"
var mozLz4Magic = []byte("mozLz40\x00")

// DecompressMozLz4 decompresses data in Mozilla's mozlz4 format.
// The format is: 8-byte magic "mozLz40\x00" + 4-byte LE uint32 uncompressed size + lz4 block data.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12 // 8 magic + 4 size

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}

	for i := 0; i < len(mozLz4Magic); i++ {
		if data[i] != mozLz4Magic[i] {
			return nil, fmt.Errorf("mozlz4: invalid header magic")
		}
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[8:12])

	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}

	return dst[:n], nil
}

// Raw JSON types for Firefox session file parsing.
type rawEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type rawTab struct {
	Entries      []rawEntry `json:"entries"`
	Index        int        `json:"index"`
	LastAccessed int64      `json:"lastAccessed"`
	Image        string     `json:"image"`
	Pinned       bool       `json:"pinned"`
	Group        string     `json:"groupId"`
}

type rawGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
}

type rawWindow struct {
	Tabs   []rawTab   `json:"tabs"`
	Groups []rawGroup `json:"groups"`
}

type rawSession struct {
	Windows []rawWindow `json:"windows"`
}

// ParseSession parses raw session JSON into tabs and native groups, the same
// shape a live snapshot produces. Session files identify groups by string ID;
// numeric IDs are assigned in encounter order, starting at 1. Tabs in a group
// the session never defines are treated as ungrouped.
func ParseSession(data []byte) ([]*types.Tab, []*types.NativeGroup, error) {
	var raw rawSession
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse session JSON: %w", err)
	}

	var tabs []*types.Tab
	var groups []*types.NativeGroup
	nextGroupID := 1
	nextTabID := 1

	for winIdx, window := range raw.Windows {
		windowID := winIdx + 1

		groupIDs := make(map[string]int)
		for _, rg := range window.Groups {
			ng := &types.NativeGroup{
				ID:        nextGroupID,
				Title:     rg.Name,
				Color:     rg.Color,
				Collapsed: rg.Collapsed,
				WindowID:  windowID,
			}
			groupIDs[rg.ID] = ng.ID
			groups = append(groups, ng)
			nextGroupID++
		}

		for tabIdx, rt := range window.Tabs {
			if len(rt.Entries) == 0 {
				continue
			}

			// index is 1-based; current page is entries[index-1].
			entryIdx := rt.Index - 1
			if entryIdx < 0 || entryIdx >= len(rt.Entries) {
				entryIdx = len(rt.Entries) - 1
			}
			entry := rt.Entries[entryIdx]

			nativeID := types.Ungrouped
			if rt.Group != "" {
				if id, ok := groupIDs[rt.Group]; ok {
					nativeID = id
				}
			}

			tabs = append(tabs, &types.Tab{
				BrowserID:     nextTabID,
				URL:           entry.URL,
				Title:         entry.Title,
				WindowID:      windowID,
				NativeGroupID: nativeID,
				TabIndex:      tabIdx,
				Favicon:       rt.Image,
				LastAccessed:  time.UnixMilli(rt.LastAccessed),
				Pinned:        rt.Pinned,
			})
			nextTabID++
		}
	}

	return tabs, groups, nil
}

// ReadSessionFile reads and parses a Firefox session recovery file from the given profile directory.
// It tries recovery.jsonlz4 first (active session), then previous.jsonlz4 (last closed session).
func ReadSessionFile(profileDir string) ([]*types.Tab, []*types.NativeGroup, error) {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	var data []byte
	var err error
	for _, name := range []string{"recovery.jsonlz4", "previous.jsonlz4"} {
		data, err = os.ReadFile(filepath.Join(backupDir, name))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("no session file found in %s", backupDir)
	}

	decompressed, err := DecompressMozLz4(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decompress session file: %w", err)
	}

	return ParseSession(decompressed)
}
