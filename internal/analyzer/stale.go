package analyzer

import (
	"time"

	"github.com/lotas/tabgruppen/internal/types"
)

// AnalyzeStale flags tabs not accessed within the threshold. Tabs without
// an access time are left alone.
func AnalyzeStale(tabs []*types.Tab, thresholdDays int) {
	threshold := time.Duration(thresholdDays) * 24 * time.Hour
	now := time.Now()

	for _, tab := range tabs {
		if tab.LastAccessed.IsZero() {
			continue
		}
		age := now.Sub(tab.LastAccessed)
		if age > threshold {
			tab.IsStale = true
			tab.StaleDays = int(age.Hours() / 24)
		}
	}
}
