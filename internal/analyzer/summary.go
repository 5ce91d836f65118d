package analyzer

import "github.com/lotas/tabgruppen/internal/types"

// ComputeStats aggregates counts over the whole state, including tabs that
// belong to no group.
func ComputeStats(st *types.PersistedState) types.Stats {
	stats := types.Stats{
		TotalGroups:   len(st.Groups),
		UngroupedTabs: len(st.UngroupedTabs),
	}
	for _, tab := range st.AllTabs() {
		stats.TotalTabs++
		if tab.IsStale {
			stats.StaleTabs++
		}
		if tab.IsDead {
			stats.DeadTabs++
		}
		if tab.IsDuplicate {
			stats.DuplicateTabs++
		}
	}
	return stats
}
