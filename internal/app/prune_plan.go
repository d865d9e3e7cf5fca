package app

import (
	"sort"
)

// BuildPrunePlan splits installed directories into the ones the lock still
// references, the stale ones to delete and the stale ones that were
// modified locally. Modified directories are only deleted with force.
func BuildPrunePlan(installed []PruneEntry, locked map[string]struct{}, force bool) PrunePlan {
	sorted := append([]PruneEntry(nil), installed...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Dir < sorted[j].Dir
	})

	var plan PrunePlan
	for _, entry := range sorted {
		switch {
		case isLocked(entry, locked):
			plan.Keep = append(plan.Keep, entry)
		case entry.Modified && !force:
			plan.Protected = append(plan.Protected, entry)
		default:
			plan.Delete = append(plan.Delete, entry)
		}
	}
	return plan
}

func isLocked(entry PruneEntry, locked map[string]struct{}) bool {
	_, ok := locked[entry.Dir]
	return ok
}

func entryDirs(entries []PruneEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Dir)
	}
	return out
}
