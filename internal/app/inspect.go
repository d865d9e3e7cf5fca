package app

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"component-manager/internal/core"
	"component-manager/internal/types"
)

func (s Service) Inspect(req InspectRequest) (InspectResult, error) {
	lockPath := strings.TrimSpace(req.LockPath)
	if lockPath == "" {
		lockPath = DefaultLockFile
	}
	lock, err := core.NewLockManager(s.LockStore, "").Load(lockPath)
	if err != nil {
		return InspectResult{}, err
	}
	if lock.IsEmpty() {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lock file not found: " + lockPath)
	}
	return InspectResult{
		SchemaVersion:   lock.SchemaVersion,
		ManifestHash:    lock.ManifestHash,
		Target:          lock.Target,
		PlatformVersion: lock.PlatformVersion,
		Components:      lock.Components,
		Sources:         summarizeSources(lock.Components),
	}, nil
}

func summarizeSources(components []types.SolvedComponent) []InspectSourceSummary {
	groups := map[types.SourceKind][]string{}
	for _, component := range components {
		groups[component.Source.Type] = append(groups[component.Source.Type], component.Name)
	}
	kinds := make([]types.SourceKind, 0, len(groups))
	for kind := range groups {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	summaries := make([]InspectSourceSummary, 0, len(kinds))
	for _, kind := range kinds {
		names := groups[kind]
		sort.Strings(names)
		summaries = append(summaries, InspectSourceSummary{Kind: kind, Count: len(names), Components: names})
	}
	return summaries
}
