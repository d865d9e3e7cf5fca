package app

import (
	"fmt"
	"sort"
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// resolveHints returns advice about inputs that had no effect on the
// resolution and about lock entries install will refuse.
func resolveHints(plan resolvePlan, solution types.Solution) []string {
	var hints []string
	names := make([]string, 0, len(plan.rc.Overrides))
	for name := range plan.rc.Overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := solution.Lookup(shared.NormalizeName(name)); !ok {
			hints = append(hints, fmt.Sprintf(
				"hint: --override %s=%s matched no dependency; check the component name",
				name, plan.rc.Overrides[name],
			))
		}
	}
	for _, manifest := range plan.tree.Manifests {
		for _, decl := range manifest.Dependencies {
			if strings.TrimSpace(decl.Details["path"]) == "" && strings.TrimSpace(decl.Details["override_path"]) == "" {
				continue
			}
			if spec := decl.Spec(); spec != "*" {
				hints = append(hints, fmt.Sprintf(
					"hint: %s is a local component; its version spec %q is not enforced",
					decl.Name, spec,
				))
			}
		}
	}
	for _, component := range solution.Components {
		if component.Source.Type == types.SourceKindRegistry && strings.TrimSpace(component.ComponentHash) == "" {
			hints = append(hints, fmt.Sprintf(
				"hint: %s %s has no component_hash; install refuses it from this lock, use install --force to resolve again and record it",
				component.Name, component.Version,
			))
		}
	}
	return hints
}
