package policies

import (
	"path/filepath"
	"sort"
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// CollectOverrides merges override directives from the resolution
// context with override_path declarations of the project manifests. The
// result maps a normalized identity to the directory that replaces every
// other source of that component. Two different directories for one
// identity are a configuration error.
func CollectOverrides(contextOverrides map[string]string, rootDecls []types.DependencyDecl) (map[string]string, error) {
	out := map[string]string{}
	add := func(name string, dir string, origin string) error {
		identity := shared.NormalizeName(name)
		if identity == "" || strings.TrimSpace(dir) == "" {
			return shared.ConfigurationError("invalid override %q=%q from %s", name, dir, origin)
		}
		dir = filepath.Clean(strings.TrimSpace(dir))
		if existing, ok := out[identity]; ok && existing != dir {
			return shared.ConfigurationError("conflicting overrides for %s: %s and %s", identity, existing, dir)
		}
		out[identity] = dir
		return nil
	}
	names := make([]string, 0, len(contextOverrides))
	for name := range contextOverrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := add(name, contextOverrides[name], "context"); err != nil {
			return nil, err
		}
	}
	for _, decl := range rootDecls {
		dir := decl.Details["override_path"]
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := add(decl.Name, dir, "manifest"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParseOverrideFlags parses "name=path" pairs.
func ParseOverrideFlags(values []string) (map[string]string, error) {
	out := map[string]string{}
	for _, raw := range values {
		name, dir, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(dir) == "" {
			return nil, shared.ConfigurationError("invalid override %q, expected name=path", raw)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(dir)
	}
	return out, nil
}
