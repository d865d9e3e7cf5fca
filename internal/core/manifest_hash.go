package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"gopkg.in/yaml.v3"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

type hashedDependency struct {
	Name    string              `yaml:"name"`
	Details []types.SourceField `yaml:"details,omitempty"`
	Rules   []string            `yaml:"rules,omitempty"`
}

type hashedManifest struct {
	Name         string             `yaml:"name"`
	Version      string             `yaml:"version,omitempty"`
	Targets      []string           `yaml:"targets,omitempty"`
	Dependencies []hashedDependency `yaml:"dependencies,omitempty"`
}

type hashedInput struct {
	Manifests    []hashedManifest    `yaml:"manifests"`
	Overrides    []types.SourceField `yaml:"overrides,omitempty"`
	InjectPolicy string              `yaml:"inject_policy,omitempty"`
}

// ManifestHash digests the top-level requirements: every project
// manifest with its declarations, plus context overrides and the
// injection policy. Declaration order does not affect the digest.
func ManifestHash(tree types.ManifestTree, rc types.ResolutionContext) (string, error) {
	input := hashedInput{InjectPolicy: string(rc.InjectPolicy)}
	for _, manifest := range tree.Manifests {
		hashed := hashedManifest{
			Name:    shared.NormalizeName(manifest.Name),
			Version: manifest.Version,
			Targets: sortedCopy(manifest.Targets),
		}
		for _, decl := range manifest.Dependencies {
			dep := hashedDependency{Name: shared.NormalizeName(decl.Name)}
			for key, value := range decl.Details {
				dep.Details = append(dep.Details, types.SourceField{Key: key, Value: value})
			}
			sort.Slice(dep.Details, func(i, j int) bool {
				return dep.Details[i].Key < dep.Details[j].Key
			})
			for _, rule := range decl.Rules {
				dep.Rules = append(dep.Rules, rule.If)
			}
			hashed.Dependencies = append(hashed.Dependencies, dep)
		}
		sort.SliceStable(hashed.Dependencies, func(i, j int) bool {
			return hashed.Dependencies[i].Name < hashed.Dependencies[j].Name
		})
		input.Manifests = append(input.Manifests, hashed)
	}
	sort.SliceStable(input.Manifests, func(i, j int) bool {
		return input.Manifests[i].Name < input.Manifests[j].Name
	})
	for name, dir := range rc.Overrides {
		input.Overrides = append(input.Overrides, types.SourceField{Key: shared.NormalizeName(name), Value: dir})
	}
	sort.Slice(input.Overrides, func(i, j int) bool {
		return input.Overrides[i].Key < input.Overrides[j].Key
	})
	data, err := yaml.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
