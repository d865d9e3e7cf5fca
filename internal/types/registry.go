package types

// RegistryIndex is the wire layout shared by the file and HTTP registry
// backends.
type RegistryIndex struct {
	Components map[string][]RegistryRelease `yaml:"components" json:"components"`
}

type RegistryRelease struct {
	Version       string               `yaml:"version" json:"version"`
	ComponentHash string               `yaml:"component_hash,omitempty" json:"component_hash,omitempty"`
	URL           string               `yaml:"url,omitempty" json:"url,omitempty"`
	Targets       []string             `yaml:"targets,omitempty" json:"targets,omitempty"`
	Dependencies  []RegistryDependency `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

type RegistryDependency struct {
	Name       string `yaml:"name" json:"name"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
	ServiceURL string `yaml:"service_url,omitempty" json:"service_url,omitempty"`
	Git        string `yaml:"git,omitempty" json:"git,omitempty"`
	Path       string `yaml:"path,omitempty" json:"path,omitempty"`
	Rules      []Rule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// ComponentVersion converts a release into a solver candidate.
func (r RegistryRelease) ComponentVersion() ComponentVersion {
	out := ComponentVersion{
		Version:       r.Version,
		ComponentHash: r.ComponentHash,
		Targets:       r.Targets,
		URL:           r.URL,
	}
	for _, dep := range r.Dependencies {
		details := map[string]string{}
		if dep.Version != "" {
			details["version"] = dep.Version
		}
		if dep.ServiceURL != "" {
			details["service_url"] = dep.ServiceURL
		}
		if dep.Git != "" {
			details["git"] = dep.Git
		}
		if dep.Path != "" {
			details["path"] = dep.Path
		}
		out.Dependencies = append(out.Dependencies, DependencyDecl{
			Name:    dep.Name,
			Details: details,
			Rules:   dep.Rules,
		})
	}
	return out
}
