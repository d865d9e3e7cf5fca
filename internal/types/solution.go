package types

// ComponentVersion is a single candidate returned by a source.
type ComponentVersion struct {
	Version       string
	ComponentHash string
	Targets       []string
	Dependencies  []DependencyDecl
	// URL locates the artifact for registry candidates.
	URL string
	// Ref is the VCS reference the version was read from.
	Ref string
}

type SolvedComponent struct {
	Name          string           `yaml:"name"`
	Version       string           `yaml:"version"`
	ComponentHash string           `yaml:"component_hash,omitempty"`
	Source        SourceDescriptor `yaml:"source"`
	Dependencies  []string         `yaml:"dependencies,omitempty"`
	Path          string           `yaml:"-"`
}

// Solution is the resolved graph and also the lock document layout.
type Solution struct {
	SchemaVersion   string            `yaml:"version"`
	ManifestHash    string            `yaml:"manifest_hash"`
	Target          string            `yaml:"target,omitempty"`
	PlatformVersion string            `yaml:"platform_version,omitempty"`
	Components      []SolvedComponent `yaml:"dependencies,omitempty"`
}

func (s Solution) IsEmpty() bool {
	return s.ManifestHash == "" && len(s.Components) == 0
}

func (s Solution) Lookup(name string) (SolvedComponent, bool) {
	for _, component := range s.Components {
		if component.Name == name {
			return component, true
		}
	}
	return SolvedComponent{}, false
}

type FetchResult struct {
	Path string
	Hash string
}
