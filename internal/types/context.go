package types

// ResolutionContext carries the environment a resolution is computed for.
type ResolutionContext struct {
	Target          string
	PlatformVersion string
	PlatformPath    string
	// Overrides maps a component identity to a local directory that
	// replaces every other source declared for it.
	Overrides    map[string]string
	InjectPolicy InjectPolicy
}
