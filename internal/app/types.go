package app

import "component-manager/internal/types"

// EngineOptions configures the platform and the source backends of one
// run.
type EngineOptions struct {
	RegistryURL      string
	PlatformName     string
	PlatformVersion  string
	PlatformPath     string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	GitCacheDir      string
}

type ResolveRequest struct {
	ManifestPaths []string
	LockPath      string
	Target        string
	// Overrides are "name=path" directives.
	Overrides     []string
	InjectBuiltin string
	// Force re-resolves even when the lock is up to date.
	Force  bool
	Engine EngineOptions
}

type ResolveResult struct {
	LockPath string
	State    types.LockState
	Drift    types.DriftOutcome
	Solution types.Solution
	Hints    []string
}

type InstallRequest struct {
	ResolveRequest
	ComponentsDir string
}

type InstalledComponent struct {
	Name    string
	Version string
	Source  types.SourceKind
	Path    string
	Hash    string
}

type InstallResult struct {
	Resolve   ResolveResult
	Installed []InstalledComponent
}

type VerifyRequest struct {
	LockPath      string
	ComponentsDir string
}

type VerifyResult struct {
	Verified []string
	Skipped  []string
}

type InspectRequest struct {
	LockPath string
}

type InspectSourceSummary struct {
	Kind       types.SourceKind
	Count      int
	Components []string
}

type InspectResult struct {
	SchemaVersion   string
	ManifestHash    string
	Target          string
	PlatformVersion string
	Components      []types.SolvedComponent
	Sources         []InspectSourceSummary
}

type ValidateRequest struct {
	ManifestPaths []string
	Engine        EngineOptions
}

type ValidateResult struct {
	Manifests    []string
	Dependencies int
}

type PruneRequest struct {
	LockPath      string
	ComponentsDir string
	DryRun        bool
	Force         bool
}

// PruneEntry is one directory found under the components directory.
// Modified is set when the content no longer matches the hash recorded at
// install time, or when no hash was ever recorded.
type PruneEntry struct {
	Dir      string
	Modified bool
}

type PrunePlan struct {
	Keep      []PruneEntry
	Delete    []PruneEntry
	Protected []PruneEntry
}

type PruneResult struct {
	KeepCount   int
	DeleteCount int
	Deleted     []string
	Protected   []string
	DryRun      bool
}
