package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// LocalSource points at a component directory on disk. It is never
// downloaded and its declared spec is not enforced: the directory is used
// as it is.
type LocalSource struct {
	manifests ports.ManifestPort
	path      string
	override  bool
	desc      types.SourceDescriptor
	hashKey   string
}

func newLocalSource(manifests ports.ManifestPort, details map[string]string) (LocalSource, error) {
	override := false
	dir := strings.TrimSpace(details["override_path"])
	if dir != "" {
		override = true
	} else {
		dir = strings.TrimSpace(details["path"])
	}
	if dir == "" {
		return LocalSource{}, shared.ConfigurationError("local source requires a path")
	}
	dir = filepath.Clean(dir)
	desc := types.SourceDescriptor{
		Type:   types.SourceKindLocal,
		Fields: []types.SourceField{{Key: "path", Value: dir}},
	}
	return LocalSource{
		manifests: manifests,
		path:      dir,
		override:  override,
		desc:      desc,
		hashKey:   hashDescriptor(desc),
	}, nil
}

func (s LocalSource) sealed() {}

func (s LocalSource) Kind() types.SourceKind { return types.SourceKindLocal }

func (s LocalSource) KnownKeys() []string {
	return withCommonKeys("path", "override_path")
}

func (s LocalSource) HashKey() string { return s.hashKey }

func (s LocalSource) Downloadable() bool { return false }

func (s LocalSource) ComponentHashRequired() bool { return false }

func (s LocalSource) Descriptor() types.SourceDescriptor { return s.desc }

func (s LocalSource) Path() string { return s.path }

// Override reports whether the source came from an override directive.
func (s LocalSource) Override() bool { return s.override }

func (s LocalSource) Versions(_ context.Context, name string, spec string) ([]types.ComponentVersion, error) {
	if err := newVersionCache(types.VersionSchemeSemver).checkSpec(spec); err != nil {
		return nil, err
	}
	info, err := os.Stat(s.path)
	if err != nil || !info.IsDir() {
		return nil, shared.ConfigurationError("local component %s: directory %s does not exist", name, s.path)
	}
	manifest, found, err := s.manifests.LoadDir(s.path)
	if err != nil {
		return nil, err
	}
	candidate := types.ComponentVersion{Version: anySpec}
	if found {
		if strings.TrimSpace(manifest.Version) != "" {
			candidate.Version = manifest.Version
		}
		candidate.Dependencies = manifest.Dependencies
		candidate.Targets = manifest.Targets
	}
	return []types.ComponentVersion{candidate}, nil
}

func (s LocalSource) Matches(_ string, spec string) (bool, error) {
	return true, newVersionCache(types.VersionSchemeSemver).checkSpec(spec)
}

func (s LocalSource) Download(_ context.Context, _ types.SolvedComponent, _ string) (string, error) {
	return s.path, nil
}
