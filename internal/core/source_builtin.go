package core

import (
	"context"
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// PlatformConfig describes the platform pseudo-component.
type PlatformConfig struct {
	Name    string
	Version string
	Path    string
}

const DefaultPlatformName = "idf"

// BuiltinSource exposes the installed platform as a component with a
// single version.
type BuiltinSource struct {
	platform PlatformConfig
	desc     types.SourceDescriptor
	hashKey  string
}

func newBuiltinSource(platform PlatformConfig) BuiltinSource {
	desc := types.SourceDescriptor{Type: types.SourceKindBuiltin}
	return BuiltinSource{
		platform: platform,
		desc:     desc,
		hashKey:  hashDescriptor(desc),
	}
}

func (s BuiltinSource) sealed() {}

func (s BuiltinSource) Kind() types.SourceKind { return types.SourceKindBuiltin }

func (s BuiltinSource) KnownKeys() []string { return withCommonKeys() }

func (s BuiltinSource) HashKey() string { return s.hashKey }

func (s BuiltinSource) Downloadable() bool { return false }

func (s BuiltinSource) ComponentHashRequired() bool { return false }

func (s BuiltinSource) Descriptor() types.SourceDescriptor { return s.desc }

func (s BuiltinSource) Versions(_ context.Context, name string, spec string) ([]types.ComponentVersion, error) {
	version := strings.TrimSpace(s.platform.Version)
	if version == "" {
		return nil, shared.ConfigurationError("platform version is required to resolve %s", name)
	}
	ok, err := s.Matches(version, spec)
	if err != nil || !ok {
		return nil, err
	}
	return []types.ComponentVersion{{Version: version}}, nil
}

func (s BuiltinSource) Matches(version string, spec string) (bool, error) {
	return newVersionCache(types.VersionSchemeSemver).satisfies(version, spec, true)
}

func (s BuiltinSource) Download(_ context.Context, _ types.SolvedComponent, _ string) (string, error) {
	return s.platform.Path, nil
}
