package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"component-manager/internal/ports/mocks"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

func versionsOf(candidates []types.ComponentVersion) []string {
	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, candidate.Version)
	}
	return out
}

// ---------------------------------------------------------------------------
// SourceBuilder
// ---------------------------------------------------------------------------

func TestBuildSelectsKindInPriorityOrder(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	tests := []struct {
		name    string
		details map[string]string
		kind    types.SourceKind
	}{
		{"example/cmp", map[string]string{"version": "^1.0"}, types.SourceKindRegistry},
		{"example/cmp", map[string]string{"path": "../cmp"}, types.SourceKindLocal},
		{"example/cmp", map[string]string{"git": "https://git.test/cmp.git", "path": "sub"}, types.SourceKindGit},
		{"idf", map[string]string{"version": ">=5.0"}, types.SourceKindBuiltin},
		{"IDF", map[string]string{}, types.SourceKindBuiltin},
		{"idf", map[string]string{"path": "/opt/other-idf"}, types.SourceKindLocal},
		{"idf", map[string]string{"override_path": "/opt/patched-idf"}, types.SourceKindLocal},
		{"idf", map[string]string{"git": "https://git.test/idf.git"}, types.SourceKindGit},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+" "+tt.name, func(t *testing.T) {
			source, err := builder.Build(tt.name, tt.details)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, source.Kind())
		})
	}
}

func TestBuildUnknownSource(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	_, err := builder.Build("Not A Valid Name!", map[string]string{})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
	assert.Contains(t, shared.ErrorMessage(err), "unknown source for component: Not A Valid Name!")
}

func TestBuildUnknownKeySuggestsNearest(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	_, err := builder.Build("example/cmp", map[string]string{
		"version":    "*",
		"servce_url": "https://other.test",
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
	assert.Contains(t, shared.ErrorMessage(err), `unknown key "servce_url"`)
	assert.Contains(t, shared.ErrorMessage(err), `did you mean "service_url"?`)
}

func TestBuildRejectsBadPreRelease(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	_, err := builder.Build("example/cmp", map[string]string{"pre_release": "maybe"})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
	assert.Contains(t, shared.ErrorMessage(err), "component example/cmp")
}

func TestSourceEqualityFollowsConfiguration(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())

	a, err := builder.Build("example/cmp", map[string]string{"version": "^1.0"})
	require.NoError(t, err)
	b, err := builder.Build("example/cmp", map[string]string{"version": "^2.0", "service_url": testRegistryURL + "/"})
	require.NoError(t, err)
	c, err := builder.Build("example/cmp", map[string]string{"service_url": "https://mirror.test"})
	require.NoError(t, err)

	assert.True(t, SameSource(a, b), "spec and trailing slash do not change the source")
	assert.Equal(t, SourceKey(a), SourceKey(b))
	assert.False(t, SameSource(a, c))
	assert.NotEqual(t, SourceKey(a), SourceKey(c))
}

func TestFromDescriptorRoundTrip(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	declarations := []map[string]string{
		{"service_url": "https://mirror.test", "pre_release": "true"},
		{"git": "https://git.test/cmp.git", "path": "components/cmp", "ref": "main"},
		{"path": "/work/cmp"},
	}
	for _, details := range declarations {
		source, err := builder.Build("example/cmp", details)
		require.NoError(t, err)

		rebuilt, err := builder.FromDescriptor(source.Descriptor())
		require.NoError(t, err)
		assert.True(t, SameSource(source, rebuilt))
		if diff := cmp.Diff(source.Descriptor(), rebuilt.Descriptor()); diff != "" {
			t.Fatalf("descriptor mismatch (-want +got):\n%s", diff)
		}
	}

	_, err := builder.FromDescriptor(types.SourceDescriptor{Type: "ftp"})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// RegistrySource
// ---------------------------------------------------------------------------

func TestRegistryVersionsNewestFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRegistryClientPort(ctrl)
	client.EXPECT().
		ComponentVersions(gomock.Any(), testRegistryURL, "example/cmp").
		Return([]types.RegistryRelease{
			release("1.0.0"),
			release("1.3.0-rc.1"),
			release("2.0.0"),
			release("1.2.0"),
		}, nil)

	builder := NewSourceBuilder(client, nil, newMemManifests(), PlatformConfig{Version: "5.1.2"}, testRegistryURL)
	source, err := builder.Build("example/cmp", map[string]string{})
	require.NoError(t, err)

	candidates, err := source.Versions(t.Context(), "example/cmp", "^1.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0", "1.0.0"}, versionsOf(candidates))
	assert.Equal(t, "hash-1.2.0", candidates[0].ComponentHash)
}

func TestRegistryVersionsWithPreRelease(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRegistryClientPort(ctrl)
	client.EXPECT().
		ComponentVersions(gomock.Any(), gomock.Any(), "example/cmp").
		Return([]types.RegistryRelease{release("1.0.0"), release("2.0.0-rc.1")}, nil)

	builder := NewSourceBuilder(client, nil, newMemManifests(), PlatformConfig{}, testRegistryURL)
	source, err := builder.Build("example/cmp", map[string]string{"pre_release": "true"})
	require.NoError(t, err)

	candidates, err := source.Versions(t.Context(), "example/cmp", "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0-rc.1", "1.0.0"}, versionsOf(candidates))
}

func TestRegistryVersionsUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRegistryClientPort(ctrl)
	client.EXPECT().
		ComponentVersions(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused"))

	builder := NewSourceBuilder(client, nil, newMemManifests(), PlatformConfig{}, testRegistryURL)
	source, err := builder.Build("example/cmp", map[string]string{})
	require.NoError(t, err)

	_, err = source.Versions(t.Context(), "example/cmp", "*")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindSourceUnavailable))
}

func TestRegistryVersionsMalformedSpecSkipsBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRegistryClientPort(ctrl)

	builder := NewSourceBuilder(client, nil, newMemManifests(), PlatformConfig{}, testRegistryURL)
	source, err := builder.Build("example/cmp", map[string]string{})
	require.NoError(t, err)

	_, err = source.Versions(t.Context(), "example/cmp", "banana")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
}

func TestRegistryDownloadReplacesDestination(t *testing.T) {
	registry := newMemRegistry().add("example/cmp", release("1.0.0"))
	registry.files["archives/1.0.0.tar.gz"] = map[string]string{"src/cmp.c": "int x;"}
	builder := testBuilder(registry, newMemManifests())
	source, err := builder.Build("example/cmp", map[string]string{})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "example__cmp")
	require.NoError(t, os.MkdirAll(dest, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("old"), 0644))

	component := types.SolvedComponent{Name: "example/cmp", Version: "1.0.0"}
	for range 2 {
		path, err := source.Download(t.Context(), component, dest)
		require.NoError(t, err)
		assert.Equal(t, dest, path)
	}

	data, err := os.ReadFile(filepath.Join(dest, "src", "cmp.c"))
	require.NoError(t, err)
	assert.Equal(t, "int x;", string(data))
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging directories are cleaned up")
}

func TestRegistryDownloadUnknownVersion(t *testing.T) {
	registry := newMemRegistry().add("example/cmp", release("1.0.0"))
	builder := testBuilder(registry, newMemManifests())
	source, err := builder.Build("example/cmp", map[string]string{})
	require.NoError(t, err)

	_, err = source.Download(t.Context(), types.SolvedComponent{Name: "example/cmp", Version: "9.9.9"}, t.TempDir())
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindSourceUnavailable))
}

// ---------------------------------------------------------------------------
// GitSource
// ---------------------------------------------------------------------------

func TestGitVersionsFromTags(t *testing.T) {
	const repo = "https://git.test/cmp.git"
	ctrl := gomock.NewController(t)
	vcs := mocks.NewMockVCSPort(ctrl)
	manifests := newMemManifests()
	manifests.parsed["v1.1.0 manifest"] = types.Manifest{
		Targets:      []string{"esp32"},
		Dependencies: []types.DependencyDecl{decl("example/dep", "^2.0")},
	}

	vcs.EXPECT().Tags(gomock.Any(), repo).Return([]string{"v1.0.0", "v1.1.0", "v2.0.0", "nightly"}, nil)
	vcs.EXPECT().ReadFile(gomock.Any(), repo, "v1.1.0", "cmp/component.yml").Return([]byte("v1.1.0 manifest"), true, nil)
	vcs.EXPECT().ReadFile(gomock.Any(), repo, "v1.0.0", "cmp/component.yml").Return(nil, false, nil)
	vcs.EXPECT().ReadFile(gomock.Any(), repo, "v1.0.0", "cmp/idf_component.yml").Return(nil, false, nil)

	builder := NewSourceBuilder(nil, vcs, manifests, PlatformConfig{}, "")
	source, err := builder.Build("example/cmp", map[string]string{"git": repo, "path": "cmp/"})
	require.NoError(t, err)

	candidates, err := source.Versions(t.Context(), "example/cmp", "^1.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, versionsOf(candidates))
	assert.Equal(t, "v1.1.0", candidates[0].Ref)
	assert.Equal(t, []string{"esp32"}, candidates[0].Targets)
	require.Len(t, candidates[0].Dependencies, 1)
	assert.Equal(t, "example/dep", candidates[0].Dependencies[0].Name)
	assert.Empty(t, candidates[1].Dependencies)
}

func TestGitPinnedRef(t *testing.T) {
	const repo = "https://git.test/cmp.git"
	ctrl := gomock.NewController(t)
	vcs := mocks.NewMockVCSPort(ctrl)
	vcs.EXPECT().ReadFile(gomock.Any(), repo, "main", gomock.Any()).Return(nil, false, nil).Times(2)

	builder := NewSourceBuilder(nil, vcs, newMemManifests(), PlatformConfig{}, "")
	source, err := builder.Build("example/cmp", map[string]string{"git": repo, "ref": "main"})
	require.NoError(t, err)

	candidates, err := source.Versions(t.Context(), "example/cmp", "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, versionsOf(candidates))

	ok, err := source.Matches("main", "^3.0")
	require.NoError(t, err)
	assert.True(t, ok, "a pinned ref satisfies any well formed spec")
	assert.False(t, source.ComponentHashRequired())
	assert.True(t, source.Downloadable())
}

func TestGitDownloadExportsTag(t *testing.T) {
	const repo = "https://git.test/cmp.git"
	ctrl := gomock.NewController(t)
	vcs := mocks.NewMockVCSPort(ctrl)
	vcs.EXPECT().Tags(gomock.Any(), repo).Return([]string{"v1.0.0"}, nil)
	vcs.EXPECT().Export(gomock.Any(), repo, "v1.0.0", "cmp", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, _ string, dest string) error {
			return os.WriteFile(filepath.Join(dest, "CMakeLists.txt"), []byte("idf_component_register()"), 0644)
		})

	builder := NewSourceBuilder(nil, vcs, newMemManifests(), PlatformConfig{}, "")
	source, err := builder.Build("example/cmp", map[string]string{"git": repo, "path": "cmp"})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "example__cmp")
	path, err := source.Download(t.Context(), types.SolvedComponent{Name: "example/cmp", Version: "1.0.0"}, dest)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(path, "CMakeLists.txt"))
}

// ---------------------------------------------------------------------------
// LocalSource and BuiltinSource
// ---------------------------------------------------------------------------

func TestLocalVersionsReadManifest(t *testing.T) {
	dir := t.TempDir()
	manifests := newMemManifests()
	manifests.dirs[dir] = types.Manifest{Version: "0.3.0", Dependencies: []types.DependencyDecl{decl("example/dep", "*")}}
	builder := testBuilder(newMemRegistry(), manifests)

	source, err := builder.Build("mylib", map[string]string{"path": dir})
	require.NoError(t, err)
	candidates, err := source.Versions(t.Context(), "mylib", "^9.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.3.0"}, versionsOf(candidates))
	assert.Len(t, candidates[0].Dependencies, 1)

	path, err := source.Download(t.Context(), types.SolvedComponent{Name: "mylib"}, "/ignored")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(dir), path)
	assert.False(t, source.Downloadable())
}

func TestLocalVersionsMissingDirectory(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	source, err := builder.Build("mylib", map[string]string{"path": filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	_, err = source.Versions(t.Context(), "mylib", "*")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
}

func TestBuiltinVersions(t *testing.T) {
	builder := testBuilder(newMemRegistry(), newMemManifests())
	source, err := builder.Build("idf", map[string]string{})
	require.NoError(t, err)

	candidates, err := source.Versions(t.Context(), "idf", ">=5.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"5.1.2"}, versionsOf(candidates))

	candidates, err = source.Versions(t.Context(), "idf", ">=6.0")
	require.NoError(t, err)
	assert.Empty(t, candidates)

	empty := NewSourceBuilder(nil, nil, nil, PlatformConfig{}, "")
	source, err = empty.Build("idf", map[string]string{})
	require.NoError(t, err)
	_, err = source.Versions(t.Context(), "idf", "*")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConfiguration))
}
