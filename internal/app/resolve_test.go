package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const mainManifest = `
name: main
version: 0.1.0
dependencies:
  example/cmp: "^1.0"
`

type fixtureHashes struct {
	cmp100 string
	cmp110 string
	dep020 string
}

// standardRegistry publishes example/cmp 1.0.0 and 1.1.0, both requiring
// example/dep. The dep release carries no hash.
func standardRegistry(t *testing.T) (*registryFixture, fixtureHashes) {
	t.Helper()
	registry := newRegistryFixture(t)
	hashes := fixtureHashes{
		cmp100: registry.publish("example/cmp", "1.0.0", map[string]string{"cmp.c": "int cmp = 100;"}),
		cmp110: registry.publish("example/cmp", "1.1.0", map[string]string{"cmp.c": "int cmp = 110;", "include/cmp.h": "int cmp;"}),
		dep020: registry.publish("example/dep", "0.2.0", map[string]string{"dep.c": "int dep;"}),
	}
	registry.index(fmt.Sprintf(`
components:
  example/cmp:
    - version: 1.0.0
      component_hash: %s
      url: example__cmp-1.0.0.tar.gz
      dependencies:
        - name: example/dep
          version: ">=0.1"
    - version: 1.1.0
      component_hash: %s
      url: example__cmp-1.1.0.tar.gz
      dependencies:
        - name: example/dep
          version: ">=0.1"
  example/dep:
    - version: 0.2.0
      url: example__dep-0.2.0.tar.gz
`, hashes.cmp100, hashes.cmp110))
	return registry, hashes
}

func solvedVersions(solution types.Solution) []string {
	out := make([]string, 0, len(solution.Components))
	for _, component := range solution.Components {
		out = append(out, component.Name+"@"+component.Version)
	}
	return out
}

func TestResolveWritesLock(t *testing.T) {
	registry, hashes := standardRegistry(t)
	req := project(t, registry.dir, mainManifest)

	result, err := NewService().Resolve(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, types.LockStateLockWritten, result.State)

	want := []string{"idf@5.1.2", "example/cmp@1.1.0", "example/dep@0.2.0"}
	if diff := cmp.Diff(want, solvedVersions(result.Solution)); diff != "" {
		t.Fatalf("unexpected solution (-want +got):\n%s", diff)
	}
	cmpComponent, ok := result.Solution.Lookup("example/cmp")
	require.True(t, ok)
	assert.Equal(t, hashes.cmp110, cmpComponent.ComponentHash)
	assert.Equal(t, []string{"example/dep"}, cmpComponent.Dependencies)

	lock := readFile(t, req.LockPath)
	assert.Contains(t, lock, "manifest_hash: ")
	assert.Contains(t, lock, "target: esp32")
	assert.Contains(t, lock, "type: idf")
}

func TestResolveReusesUnchangedLock(t *testing.T) {
	registry, _ := standardRegistry(t)
	req := project(t, registry.dir, mainManifest)
	service := NewService()

	_, err := service.Resolve(t.Context(), req)
	require.NoError(t, err)
	first := readFile(t, req.LockPath)

	result, err := service.Resolve(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, types.LockStateReused, result.State)
	assert.Equal(t, types.DriftUnchanged, result.Drift)
	assert.Equal(t, first, readFile(t, req.LockPath))

	req.Force = true
	result, err = service.Resolve(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, types.LockStateLockWritten, result.State)
	assert.Equal(t, first, readFile(t, req.LockPath), "re-resolving unchanged inputs must give identical bytes")
}

func TestResolveDetectsDrift(t *testing.T) {
	registry, _ := standardRegistry(t)

	t.Run("manifest changed", func(t *testing.T) {
		req := project(t, registry.dir, mainManifest)
		service := NewService()
		_, err := service.Resolve(t.Context(), req)
		require.NoError(t, err)

		writeFile(t, filepath.Join(req.ManifestPaths[0], "component.yml"), `
name: main
version: 0.1.0
dependencies:
  example/cmp: "~1.0.0"
`)
		result, err := service.Resolve(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, types.DriftManifestChanged, result.Drift)
		assert.Equal(t, types.LockStateLockWritten, result.State)
		component, ok := result.Solution.Lookup("example/cmp")
		require.True(t, ok)
		assert.Equal(t, "1.0.0", component.Version)
	})

	t.Run("target changed", func(t *testing.T) {
		req := project(t, registry.dir, mainManifest)
		service := NewService()
		_, err := service.Resolve(t.Context(), req)
		require.NoError(t, err)

		req.Target = "esp32s3"
		result, err := service.Resolve(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, types.DriftTargetChanged, result.Drift)
		assert.Equal(t, types.LockStateLockWritten, result.State)
		assert.Equal(t, "esp32s3", result.Solution.Target)
	})
}

func TestResolveEmptyManifestLocksPlatform(t *testing.T) {
	registry := newRegistryFixture(t)
	registry.index("components: {}\n")
	req := project(t, registry.dir, "name: main\n")

	result, err := NewService().Resolve(t.Context(), req)
	require.NoError(t, err)
	require.Len(t, result.Solution.Components, 1)
	assert.Equal(t, "idf", result.Solution.Components[0].Name)
	assert.Equal(t, types.SourceKindBuiltin, result.Solution.Components[0].Source.Type)
}

func TestResolveErrors(t *testing.T) {
	registry, _ := standardRegistry(t)

	t.Run("corrupted lock", func(t *testing.T) {
		req := project(t, registry.dir, mainManifest)
		writeFile(t, req.LockPath, "version: [\n")
		result, err := NewService().Resolve(t.Context(), req)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindLockCorruption), "got %v", err)
		assert.Equal(t, types.LockStateFailed, result.State)
		assert.Equal(t, "version: [\n", readFile(t, req.LockPath))
	})

	t.Run("unsatisfiable spec keeps previous lock", func(t *testing.T) {
		req := project(t, registry.dir, mainManifest)
		service := NewService()
		_, err := service.Resolve(t.Context(), req)
		require.NoError(t, err)
		before := readFile(t, req.LockPath)

		writeFile(t, filepath.Join(req.ManifestPaths[0], "component.yml"), `
name: main
dependencies:
  example/cmp: "^2.0"
`)
		_, err = service.Resolve(t.Context(), req)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindConflict), "got %v", err)
		assert.Equal(t, before, readFile(t, req.LockPath))
	})

	t.Run("unknown source key", func(t *testing.T) {
		req := project(t, registry.dir, `
name: main
dependencies:
  example/cmp:
    version: "^1.0"
    servce_url: https://typo.test
`)
		_, err := NewService().Resolve(t.Context(), req)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindConfiguration), "got %v", err)
		_, statErr := os.Stat(req.LockPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing registry", func(t *testing.T) {
		req := project(t, filepath.Join(t.TempDir(), "missing"), mainManifest)
		_, err := NewService().Resolve(t.Context(), req)
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.KindSourceUnavailable), "got %v", err)
	})
}

func TestResolveRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(req *ResolveRequest)
	}{
		{name: "no manifest", edit: func(req *ResolveRequest) { req.ManifestPaths = []string{" "} }},
		{name: "no target", edit: func(req *ResolveRequest) { req.Target = "" }},
		{name: "bad override", edit: func(req *ResolveRequest) { req.Overrides = []string{"example/cmp"} }},
		{name: "bad inject policy", edit: func(req *ResolveRequest) { req.InjectBuiltin = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := project(t, t.TempDir(), mainManifest)
			tt.edit(&req)
			_, err := NewService().Resolve(t.Context(), req)
			require.Error(t, err)
			assert.True(t, shared.IsKind(err, shared.KindConfiguration), "got %v", err)
		})
	}
}

func TestResolveOverrideAndHints(t *testing.T) {
	registry, _ := standardRegistry(t)
	local := t.TempDir()
	writeFile(t, filepath.Join(local, "component.yml"), "name: cmp\nversion: 9.9.9\n")

	req := project(t, registry.dir, mainManifest)
	req.Overrides = []string{"example/cmp=" + local, "example/unused=" + local}

	result, err := NewService().Resolve(t.Context(), req)
	require.NoError(t, err)

	component, ok := result.Solution.Lookup("example/cmp")
	require.True(t, ok)
	assert.Equal(t, "9.9.9", component.Version)
	assert.Equal(t, types.SourceKindLocal, component.Source.Type)
	_, ok = result.Solution.Lookup("example/dep")
	assert.False(t, ok, "the override replaces the registry release and its dependencies")

	require.Len(t, result.Hints, 1)
	assert.Contains(t, result.Hints[0], "example/unused")
}
