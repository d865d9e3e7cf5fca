package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

func TestComponentDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/managed", "espressif__led_strip"), ComponentDir("/managed", "espressif/led_strip"))
	assert.Equal(t, filepath.Join("/managed", "mylib"), ComponentDir("/managed", "mylib"))
}

func TestFetchAllPlacesAndHashes(t *testing.T) {
	registry := newMemRegistry().
		add("example/a", release("1.0.0")).
		add("example/b", release("2.0.0"))
	registry.files["archives/1.0.0.tar.gz"] = map[string]string{"a.c": "a"}
	registry.files["archives/2.0.0.tar.gz"] = map[string]string{"b.c": "b"}
	localDir := t.TempDir()

	solution := types.Solution{Components: []types.SolvedComponent{
		builtinComponent(),
		{Name: "example/a", Version: "1.0.0", Source: registryDescriptor(testRegistryURL)},
		{Name: "example/b", Version: "2.0.0", Source: registryDescriptor(testRegistryURL)},
		{
			Name:    "mylib",
			Version: "*",
			Source: types.SourceDescriptor{
				Type:   types.SourceKindLocal,
				Fields: []types.SourceField{{Key: "path", Value: localDir}},
			},
		},
	}}

	root := t.TempDir()
	fetcher := NewFetcher(testBuilder(registry, newMemManifests()), dirHasher{}, nil, 2)
	fetched, err := fetcher.FetchAll(t.Context(), solution, root)
	require.NoError(t, err)
	require.Len(t, fetched, 4)

	assert.Equal(t, "/opt/idf", fetched[0].Result.Path)
	assert.Empty(t, fetched[0].Result.Hash)

	assert.Equal(t, filepath.Join(root, "example__a"), fetched[1].Result.Path)
	assert.Equal(t, "a.c=a;", fetched[1].Result.Hash)
	assert.Equal(t, "b.c=b;", fetched[2].Result.Hash)

	assert.Equal(t, localDir, fetched[3].Result.Path)
	assert.Empty(t, fetched[3].Result.Hash)
	assert.Equal(t, types.SourceKindLocal, fetched[3].Source.Kind())

	data, err := os.ReadFile(filepath.Join(root, "example__b", "b.c"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestFetchDetectsSpoofedArtifact(t *testing.T) {
	registry := newMemRegistry().add("example/cmp", release("1.0.0"))
	registry.files["archives/1.0.0.tar.gz"] = map[string]string{"evil.c": "foobar"}
	builder := testBuilder(registry, newMemManifests())

	component := types.SolvedComponent{
		Name:          "example/cmp",
		Version:       "1.0.0",
		ComponentHash: spoofedHash,
		Source:        registryDescriptor(testRegistryURL),
	}
	fetched, err := NewFetcher(builder, dirHasher{}, nil, 1).Fetch(t.Context(), component, t.TempDir())
	require.NoError(t, err)

	err = NewLockManager(newMemLockStore(), "idf").VerifyIntegrity(component, fetched.Source, fetched.Result.Hash)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindIntegrity))
}

func TestFetchUnavailableArtifact(t *testing.T) {
	registry := newMemRegistry()
	registry.fail["example/cmp"] = os.ErrDeadlineExceeded
	builder := testBuilder(registry, newMemManifests())

	_, err := NewFetcher(builder, dirHasher{}, nil, 1).FetchAll(t.Context(), types.Solution{
		Components: []types.SolvedComponent{{Name: "example/cmp", Version: "1.0.0", Source: registryDescriptor(testRegistryURL)}},
	}, t.TempDir())
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindSourceUnavailable))
}
