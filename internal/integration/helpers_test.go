package integration

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"component-manager/internal/adapters"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// artifact is one published component version.
type artifact struct {
	name    string
	version string
	files   map[string]string
	deps    []types.RegistryDependency
	// hash overrides the published component_hash when set.
	hash string
}

// registryLayout renders a set of artifacts as the files of a registry:
// the index document of a file registry, one JSON document per component
// for the HTTP layout and the archives both layouts reference.
func registryLayout(t *testing.T, artifacts []artifact) (map[string][]byte, map[string]string) {
	t.Helper()
	files := map[string][]byte{}
	hashes := map[string]string{}
	index := types.RegistryIndex{Components: map[string][]types.RegistryRelease{}}
	for _, a := range artifacts {
		archive := "archives/" + shared.DirName(a.name) + "-" + a.version + ".tar.gz"
		files[archive] = tarGz(t, a.files)
		hash := contentHash(t, a.files)
		hashes[a.name+"@"+a.version] = hash
		published := hash
		if a.hash != "" {
			published = a.hash
		}
		index.Components[a.name] = append(index.Components[a.name], types.RegistryRelease{
			Version:       a.version,
			ComponentHash: published,
			URL:           archive,
			Dependencies:  a.deps,
		})
	}
	names := make([]string, 0, len(index.Components))
	for name := range index.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc, err := json.Marshal(map[string]any{"name": name, "versions": index.Components[name]})
		require.NoError(t, err)
		files["components/"+name] = doc
	}
	indexDoc, err := yaml.Marshal(index)
	require.NoError(t, err)
	files[adapters.RegistryIndexFileName] = indexDoc
	return files, hashes
}

func writeLayout(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
}

func contentHash(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(rel)), content)
	}
	hash, err := adapters.NewComponentHasher().HashDir(dir)
	require.NoError(t, err)
	return hash
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		content := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Unix(0, 0),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
