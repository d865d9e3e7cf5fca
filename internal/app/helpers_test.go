package app

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"component-manager/internal/adapters"
)

const spoofedHash = "c3ab8ff13720e8ad9047dd39466b3c8974e592c2fa383d4a3960714caef0c4f2"

// registryFixture is a file registry under construction.
type registryFixture struct {
	t    *testing.T
	dir  string
	docs []string
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	return &registryFixture{t: t, dir: t.TempDir()}
}

// publish writes the archive of name@version and returns the hash of
// its content.
func (r *registryFixture) publish(name string, version string, files map[string]string) string {
	r.t.Helper()
	archive := strings.ReplaceAll(name, "/", "__") + "-" + version + ".tar.gz"
	require.NoError(r.t, os.WriteFile(filepath.Join(r.dir, archive), tarGz(r.t, files), 0o644))

	staged := r.t.TempDir()
	for rel, content := range files {
		writeFile(r.t, filepath.Join(staged, filepath.FromSlash(rel)), content)
	}
	hash, err := adapters.NewComponentHasher().HashDir(staged)
	require.NoError(r.t, err)
	return hash
}

// index writes index.yaml from the given component entries.
func (r *registryFixture) index(body string) {
	r.t.Helper()
	writeFile(r.t, filepath.Join(r.dir, adapters.RegistryIndexFileName), body)
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

// recordingMetrics keeps integrity failures; everything else is dropped.
type recordingMetrics struct {
	mu        sync.Mutex
	integrity []string
}

func (m *recordingMetrics) VersionQuery(string, error)  {}
func (m *recordingMetrics) SolverRestart()              {}
func (m *recordingMetrics) SolveDuration(time.Duration) {}
func (m *recordingMetrics) Download(string, error)      {}

func (m *recordingMetrics) IntegrityFailure(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integrity = append(m.integrity, name)
}

// project lays out a project manifest and returns a request for it.
func project(t *testing.T, registryDir string, manifest string) ResolveRequest {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main", "component.yml"), manifest)
	return ResolveRequest{
		ManifestPaths: []string{filepath.Join(dir, "main")},
		LockPath:      filepath.Join(dir, "dependencies.lock"),
		Target:        "esp32",
		Engine: EngineOptions{
			RegistryURL:     registryDir,
			PlatformVersion: "5.1.2",
			PlatformPath:    filepath.Join(dir, "idf"),
		},
	}
}
