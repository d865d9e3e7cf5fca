package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"component-manager/internal/types"
)

const testRegistryURL = "https://registry.test/api"

// memRegistry is an in-memory registry backend that records queries.
type memRegistry struct {
	mu       sync.Mutex
	releases map[string][]types.RegistryRelease
	files    map[string]map[string]string
	fail     map[string]error
	queried  []string
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		releases: map[string][]types.RegistryRelease{},
		files:    map[string]map[string]string{},
		fail:     map[string]error{},
	}
}

func (m *memRegistry) add(name string, releases ...types.RegistryRelease) *memRegistry {
	m.releases[name] = append(m.releases[name], releases...)
	return m
}

func (m *memRegistry) ComponentVersions(_ context.Context, _ string, name string) ([]types.RegistryRelease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queried = append(m.queried, name)
	if err := m.fail[name]; err != nil {
		return nil, err
	}
	return m.releases[name], nil
}

func (m *memRegistry) DownloadArchive(_ context.Context, _ string, url string, dest string) error {
	m.mu.Lock()
	files := m.files[url]
	m.mu.Unlock()
	for rel, content := range files {
		path := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRegistry) queriedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.queried...)
	sort.Strings(out)
	return out
}

// memManifests serves component manifests by directory, and parsed
// manifests by raw content for VCS-backed sources.
type memManifests struct {
	dirs   map[string]types.Manifest
	parsed map[string]types.Manifest
}

func newMemManifests() *memManifests {
	return &memManifests{dirs: map[string]types.Manifest{}, parsed: map[string]types.Manifest{}}
}

func (m *memManifests) LoadTree(_ []string) (types.ManifestTree, error) {
	return types.ManifestTree{}, nil
}

func (m *memManifests) LoadDir(dir string) (types.Manifest, bool, error) {
	manifest, ok := m.dirs[filepath.Clean(dir)]
	return manifest, ok, nil
}

func (m *memManifests) Parse(data []byte, _ string) (types.Manifest, error) {
	return m.parsed[string(data)], nil
}

// memLockStore keeps lock documents in memory.
type memLockStore struct {
	docs map[string][]byte
}

func newMemLockStore() *memLockStore {
	return &memLockStore{docs: map[string][]byte{}}
}

func (s *memLockStore) Read(path string) ([]byte, bool, error) {
	data, ok := s.docs[path]
	return data, ok, nil
}

func (s *memLockStore) WriteAtomic(path string, data []byte) error {
	s.docs[path] = append([]byte(nil), data...)
	return nil
}

// dirHasher hashes a directory by concatenating its files, enough to
// tell contents apart in tests.
type dirHasher struct{}

func (dirHasher) HashDir(dir string) (string, error) {
	var out string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out += rel + "=" + string(data) + ";"
		return nil
	})
	return out, err
}

func release(version string, deps ...types.RegistryDependency) types.RegistryRelease {
	return types.RegistryRelease{
		Version:       version,
		ComponentHash: "hash-" + version,
		URL:           "archives/" + version + ".tar.gz",
		Dependencies:  deps,
	}
}

func requires(name string, spec string, rules ...string) types.RegistryDependency {
	dep := types.RegistryDependency{Name: name, Version: spec}
	for _, rule := range rules {
		dep.Rules = append(dep.Rules, types.Rule{If: rule})
	}
	return dep
}

func decl(name string, spec string, rules ...string) types.DependencyDecl {
	d := types.DependencyDecl{Name: name, Details: map[string]string{"version": spec}}
	for _, rule := range rules {
		d.Rules = append(d.Rules, types.Rule{If: rule})
	}
	return d
}

func mainManifest(decls ...types.DependencyDecl) types.ManifestTree {
	return types.ManifestTree{Manifests: []types.Manifest{{Name: "main", Dependencies: decls}}}
}

func testBuilder(registry *memRegistry, manifests *memManifests) SourceBuilder {
	return NewSourceBuilder(registry, nil, manifests, PlatformConfig{
		Name:    "idf",
		Version: "5.1.2",
		Path:    "/opt/idf",
	}, testRegistryURL)
}

func testContext() types.ResolutionContext {
	return types.ResolutionContext{Target: "esp32", PlatformVersion: "5.1.2"}
}

func registryDescriptor(url string) types.SourceDescriptor {
	return types.SourceDescriptor{
		Type:   types.SourceKindRegistry,
		Fields: []types.SourceField{{Key: "service_url", Value: url}},
	}
}

func builtinComponent() types.SolvedComponent {
	return types.SolvedComponent{
		Name:    "idf",
		Version: "5.1.2",
		Source:  types.SourceDescriptor{Type: types.SourceKindBuiltin},
		Path:    "/opt/idf",
	}
}
