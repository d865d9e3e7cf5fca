package adapters

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// RegistryIndexFileName is the index document of a file registry.
const RegistryIndexFileName = "index.yaml"

// RegistryIndexFileAdapter serves a registry from a directory holding an
// index.yaml and the artifacts it references. It stands in for a registry
// service in offline and test setups.
type RegistryIndexFileAdapter struct {
	mu    sync.Mutex
	cache map[string]types.RegistryIndex
}

func NewRegistryIndexFileAdapter() *RegistryIndexFileAdapter {
	return &RegistryIndexFileAdapter{cache: map[string]types.RegistryIndex{}}
}

func (a *RegistryIndexFileAdapter) ComponentVersions(_ context.Context, baseURL string, name string) ([]types.RegistryRelease, error) {
	index, err := a.load(baseURL)
	if err != nil {
		return nil, err
	}
	if releases, ok := index.Components[name]; ok {
		return releases, nil
	}
	identity := shared.NormalizeName(name)
	for key, releases := range index.Components {
		if shared.NormalizeName(key) == identity {
			return releases, nil
		}
	}
	return nil, nil
}

func (a *RegistryIndexFileAdapter) DownloadArchive(_ context.Context, baseURL string, archiveURL string, dest string) error {
	root, err := registryDir(baseURL)
	if err != nil {
		return err
	}
	archivePath := strings.TrimPrefix(strings.TrimSpace(archiveURL), "file://")
	if !filepath.IsAbs(archivePath) {
		archivePath = filepath.Join(root, filepath.FromSlash(archivePath))
	}
	file, err := os.Open(archivePath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("archive not found").
			WithCause(err)
	}
	defer file.Close()
	return extractTarGz(file, dest)
}

func (a *RegistryIndexFileAdapter) load(baseURL string) (types.RegistryIndex, error) {
	root, err := registryDir(baseURL)
	if err != nil {
		return types.RegistryIndex{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if index, ok := a.cache[root]; ok {
		return index, nil
	}
	path := filepath.Join(root, RegistryIndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RegistryIndex{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("registry index file not found").
			WithCause(err)
	}
	var index types.RegistryIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return types.RegistryIndex{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid registry index format").
			WithCause(fmt.Errorf("%s: %w", path, err))
	}
	if index.Components == nil {
		index.Components = map[string][]types.RegistryRelease{}
	}
	a.cache[root] = index
	return index, nil
}

// IsFileRegistry reports whether baseURL names a local directory rather
// than a web service.
func IsFileRegistry(baseURL string) bool {
	trimmed := strings.TrimSpace(baseURL)
	if strings.HasPrefix(trimmed, "file://") {
		return true
	}
	parsed, err := url.Parse(trimmed)
	return err != nil || parsed.Scheme == ""
}

func registryDir(baseURL string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if rest, ok := strings.CutPrefix(trimmed, "file://"); ok {
		trimmed = rest
	}
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("file registry path is empty")
	}
	return filepath.Clean(filepath.FromSlash(trimmed)), nil
}

var _ ports.RegistryClientPort = (*RegistryIndexFileAdapter)(nil)
