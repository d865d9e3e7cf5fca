package ports

import "component-manager/internal/types"

// ManifestPort loads component manifests. Environment substitution and
// schema validation happen behind this port.
type ManifestPort interface {
	LoadTree(paths []string) (types.ManifestTree, error)
	// LoadDir reads the manifest of the component stored in dir. found
	// is false when dir holds no manifest file.
	LoadDir(dir string) (manifest types.Manifest, found bool, err error)
	Parse(data []byte, origin string) (types.Manifest, error)
}
