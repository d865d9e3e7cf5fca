package ports

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

import (
	"context"

	"component-manager/internal/types"
)

// RegistryClientPort talks to a component registry. A registry that does
// not know the component returns an empty list, not an error.
type RegistryClientPort interface {
	ComponentVersions(ctx context.Context, baseURL string, name string) ([]types.RegistryRelease, error)
	// DownloadArchive fetches the artifact at url and unpacks it into dest.
	DownloadArchive(ctx context.Context, baseURL string, url string, dest string) error
}
