package adapters

import (
	"context"

	"component-manager/internal/ports"
	"component-manager/internal/types"
)

// RegistryRouter dispatches to the file or HTTP backend by the scheme of
// the registry url.
type RegistryRouter struct {
	HTTP ports.RegistryClientPort
	File ports.RegistryClientPort
}

func NewRegistryRouter(httpClient ports.RegistryClientPort, fileClient ports.RegistryClientPort) RegistryRouter {
	return RegistryRouter{HTTP: httpClient, File: fileClient}
}

func (r RegistryRouter) ComponentVersions(ctx context.Context, baseURL string, name string) ([]types.RegistryRelease, error) {
	return r.backend(baseURL).ComponentVersions(ctx, baseURL, name)
}

func (r RegistryRouter) DownloadArchive(ctx context.Context, baseURL string, archiveURL string, dest string) error {
	return r.backend(baseURL).DownloadArchive(ctx, baseURL, archiveURL, dest)
}

func (r RegistryRouter) backend(baseURL string) ports.RegistryClientPort {
	if IsFileRegistry(baseURL) {
		return r.File
	}
	return r.HTTP
}

var _ ports.RegistryClientPort = RegistryRouter{}
