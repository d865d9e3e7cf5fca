package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// maxRegistryResponse bounds the metadata document of one component.
const maxRegistryResponse = 16 << 20

// RegistryHTTPClient talks to a registry web service:
//
//	GET {base}/components/{name}  -> {"name": ..., "versions": [...]}
//	GET {release url}             -> .tar.gz artifact
type RegistryHTTPClient struct {
	client *http.Client
	cfg    httpRetryConfig
}

type registryComponentResponse struct {
	Name     string                  `json:"name"`
	Versions []types.RegistryRelease `json:"versions"`
}

func NewRegistryHTTPClient(timeoutSec int, retries int, retryDelayMs int) RegistryHTTPClient {
	cfg := normalizeHTTPConfig(timeoutSec, retries, retryDelayMs)
	return RegistryHTTPClient{
		client: &http.Client{Timeout: cfg.timeout},
		cfg:    cfg,
	}
}

func (c RegistryHTTPClient) ComponentVersions(ctx context.Context, baseURL string, name string) ([]types.RegistryRelease, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/components/" + escapeComponentName(name)
	resp, err := doRequest(ctx, c.client, endpoint, c.cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("registry request failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, endpoint))
	}
	var payload registryComponentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRegistryResponse)).Decode(&payload); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("invalid registry response").
			WithCause(fmt.Errorf("%s: %w", endpoint, err))
	}
	log.Ctx(ctx).Debug().
		Str("component", name).
		Str("registry", baseURL).
		Int("versions", len(payload.Versions)).
		Msg("registry component fetched")
	return payload.Versions, nil
}

func (c RegistryHTTPClient) DownloadArchive(ctx context.Context, baseURL string, archiveURL string, dest string) error {
	target, err := resolveArchiveURL(baseURL, archiveURL)
	if err != nil {
		return err
	}
	resp, err := doRequest(ctx, c.client, target, c.cfg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("archive download failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	return extractTarGz(resp.Body, dest)
}

// escapeComponentName keeps the namespace separator readable while
// escaping everything else.
func escapeComponentName(name string) string {
	parts := strings.Split(shared.NormalizeName(name), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// resolveArchiveURL resolves a release url against the registry base, so
// registries may publish relative artifact paths.
func resolveArchiveURL(baseURL string, archiveURL string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(archiveURL))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid archive url").
			WithCause(err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid registry url").
			WithCause(err)
	}
	return base.ResolveReference(ref).String(), nil
}

var _ ports.RegistryClientPort = RegistryHTTPClient{}
