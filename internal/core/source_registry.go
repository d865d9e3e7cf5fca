package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// RegistrySource resolves components from a registry web service (or a
// file index standing in for one).
type RegistrySource struct {
	client     ports.RegistryClientPort
	serviceURL string
	preRelease bool
	scheme     types.VersionScheme
	desc       types.SourceDescriptor
	hashKey    string
}

func newRegistrySource(client ports.RegistryClientPort, details map[string]string, defaultURL string) (RegistrySource, error) {
	serviceURL := strings.TrimRight(strings.TrimSpace(details["service_url"]), "/")
	if serviceURL == "" {
		serviceURL = strings.TrimRight(strings.TrimSpace(defaultURL), "/")
	}
	if serviceURL == "" {
		return RegistrySource{}, shared.ConfigurationError("service_url is required when no default registry is configured")
	}
	preRelease := false
	if raw := strings.TrimSpace(details["pre_release"]); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return RegistrySource{}, shared.ConfigurationError("pre_release must be a boolean, got %q", raw)
		}
		preRelease = parsed
	}
	scheme, err := ParseVersionScheme(details["version_scheme"])
	if err != nil {
		return RegistrySource{}, err
	}
	desc := types.SourceDescriptor{
		Type:   types.SourceKindRegistry,
		Fields: []types.SourceField{{Key: "service_url", Value: serviceURL}},
	}
	if preRelease {
		desc.Fields = append(desc.Fields, types.SourceField{Key: "pre_release", Value: "true"})
	}
	if scheme != types.VersionSchemeSemver {
		desc.Fields = append(desc.Fields, types.SourceField{Key: "version_scheme", Value: string(scheme)})
	}
	return RegistrySource{
		client:     client,
		serviceURL: serviceURL,
		preRelease: preRelease,
		scheme:     scheme,
		desc:       desc,
		hashKey:    hashDescriptor(desc),
	}, nil
}

func (s RegistrySource) sealed() {}

func (s RegistrySource) Kind() types.SourceKind { return types.SourceKindRegistry }

func (s RegistrySource) KnownKeys() []string {
	return withCommonKeys("service_url", "pre_release", "version_scheme")
}

func (s RegistrySource) HashKey() string { return s.hashKey }

func (s RegistrySource) Downloadable() bool { return true }

func (s RegistrySource) ComponentHashRequired() bool { return true }

func (s RegistrySource) Descriptor() types.SourceDescriptor { return s.desc }

func (s RegistrySource) ServiceURL() string { return s.serviceURL }

func (s RegistrySource) Versions(ctx context.Context, name string, spec string) ([]types.ComponentVersion, error) {
	cache := newVersionCache(s.scheme)
	if err := cache.checkSpec(spec); err != nil {
		return nil, err
	}
	releases, err := s.client.ComponentVersions(ctx, s.serviceURL, name)
	if err != nil {
		return nil, wrapUnavailable(err, "registry %s: %s", s.serviceURL, name)
	}
	var out []types.ComponentVersion
	for _, release := range releases {
		ok, err := cache.satisfies(release.Version, spec, s.preRelease)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, release.ComponentVersion())
	}
	sortNewestFirst(cache, out)
	log.Ctx(ctx).Debug().
		Str("component", name).
		Str("spec", spec).
		Int("candidates", len(out)).
		Msg("registry versions")
	return out, nil
}

func (s RegistrySource) Matches(version string, spec string) (bool, error) {
	return newVersionCache(s.scheme).satisfies(version, spec, true)
}

func (s RegistrySource) Download(ctx context.Context, component types.SolvedComponent, dest string) (string, error) {
	releases, err := s.client.ComponentVersions(ctx, s.serviceURL, component.Name)
	if err != nil {
		return "", wrapUnavailable(err, "registry %s: %s", s.serviceURL, component.Name)
	}
	cache := newVersionCache(s.scheme)
	var url string
	for _, release := range releases {
		if release.Version == component.Version || (cache.valid(component.Version) && cache.compare(release.Version, component.Version) == 0) {
			url = release.URL
			break
		}
	}
	if url == "" {
		return "", shared.SourceUnavailableError(nil, "registry %s has no artifact for %s %s", s.serviceURL, component.Name, component.Version)
	}
	err = replaceDir(dest, func(tmp string) error {
		return s.client.DownloadArchive(ctx, s.serviceURL, url, tmp)
	})
	if err != nil {
		return "", wrapUnavailable(err, "download %s %s", component.Name, component.Version)
	}
	return dest, nil
}
