package core

import (
	"context"
	"path"
	"strings"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// manifestFileNames are tried in order inside a component directory.
var manifestFileNames = []string{"component.yml", "idf_component.yml"}

// GitSource resolves components from a git repository. Versions are the
// repository's semver tags, or the single ref pinned in the details.
type GitSource struct {
	vcs       ports.VCSPort
	manifests ports.ManifestPort
	repo      string
	subPath   string
	ref       string
	desc      types.SourceDescriptor
	hashKey   string
}

func newGitSource(vcs ports.VCSPort, manifests ports.ManifestPort, details map[string]string) (GitSource, error) {
	repo := strings.TrimSpace(details["git"])
	if repo == "" {
		return GitSource{}, shared.ConfigurationError("git source requires a repository url")
	}
	subPath := strings.Trim(strings.TrimSpace(details["path"]), "/")
	ref := strings.TrimSpace(details["ref"])
	desc := types.SourceDescriptor{
		Type:   types.SourceKindGit,
		Fields: []types.SourceField{{Key: "git", Value: repo}},
	}
	if subPath != "" {
		desc.Fields = append(desc.Fields, types.SourceField{Key: "path", Value: subPath})
	}
	if ref != "" {
		desc.Fields = append(desc.Fields, types.SourceField{Key: "ref", Value: ref})
	}
	return GitSource{
		vcs:       vcs,
		manifests: manifests,
		repo:      repo,
		subPath:   subPath,
		ref:       ref,
		desc:      desc,
		hashKey:   hashDescriptor(desc),
	}, nil
}

func (s GitSource) sealed() {}

func (s GitSource) Kind() types.SourceKind { return types.SourceKindGit }

func (s GitSource) KnownKeys() []string {
	return withCommonKeys("git", "path", "ref")
}

func (s GitSource) HashKey() string { return s.hashKey }

func (s GitSource) Downloadable() bool { return true }

// ComponentHashRequired is false: the commit behind a tag already pins
// the content.
func (s GitSource) ComponentHashRequired() bool { return false }

func (s GitSource) Descriptor() types.SourceDescriptor { return s.desc }

func (s GitSource) Versions(ctx context.Context, name string, spec string) ([]types.ComponentVersion, error) {
	cache := newVersionCache(types.VersionSchemeSemver)
	if err := cache.checkSpec(spec); err != nil {
		return nil, err
	}
	if s.ref != "" {
		candidate, err := s.describe(ctx, name, s.ref, s.ref)
		if err != nil {
			return nil, err
		}
		return []types.ComponentVersion{candidate}, nil
	}
	tags, err := s.vcs.Tags(ctx, s.repo)
	if err != nil {
		return nil, wrapUnavailable(err, "git %s", s.repo)
	}
	var matched []types.ComponentVersion
	for _, tag := range tags {
		version := strings.TrimPrefix(tag, "v")
		ok, err := cache.satisfies(version, spec, false)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, types.ComponentVersion{Version: version, Ref: tag})
		}
	}
	sortNewestFirst(cache, matched)
	out := make([]types.ComponentVersion, 0, len(matched))
	for _, candidate := range matched {
		described, err := s.describe(ctx, name, candidate.Version, candidate.Ref)
		if err != nil {
			return nil, err
		}
		out = append(out, described)
	}
	return out, nil
}

// describe reads the component manifest at ref to learn the candidate's
// own dependencies and targets.
func (s GitSource) describe(ctx context.Context, name string, version string, ref string) (types.ComponentVersion, error) {
	candidate := types.ComponentVersion{Version: version, Ref: ref}
	for _, fileName := range manifestFileNames {
		file := path.Join(s.subPath, fileName)
		data, found, err := s.vcs.ReadFile(ctx, s.repo, ref, file)
		if err != nil {
			return types.ComponentVersion{}, wrapUnavailable(err, "git %s@%s", s.repo, ref)
		}
		if !found {
			continue
		}
		manifest, err := s.manifests.Parse(data, s.repo+"@"+ref+":"+file)
		if err != nil {
			return types.ComponentVersion{}, err
		}
		candidate.Dependencies = manifest.Dependencies
		candidate.Targets = manifest.Targets
		break
	}
	return candidate, nil
}

func (s GitSource) Matches(version string, spec string) (bool, error) {
	cache := newVersionCache(types.VersionSchemeSemver)
	if s.ref != "" {
		return true, cache.checkSpec(spec)
	}
	return cache.satisfies(version, spec, true)
}

func (s GitSource) Download(ctx context.Context, component types.SolvedComponent, dest string) (string, error) {
	ref := s.ref
	if ref == "" {
		resolved, err := s.tagFor(ctx, component.Version)
		if err != nil {
			return "", err
		}
		ref = resolved
	}
	err := replaceDir(dest, func(tmp string) error {
		return s.vcs.Export(ctx, s.repo, ref, s.subPath, tmp)
	})
	if err != nil {
		return "", wrapUnavailable(err, "git %s@%s", s.repo, ref)
	}
	return dest, nil
}

func (s GitSource) tagFor(ctx context.Context, version string) (string, error) {
	tags, err := s.vcs.Tags(ctx, s.repo)
	if err != nil {
		return "", wrapUnavailable(err, "git %s", s.repo)
	}
	for _, tag := range tags {
		if tag == version || strings.TrimPrefix(tag, "v") == version {
			return tag, nil
		}
	}
	return "", shared.SourceUnavailableError(nil, "git %s has no tag for version %s", s.repo, version)
}
