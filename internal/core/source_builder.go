package core

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

var identityPattern = regexp.MustCompile(`^([a-z0-9_.+-]+/)?[a-z0-9_.+-]+$`)

// SourceBuilder turns (name, details) pairs into sources. It holds the
// backends sources talk to and is otherwise stateless.
type SourceBuilder struct {
	Registry           ports.RegistryClientPort
	VCS                ports.VCSPort
	Manifests          ports.ManifestPort
	Platform           PlatformConfig
	DefaultRegistryURL string
}

// sourceKind is one entry of the ordered kind registry.
type sourceKind struct {
	kind      types.SourceKind
	knownKeys []string
	isMe      func(name string, details map[string]string) bool
	build     func(details map[string]string) (Source, error)
}

func NewSourceBuilder(registry ports.RegistryClientPort, vcs ports.VCSPort, manifests ports.ManifestPort, platform PlatformConfig, defaultRegistryURL string) SourceBuilder {
	if strings.TrimSpace(platform.Name) == "" {
		platform.Name = DefaultPlatformName
	}
	return SourceBuilder{
		Registry:           registry,
		VCS:                vcs,
		Manifests:          manifests,
		Platform:           platform,
		DefaultRegistryURL: defaultRegistryURL,
	}
}

// PlatformName returns the normalized identity of the builtin component.
func (b SourceBuilder) PlatformName() string {
	name := shared.NormalizeName(b.Platform.Name)
	if name == "" {
		return DefaultPlatformName
	}
	return name
}

// kinds lists the source kinds in match priority: the first kind whose
// isMe accepts a declaration builds its source.
func (b SourceBuilder) kinds() []sourceKind {
	return []sourceKind{
		{
			kind:      types.SourceKindLocal,
			knownKeys: LocalSource{}.KnownKeys(),
			isMe: func(_ string, details map[string]string) bool {
				_, hasGit := details["git"]
				return !hasGit && (details["path"] != "" || details["override_path"] != "")
			},
			build: func(details map[string]string) (Source, error) {
				return newLocalSource(b.Manifests, details)
			},
		},
		{
			kind:      types.SourceKindGit,
			knownKeys: GitSource{}.KnownKeys(),
			isMe: func(_ string, details map[string]string) bool {
				return details["git"] != ""
			},
			build: func(details map[string]string) (Source, error) {
				return newGitSource(b.VCS, b.Manifests, details)
			},
		},
		{
			kind:      types.SourceKindBuiltin,
			knownKeys: BuiltinSource{}.KnownKeys(),
			isMe: func(name string, _ map[string]string) bool {
				return shared.NormalizeName(name) == b.PlatformName()
			},
			build: func(_ map[string]string) (Source, error) {
				return newBuiltinSource(b.Platform), nil
			},
		},
		{
			kind:      types.SourceKindRegistry,
			knownKeys: RegistrySource{}.KnownKeys(),
			isMe: func(name string, _ map[string]string) bool {
				return identityPattern.MatchString(shared.NormalizeName(name))
			},
			build: func(details map[string]string) (Source, error) {
				return newRegistrySource(b.Registry, details, b.DefaultRegistryURL)
			},
		},
	}
}

// Build selects the first matching kind and constructs its source.
// Unknown detail keys and unmatched declarations are configuration
// errors.
func (b SourceBuilder) Build(name string, details map[string]string) (Source, error) {
	for _, kind := range b.kinds() {
		if !kind.isMe(name, details) {
			continue
		}
		if err := checkKnownKeys(name, kind, details); err != nil {
			return nil, err
		}
		source, err := kind.build(details)
		if err != nil {
			return nil, shared.ConfigurationError("component %s: %s", name, trimConfigurationPrefix(err))
		}
		return source, nil
	}
	return nil, shared.ConfigurationError("unknown source for component: %s", name)
}

// FromDescriptor rebuilds the source recorded in a lock entry.
func (b SourceBuilder) FromDescriptor(desc types.SourceDescriptor) (Source, error) {
	details := desc.Details()
	switch desc.Type {
	case types.SourceKindRegistry:
		return newRegistrySource(b.Registry, details, b.DefaultRegistryURL)
	case types.SourceKindGit:
		return newGitSource(b.VCS, b.Manifests, details)
	case types.SourceKindLocal:
		return newLocalSource(b.Manifests, details)
	case types.SourceKindBuiltin:
		return newBuiltinSource(b.Platform), nil
	default:
		return nil, shared.ConfigurationError("unknown source type %q", desc.Type)
	}
}

func checkKnownKeys(name string, kind sourceKind, details map[string]string) error {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if slices.Contains(kind.knownKeys, key) {
			continue
		}
		hint := ""
		if matches := fuzzy.Find(key, kind.knownKeys); len(matches) > 0 {
			hint = fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
		}
		return shared.ConfigurationError(
			"unknown key %q for %s source of component %s%s; known keys: %s",
			key, kind.kind, name, hint, strings.Join(kind.knownKeys, ", "))
	}
	return nil
}

func trimConfigurationPrefix(err error) string {
	return strings.TrimPrefix(shared.ErrorMessage(err), shared.PrefixConfiguration+": ")
}
