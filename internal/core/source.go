package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// Source is where a component's versions and bytes come from. The set of
// variants is closed: RegistrySource, GitSource, LocalSource and
// BuiltinSource. Sources are immutable after construction and safe to
// share between goroutines.
type Source interface {
	Kind() types.SourceKind
	// KnownKeys lists the detail keys this kind accepts.
	KnownKeys() []string
	// HashKey digests the normalized configuration; two sources of the
	// same kind with equal hash keys are interchangeable.
	HashKey() string
	Downloadable() bool
	ComponentHashRequired() bool
	// Versions returns the candidates satisfying spec, newest first.
	Versions(ctx context.Context, name string, spec string) ([]types.ComponentVersion, error)
	// Matches reports whether version satisfies spec under this source's
	// version scheme.
	Matches(version string, spec string) (bool, error)
	// Download places the component into dest (or returns its existing
	// location for non-downloadable sources) and returns the path.
	Download(ctx context.Context, component types.SolvedComponent, dest string) (string, error)
	// Descriptor is the ordered form written to the lock.
	Descriptor() types.SourceDescriptor

	sealed()
}

// commonKeys are accepted by every source kind.
var commonKeys = []string{"version", "require", "public"}

// SourceKey identifies a source for de-duplication. It is consistent with
// SameSource.
func SourceKey(s Source) string {
	return string(s.Kind()) + ":" + s.HashKey()
}

// SameSource reports whether a and b are the same kind with the same
// configuration.
func SameSource(a Source, b Source) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind() == b.Kind() && a.HashKey() == b.HashKey()
}

// DescribeSource renders a short human readable form for messages.
func DescribeSource(s Source) string {
	desc := s.Descriptor()
	if len(desc.Fields) == 0 {
		return string(desc.Type)
	}
	parts := make([]string, 0, len(desc.Fields))
	for _, field := range desc.Fields {
		parts = append(parts, field.Key+"="+field.Value)
	}
	return fmt.Sprintf("%s(%s)", desc.Type, strings.Join(parts, ", "))
}

func hashDescriptor(desc types.SourceDescriptor) string {
	fields := append([]types.SourceField(nil), desc.Fields...)
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Key < fields[j].Key
	})
	var b strings.Builder
	b.WriteString(string(desc.Type))
	for _, field := range fields {
		b.WriteByte(0)
		b.WriteString(field.Key)
		b.WriteByte('=')
		b.WriteString(field.Value)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

func withCommonKeys(keys ...string) []string {
	out := append([]string(nil), commonKeys...)
	return append(out, keys...)
}

// replaceDir fills a temporary sibling of dest through fill and then
// swaps it into place, so dest is either the previous complete content or
// the new complete content.
func replaceDir(dest string, fill func(tmp string) error) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+".tmp-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()
	if err := fill(tmp); err != nil {
		return err
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("remove previous %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("move %s into place: %w", dest, err)
	}
	committed = true
	return nil
}

// wrapUnavailable keeps typed engine errors intact and classifies
// anything else from a backend as a SourceUnavailableError.
func wrapUnavailable(err error, format string, args ...any) error {
	if shared.KindOf(err) != shared.KindUnknown {
		return err
	}
	return shared.SourceUnavailableError(err, format, args...)
}

var (
	_ Source = RegistrySource{}
	_ Source = GitSource{}
	_ Source = LocalSource{}
	_ Source = BuiltinSource{}
)
