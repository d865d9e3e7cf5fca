package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// anySpec matches every concrete version.
const anySpec = "*"

// debOps is the ordered list of Debian relation operators tried during
// parsing. Longer tokens must precede shorter ones (">=" before ">").
var debOps = []string{">=", "<=", ">>", "<<", "==", "!=", "=", ">", "<"}

type debConstraint struct {
	op      string
	version debversion.Version
}

// versionCache memoizes parsed versions and constraints for one version
// scheme. A cache is not safe for concurrent use; callers create one per
// query.
type versionCache struct {
	scheme types.VersionScheme
	sem    map[string]*semver.Version
	semc   map[string]*semver.Constraints
	deb    map[string]debversion.Version
	debc   map[string][]debConstraint
	pep    map[string]pep440.Version
	pepc   map[string]pep440.Specifiers
}

func newVersionCache(scheme types.VersionScheme) *versionCache {
	if scheme == "" {
		scheme = types.VersionSchemeSemver
	}
	return &versionCache{
		scheme: scheme,
		sem:    map[string]*semver.Version{},
		semc:   map[string]*semver.Constraints{},
		deb:    map[string]debversion.Version{},
		debc:   map[string][]debConstraint{},
		pep:    map[string]pep440.Version{},
		pepc:   map[string]pep440.Specifiers{},
	}
}

// ParseVersionScheme maps a manifest value to a scheme. Empty selects
// semver.
func ParseVersionScheme(value string) (types.VersionScheme, error) {
	switch types.VersionScheme(strings.ToLower(strings.TrimSpace(value))) {
	case "", types.VersionSchemeSemver:
		return types.VersionSchemeSemver, nil
	case types.VersionSchemePep440:
		return types.VersionSchemePep440, nil
	case types.VersionSchemeDebian:
		return types.VersionSchemeDebian, nil
	default:
		return "", shared.ConfigurationError("unsupported version scheme %q", value)
	}
}

func isAnySpec(spec string) bool {
	trimmed := strings.TrimSpace(spec)
	return trimmed == "" || trimmed == anySpec
}

func (c *versionCache) semVersion(value string) (*semver.Version, error) {
	if parsed, ok := c.sem[value]; ok {
		return parsed, nil
	}
	parsed, err := semver.NewVersion(value)
	if err != nil {
		return nil, err
	}
	c.sem[value] = parsed
	return parsed, nil
}

func (c *versionCache) semConstraint(spec string) (*semver.Constraints, error) {
	if parsed, ok := c.semc[spec]; ok {
		return parsed, nil
	}
	// Masterminds spells exact equality with a single "=".
	normalized := strings.ReplaceAll(spec, "==", "=")
	parsed, err := semver.NewConstraint(normalized)
	if err != nil {
		return nil, err
	}
	c.semc[spec] = parsed
	return parsed, nil
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

// debConstraints parses a comma separated list such as ">= 1.0, << 2.0".
func (c *versionCache) debConstraints(spec string) ([]debConstraint, error) {
	if parsed, ok := c.debc[spec]; ok {
		return parsed, nil
	}
	var out []debConstraint
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op := "="
		for _, token := range debOps {
			if strings.HasPrefix(part, token) {
				op = token
				part = strings.TrimSpace(strings.TrimPrefix(part, token))
				break
			}
		}
		parsed, err := c.debVersion(part)
		if err != nil {
			return nil, err
		}
		out = append(out, debConstraint{op: op, version: parsed})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty constraint %q", spec)
	}
	c.debc[spec] = out
	return out, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepSpec(spec string) (pep440.Specifiers, error) {
	if parsed, ok := c.pepc[spec]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(spec)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.pepc[spec] = parsed
	return parsed, nil
}

// valid reports whether value parses in the cache's scheme.
func (c *versionCache) valid(value string) bool {
	var err error
	switch c.scheme {
	case types.VersionSchemePep440:
		_, err = c.pepVersion(value)
	case types.VersionSchemeDebian:
		_, err = c.debVersion(value)
	default:
		_, err = c.semVersion(value)
	}
	return err == nil
}

// prerelease is only meaningful for semver; other schemes never report
// prereleases.
func (c *versionCache) prerelease(value string) bool {
	if c.scheme != types.VersionSchemeSemver {
		return false
	}
	parsed, err := c.semVersion(value)
	if err != nil {
		return false
	}
	return parsed.Prerelease() != ""
}

// compare returns -1, 0, or 1 comparing two versions. Unparsable
// versions sort below parsable ones and lexically among themselves so
// ordering stays total and deterministic.
func (c *versionCache) compare(a string, b string) int {
	aValid, bValid := c.valid(a), c.valid(b)
	switch {
	case !aValid && !bValid:
		return strings.Compare(a, b)
	case !aValid:
		return -1
	case !bValid:
		return 1
	}
	switch c.scheme {
	case types.VersionSchemePep440:
		v1, _ := c.pepVersion(a)
		v2, _ := c.pepVersion(b)
		return v1.Compare(v2)
	case types.VersionSchemeDebian:
		v1, _ := c.debVersion(a)
		v2, _ := c.debVersion(b)
		return v1.Compare(v2)
	default:
		v1, _ := c.semVersion(a)
		v2, _ := c.semVersion(b)
		return v1.Compare(v2)
	}
}

// checkSpec parses spec without evaluating it, so a malformed spec fails
// even when there is nothing to match it against.
func (c *versionCache) checkSpec(spec string) error {
	if isAnySpec(spec) {
		return nil
	}
	var err error
	switch c.scheme {
	case types.VersionSchemePep440:
		_, err = c.pepSpec(spec)
	case types.VersionSchemeDebian:
		_, err = c.debConstraints(spec)
	default:
		_, err = c.semConstraint(spec)
	}
	if err != nil {
		return shared.ConfigurationError("invalid version spec %q (%s): %v", spec, c.scheme, err)
	}
	return nil
}

// satisfies reports whether version meets spec. A malformed spec is a
// configuration error; a malformed version simply does not match.
// Semver prereleases only match "*" or a range when allowPrerelease is
// set, or when the range itself names a prerelease.
func (c *versionCache) satisfies(version string, spec string, allowPrerelease bool) (bool, error) {
	if err := c.checkSpec(spec); err != nil {
		return false, err
	}
	if !c.valid(version) {
		return false, nil
	}
	if isAnySpec(spec) {
		return allowPrerelease || !c.prerelease(version), nil
	}
	switch c.scheme {
	case types.VersionSchemePep440:
		parsed, _ := c.pepVersion(version)
		specifiers, _ := c.pepSpec(spec)
		return specifiers.Check(parsed), nil
	case types.VersionSchemeDebian:
		parsed, _ := c.debVersion(version)
		constraints, _ := c.debConstraints(spec)
		return satisfiesDeb(parsed, constraints), nil
	default:
		parsed, _ := c.semVersion(version)
		constraints, _ := c.semConstraint(spec)
		if constraints.Check(parsed) {
			return true, nil
		}
		if allowPrerelease && parsed.Prerelease() != "" {
			base, err := parsed.SetPrerelease("")
			if err != nil {
				return false, nil
			}
			return constraints.Check(&base), nil
		}
		return false, nil
	}
}

func satisfiesDeb(v debversion.Version, constraints []debConstraint) bool {
	for _, constraint := range constraints {
		cmp := v.Compare(constraint.version)
		switch constraint.op {
		case "=", "==":
			if cmp != 0 {
				return false
			}
		case "!=":
			if cmp == 0 {
				return false
			}
		case ">=":
			if cmp < 0 {
				return false
			}
		case "<=":
			if cmp > 0 {
				return false
			}
		case ">", ">>":
			if cmp <= 0 {
				return false
			}
		case "<", "<<":
			if cmp >= 0 {
				return false
			}
		}
	}
	return true
}

// sortNewestFirst orders candidates by descending version. Ties keep
// their incoming order.
func sortNewestFirst(cache *versionCache, candidates []types.ComponentVersion) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return cache.compare(candidates[i].Version, candidates[j].Version) > 0
	})
}
