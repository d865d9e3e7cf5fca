package types

import "strings"

// Rule is a conditional guard on a dependency edge, written as
// "<field> <op> <value>", for example "target in [esp32, esp32s3]".
type Rule struct {
	If string `yaml:"if" json:"if"`
}

// DependencyDecl is one declared requirement. Details carries the
// source-specific configuration (version, service_url, git, path, ...)
// exactly as written in the manifest.
type DependencyDecl struct {
	Name    string
	Details map[string]string
	Rules   []Rule
}

// Spec returns the declared version constraint, "*" when absent.
func (d DependencyDecl) Spec() string {
	spec := strings.TrimSpace(d.Details["version"])
	if spec == "" {
		return "*"
	}
	return spec
}

type Manifest struct {
	Name         string
	Version      string
	Description  string
	Targets      []string
	Path         string
	Dependencies []DependencyDecl
}

// ManifestTree is the set of project manifests resolution starts from.
type ManifestTree struct {
	Manifests []Manifest
}
