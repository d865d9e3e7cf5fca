package adapters

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// ManifestFileNames are looked up, in order, inside a component directory.
var ManifestFileNames = []string{"component.yml", "idf_component.yml"}

// pathKeys hold filesystem paths that are resolved against the directory
// of the manifest that declares them.
var pathKeys = []string{"path", "override_path"}

// ManifestFileAdapter reads component.yml manifests from disk.
type ManifestFileAdapter struct {
	LookupEnv func(string) (string, bool)
}

func NewManifestFileAdapter() ManifestFileAdapter {
	return ManifestFileAdapter{LookupEnv: os.LookupEnv}
}

type manifestDocument struct {
	Name         string    `yaml:"name"`
	Version      string    `yaml:"version"`
	Description  string    `yaml:"description"`
	Targets      []string  `yaml:"targets"`
	Dependencies yaml.Node `yaml:"dependencies"`
}

// LoadTree loads the project manifests. Each path is either a manifest
// file or a directory that contains one.
func (a ManifestFileAdapter) LoadTree(paths []string) (types.ManifestTree, error) {
	if len(paths) == 0 {
		return types.ManifestTree{}, shared.ConfigurationError("no project manifest given")
	}
	tree := types.ManifestTree{}
	for _, path := range paths {
		file, err := a.manifestFile(path)
		if err != nil {
			return types.ManifestTree{}, err
		}
		manifest, err := a.loadFile(file)
		if err != nil {
			return types.ManifestTree{}, err
		}
		tree.Manifests = append(tree.Manifests, manifest)
	}
	return tree, nil
}

func (a ManifestFileAdapter) LoadDir(dir string) (types.Manifest, bool, error) {
	for _, name := range ManifestFileNames {
		file := filepath.Join(dir, name)
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		manifest, err := a.loadFile(file)
		if err != nil {
			return types.Manifest{}, false, err
		}
		return manifest, true, nil
	}
	return types.Manifest{}, false, nil
}

// Parse reads a manifest that does not live on the local filesystem.
// Relative paths in it are left untouched.
func (a ManifestFileAdapter) Parse(data []byte, origin string) (types.Manifest, error) {
	return a.parse(data, origin, "")
}

func (a ManifestFileAdapter) manifestFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("manifest %s not found", path)).
			WithCause(err)
	}
	if !info.IsDir() {
		return path, nil
	}
	for _, name := range ManifestFileNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no %s in %s", strings.Join(ManifestFileNames, " or "), path))
}

func (a ManifestFileAdapter) loadFile(file string) (types.Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return types.Manifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("manifest %s not found", file)).
			WithCause(err)
	}
	abs, err := filepath.Abs(filepath.Dir(file))
	if err != nil {
		return types.Manifest{}, err
	}
	manifest, err := a.parse(data, file, abs)
	if err != nil {
		return types.Manifest{}, err
	}
	manifest.Path = abs
	return manifest, nil
}

func (a ManifestFileAdapter) parse(data []byte, origin string, baseDir string) (types.Manifest, error) {
	var doc manifestDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.Manifest{}, shared.ConfigurationError("%s: invalid manifest yaml: %v", origin, err)
	}
	manifest := types.Manifest{Targets: doc.Targets}
	var err error
	if manifest.Name, err = a.substitute(doc.Name, origin); err != nil {
		return types.Manifest{}, err
	}
	if manifest.Version, err = a.substitute(doc.Version, origin); err != nil {
		return types.Manifest{}, err
	}
	if manifest.Description, err = a.substitute(doc.Description, origin); err != nil {
		return types.Manifest{}, err
	}
	manifest.Dependencies, err = a.parseDependencies(&doc.Dependencies, origin, baseDir)
	if err != nil {
		return types.Manifest{}, err
	}
	return manifest, nil
}

// parseDependencies walks the dependencies mapping node so declaration
// order survives.
func (a ManifestFileAdapter) parseDependencies(node *yaml.Node, origin string, baseDir string) ([]types.DependencyDecl, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, shared.ConfigurationError("%s: line %d: dependencies must be a mapping", origin, node.Line)
	}
	var out []types.DependencyDecl
	seen := map[string]bool{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if name == "" {
			return nil, shared.ConfigurationError("%s: line %d: empty dependency name", origin, key.Line)
		}
		identity := shared.NormalizeName(name)
		if seen[identity] {
			return nil, shared.ConfigurationError("%s: line %d: %s is declared twice", origin, key.Line, name)
		}
		seen[identity] = true
		decl, err := a.parseDeclaration(name, value, origin, baseDir)
		if err != nil {
			return nil, err
		}
		out = append(out, decl)
	}
	return out, nil
}

func (a ManifestFileAdapter) parseDeclaration(name string, node *yaml.Node, origin string, baseDir string) (types.DependencyDecl, error) {
	decl := types.DependencyDecl{Name: name, Details: map[string]string{}}
	switch node.Kind {
	case yaml.ScalarNode:
		spec, err := a.substitute(node.Value, origin)
		if err != nil {
			return types.DependencyDecl{}, err
		}
		if strings.TrimSpace(spec) != "" {
			decl.Details["version"] = spec
		}
		return decl, nil
	case yaml.MappingNode:
	default:
		return types.DependencyDecl{}, shared.ConfigurationError(
			"%s: line %d: dependency %s must be a version string or a mapping", origin, node.Line, name)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if key == "rules" {
			rules, err := a.parseRules(name, value, origin)
			if err != nil {
				return types.DependencyDecl{}, err
			}
			decl.Rules = rules
			continue
		}
		if value.Kind != yaml.ScalarNode {
			return types.DependencyDecl{}, shared.ConfigurationError(
				"%s: line %d: %s.%s must be a scalar", origin, value.Line, name, key)
		}
		resolved, err := a.substitute(value.Value, origin)
		if err != nil {
			return types.DependencyDecl{}, err
		}
		decl.Details[key] = resolved
	}
	for _, key := range pathKeys {
		// The path of a git dependency is relative to the repository root.
		if key == "path" && decl.Details["git"] != "" {
			continue
		}
		if dir := decl.Details[key]; baseDir != "" && dir != "" && !filepath.IsAbs(dir) {
			decl.Details[key] = filepath.Join(baseDir, dir)
		}
	}
	return decl, nil
}

func (a ManifestFileAdapter) parseRules(name string, node *yaml.Node, origin string) ([]types.Rule, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, shared.ConfigurationError("%s: line %d: %s.rules must be a list", origin, node.Line, name)
	}
	var rules []types.Rule
	for _, item := range node.Content {
		var rule types.Rule
		if err := item.Decode(&rule); err != nil || strings.TrimSpace(rule.If) == "" {
			return nil, shared.ConfigurationError("%s: line %d: %s.rules entries need an \"if\" expression", origin, item.Line, name)
		}
		expr, err := a.substitute(rule.If, origin)
		if err != nil {
			return nil, err
		}
		rules = append(rules, types.Rule{If: expr})
	}
	return rules, nil
}

func (a ManifestFileAdapter) substitute(value string, origin string) (string, error) {
	lookup := a.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	expanded, err := expandEnv(value, lookup)
	if err != nil {
		return "", shared.ConfigurationError("%s: %v", origin, err)
	}
	return expanded, nil
}

var errDanglingDollar = errors.New("invalid \"$\" placeholder, write \"$$\" for a literal dollar sign")

// expandEnv replaces $NAME and ${NAME} with environment values. "$$" is a
// literal dollar sign and an unset variable is an error.
func expandEnv(value string, lookup func(string) (string, bool)) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] != '$' {
			b.WriteByte(value[i])
			continue
		}
		if i+1 >= len(value) {
			return "", errDanglingDollar
		}
		next := value[i+1]
		var name string
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
			continue
		case next == '{':
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated \"${\" in %q", value)
			}
			name = value[i+2 : i+2+end]
			if !isEnvName(name) {
				return "", fmt.Errorf("invalid variable name %q", name)
			}
			i += end + 2
		case isEnvStart(next):
			j := i + 1
			for j < len(value) && isEnvPart(value[j]) {
				j++
			}
			name = value[i+1 : j]
			i = j - 1
		default:
			return "", errDanglingDollar
		}
		resolved, ok := lookup(name)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		b.WriteString(resolved)
	}
	return b.String(), nil
}

func isEnvName(name string) bool {
	if name == "" || !isEnvStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isEnvPart(name[i]) {
			return false
		}
	}
	return true
}

func isEnvStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isEnvPart(c byte) bool {
	return isEnvStart(c) || (c >= '0' && c <= '9')
}

var _ ports.ManifestPort = ManifestFileAdapter{}
