package policies

import (
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// BuiltinInjection adds the platform pseudo-component as an implicit
// dependency. Root scope is a project manifest; non-root scope is a
// resolved component's own dependency list.
type BuiltinInjection struct {
	Policy types.InjectPolicy
	Name   string
}

func NewBuiltinInjection(policy types.InjectPolicy, name string) BuiltinInjection {
	if policy == "" {
		policy = types.InjectPolicyRoot
	}
	return BuiltinInjection{Policy: policy, Name: shared.NormalizeName(name)}
}

// ParseInjectPolicy maps a configuration value to a policy. Empty selects
// the root policy.
func ParseInjectPolicy(value string) (types.InjectPolicy, error) {
	switch types.InjectPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", types.InjectPolicyRoot:
		return types.InjectPolicyRoot, nil
	case types.InjectPolicyAlways:
		return types.InjectPolicyAlways, nil
	case types.InjectPolicyNever:
		return types.InjectPolicyNever, nil
	default:
		return "", shared.ConfigurationError("unknown builtin injection policy %q (root, always, never)", value)
	}
}

// Apply returns decls with the builtin appended when the policy covers
// this scope and decls does not already name it.
func (b BuiltinInjection) Apply(decls []types.DependencyDecl, root bool) []types.DependencyDecl {
	switch b.Policy {
	case types.InjectPolicyNever:
		return decls
	case types.InjectPolicyRoot:
		if !root {
			return decls
		}
	}
	for _, decl := range decls {
		if shared.NormalizeName(decl.Name) == b.Name {
			return decls
		}
	}
	out := make([]types.DependencyDecl, 0, len(decls)+1)
	out = append(out, decls...)
	return append(out, types.DependencyDecl{Name: b.Name, Details: map[string]string{}})
}
