package core

import (
	"strings"

	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const (
	ruleFieldTarget          = "target"
	ruleFieldIDFVersion      = "idf_version"
	ruleFieldPlatformVersion = "platform_version"
)

// ParsedRule is a rule expression split into its parts.
type ParsedRule struct {
	Field  string
	Op     types.RuleOp
	Values []string
}

// ruleOps is the ordered list of operators tried during parsing. "not in"
// must precede "in".
var ruleOps = []types.RuleOp{
	types.RuleOpNotIn,
	types.RuleOpIn,
	types.RuleOpEq,
	types.RuleOpNe,
}

// ParseRule splits "<field> <op> <value>" into a ParsedRule. Version
// fields additionally accept a bare version spec ("idf_version >=5.0").
func ParseRule(raw string) (ParsedRule, error) {
	expr := strings.TrimSpace(raw)
	if expr == "" {
		return ParsedRule{}, shared.ConfigurationError("empty rule")
	}
	field, rest, _ := strings.Cut(expr, " ")
	field = strings.TrimSpace(field)
	rest = strings.TrimSpace(rest)
	isVersion := field == ruleFieldIDFVersion || field == ruleFieldPlatformVersion
	if field != ruleFieldTarget && !isVersion {
		return ParsedRule{}, shared.ConfigurationError(
			"invalid rule %q: unknown field %q (supported: target, idf_version, platform_version)", raw, field)
	}
	if rest == "" {
		return ParsedRule{}, shared.ConfigurationError("invalid rule %q: missing operator", raw)
	}
	for _, op := range ruleOps {
		token := string(op)
		if !strings.HasPrefix(rest, token) {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, token))
		// "in" must be a whole word, "index" is not an operator.
		if (op == types.RuleOpIn || op == types.RuleOpNotIn) && len(rest) > len(token) && rest[len(token)] != ' ' && rest[len(token)] != '[' {
			continue
		}
		values := splitRuleValues(value)
		if len(values) == 0 {
			return ParsedRule{}, shared.ConfigurationError("invalid rule %q: missing value", raw)
		}
		return ParsedRule{Field: field, Op: op, Values: values}, nil
	}
	if !isVersion {
		return ParsedRule{}, shared.ConfigurationError("invalid rule %q: unsupported operator for target", raw)
	}
	if err := newVersionCache(types.VersionSchemeSemver).checkSpec(rest); err != nil {
		return ParsedRule{}, shared.ConfigurationError("invalid rule %q: %s", raw, shared.ErrorMessage(err))
	}
	return ParsedRule{Field: field, Op: types.RuleOpSpec, Values: []string{rest}}, nil
}

func splitRuleValues(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Evaluate reports whether the rule holds in rc.
func (r ParsedRule) Evaluate(rc types.ResolutionContext) (bool, error) {
	if r.Field == ruleFieldTarget {
		return r.matchValue(rc.Target, func(a string, b string) bool { return a == b }), nil
	}
	if strings.TrimSpace(rc.PlatformVersion) == "" {
		return false, shared.ConfigurationError("platform version is required to evaluate rule on %s", r.Field)
	}
	cache := newVersionCache(types.VersionSchemeSemver)
	if r.Op == types.RuleOpSpec {
		return cache.satisfies(rc.PlatformVersion, r.Values[0], true)
	}
	return r.matchValue(rc.PlatformVersion, func(a string, b string) bool {
		if cache.valid(a) && cache.valid(b) {
			return cache.compare(a, b) == 0
		}
		return a == b
	}), nil
}

func (r ParsedRule) matchValue(actual string, equal func(string, string) bool) bool {
	found := false
	for _, value := range r.Values {
		if equal(actual, value) {
			found = true
			break
		}
	}
	switch r.Op {
	case types.RuleOpNe, types.RuleOpNotIn:
		return !found
	default:
		return found
	}
}

// EvaluateRules reports whether every rule holds. An edge without rules
// always survives.
func EvaluateRules(rules []types.Rule, rc types.ResolutionContext) (bool, error) {
	for _, rule := range rules {
		parsed, err := ParseRule(rule.If)
		if err != nil {
			return false, err
		}
		ok, err := parsed.Evaluate(rc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// activeDependencies returns the declarations of decls whose rules hold
// in rc, keeping declaration order.
func activeDependencies(decls []types.DependencyDecl, rc types.ResolutionContext) ([]types.DependencyDecl, error) {
	var out []types.DependencyDecl
	for _, decl := range decls {
		ok, err := EvaluateRules(decl.Rules, rc)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, decl)
		}
	}
	return out, nil
}
