package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"component-manager/internal/core"
	"component-manager/internal/policies"
	"component-manager/internal/types"
)

// Validate checks the project manifests without contacting any source:
// every declaration must build a source, every rule must parse and
// override directories must agree.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	paths := compactStrings(req.ManifestPaths)
	tree, err := s.Manifests.LoadTree(paths)
	if err != nil {
		return ValidateResult{}, err
	}
	builder := s.newEngine(req.Engine).builder
	result := ValidateResult{}
	var decls []types.DependencyDecl
	for _, manifest := range tree.Manifests {
		for _, decl := range manifest.Dependencies {
			for _, rule := range decl.Rules {
				if _, err := core.ParseRule(rule.If); err != nil {
					return ValidateResult{}, err
				}
			}
			if _, err := builder.Build(decl.Name, decl.Details); err != nil {
				return ValidateResult{}, err
			}
			decls = append(decls, decl)
		}
		result.Manifests = append(result.Manifests, manifest.Name)
	}
	if _, err := policies.CollectOverrides(nil, decls); err != nil {
		return ValidateResult{}, err
	}
	result.Dependencies = len(decls)
	log.Ctx(ctx).Debug().Int("manifests", len(result.Manifests)).Int("dependencies", result.Dependencies).Msg("manifests validated")
	return result, nil
}
