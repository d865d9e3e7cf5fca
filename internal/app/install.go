package app

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const DefaultComponentsDir = "managed_components"

// Install resolves, fetches every component and gates each download on
// its recorded hash. Hashes missing from a freshly written lock are
// filled in from the downloaded content and the lock is written again.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	componentsDir := strings.TrimSpace(req.ComponentsDir)
	if componentsDir == "" {
		componentsDir = DefaultComponentsDir
	}
	plan, err := s.planResolve(req.ResolveRequest)
	if err != nil {
		return InstallResult{}, err
	}
	resolved, err := s.resolve(ctx, plan)
	if err != nil {
		return InstallResult{}, err
	}
	fetched, err := plan.engine.fetcher.FetchAll(ctx, resolved.Solution, componentsDir)
	if err != nil {
		return InstallResult{}, err
	}

	fresh := resolved.State == types.LockStateLockWritten
	solution := resolved.Solution
	solution.Components = slices.Clone(resolved.Solution.Components)
	recorded := false
	installed := make([]InstalledComponent, 0, len(fetched))
	for i, item := range fetched {
		component := item.Component
		if item.Source.Downloadable() {
			if fresh && strings.TrimSpace(component.ComponentHash) == "" {
				component.ComponentHash = item.Result.Hash
				solution.Components[i].ComponentHash = item.Result.Hash
				recorded = true
			}
			if !fresh && item.Source.ComponentHashRequired() && strings.TrimSpace(component.ComponentHash) == "" {
				s.metrics().IntegrityFailure(component.Name)
				_ = os.RemoveAll(item.Result.Path)
				return InstallResult{}, shared.IntegrityError(
					"%s %s has no recorded component_hash in %s; run install with --force to resolve again and record it",
					component.Name, component.Version, plan.lockPath)
			}
			if err := plan.engine.locks.VerifyIntegrity(component, item.Source, item.Result.Hash); err != nil {
				s.metrics().IntegrityFailure(component.Name)
				_ = os.RemoveAll(item.Result.Path)
				return InstallResult{}, err
			}
			if err := s.HashRecords.WriteHash(item.Result.Path, item.Result.Hash); err != nil {
				return InstallResult{}, err
			}
		}
		installed = append(installed, InstalledComponent{
			Name:    component.Name,
			Version: component.Version,
			Source:  component.Source.Type,
			Path:    item.Result.Path,
			Hash:    item.Result.Hash,
		})
	}
	if recorded {
		if err := plan.engine.locks.Persist(ctx, solution, plan.lockPath); err != nil {
			return InstallResult{}, err
		}
		resolved.Solution = solution
	}
	log.Ctx(ctx).Info().
		Int("components", len(installed)).
		Str("dir", componentsDir).
		Msg("components installed")
	return InstallResult{Resolve: resolved, Installed: installed}, nil
}

func (s Service) metrics() ports.MetricsPort {
	if s.Metrics == nil {
		return ports.NopMetrics{}
	}
	return s.Metrics
}
