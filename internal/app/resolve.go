package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"component-manager/internal/policies"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const DefaultLockFile = "dependencies.lock"

// resolvePlan is a validated resolve request.
type resolvePlan struct {
	engine   engine
	tree     types.ManifestTree
	rc       types.ResolutionContext
	lockPath string
	force    bool
}

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	plan, err := s.planResolve(req)
	if err != nil {
		return ResolveResult{}, err
	}
	return s.resolve(ctx, plan)
}

func (s Service) planResolve(req ResolveRequest) (resolvePlan, error) {
	paths := compactStrings(req.ManifestPaths)
	if len(paths) == 0 {
		return resolvePlan{}, shared.ConfigurationError("at least one manifest path is required")
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return resolvePlan{}, shared.ConfigurationError("target is required")
	}
	lockPath := strings.TrimSpace(req.LockPath)
	if lockPath == "" {
		lockPath = DefaultLockFile
	}
	policy, err := policies.ParseInjectPolicy(req.InjectBuiltin)
	if err != nil {
		return resolvePlan{}, err
	}
	overrides, err := policies.ParseOverrideFlags(req.Overrides)
	if err != nil {
		return resolvePlan{}, err
	}
	tree, err := s.Manifests.LoadTree(paths)
	if err != nil {
		return resolvePlan{}, err
	}
	return resolvePlan{
		engine: s.newEngine(req.Engine),
		tree:   tree,
		rc: types.ResolutionContext{
			Target:          target,
			PlatformVersion: strings.TrimSpace(req.Engine.PlatformVersion),
			PlatformPath:    strings.TrimSpace(req.Engine.PlatformPath),
			Overrides:       overrides,
			InjectPolicy:    policy,
		},
		lockPath: lockPath,
		force:    req.Force,
	}, nil
}

// resolve runs the lock state machine: an up to date lock is reused,
// anything else is solved and written.
func (s Service) resolve(ctx context.Context, plan resolvePlan) (ResolveResult, error) {
	logger := log.Ctx(ctx).With().Str("lock", plan.lockPath).Logger()
	result := ResolveResult{LockPath: plan.lockPath, State: types.LockStateNoLock}

	lock, err := plan.engine.locks.Load(plan.lockPath)
	if err != nil {
		result.State = types.LockStateFailed
		return result, err
	}
	if !lock.IsEmpty() {
		result.State = types.LockStateComparing
		drift, err := plan.engine.locks.Compare(lock, plan.tree, plan.rc)
		if err != nil {
			result.State = types.LockStateFailed
			return result, err
		}
		result.Drift = drift
		if drift == types.DriftUnchanged && !plan.force {
			logger.Info().Msg("lock is up to date")
			result.State = types.LockStateReused
			result.Solution = lock
			result.Hints = resolveHints(plan, lock)
			return result, nil
		}
		logger.Info().Str("drift", string(drift)).Bool("force", plan.force).Msg("re-resolving dependencies")
	}

	result.State = types.LockStateResolving
	solution, err := plan.engine.solver.Solve(ctx, plan.tree, plan.rc)
	if err != nil {
		result.State = types.LockStateFailed
		return result, err
	}
	if err := plan.engine.locks.Persist(ctx, solution, plan.lockPath); err != nil {
		result.State = types.LockStateFailed
		return result, err
	}
	logger.Info().Int("dependencies", len(solution.Components)).Msg("lock written")
	result.State = types.LockStateLockWritten
	result.Solution = solution
	result.Hints = resolveHints(plan, solution)
	return result, nil
}

func compactStrings(values []string) []string {
	var out []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
