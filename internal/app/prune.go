package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"component-manager/internal/core"
	"component-manager/internal/shared"
)

// PruneComponents removes directories under the components directory that
// the lock no longer references.
func (s Service) PruneComponents(ctx context.Context, req PruneRequest) (PruneResult, error) {
	lockPath := strings.TrimSpace(req.LockPath)
	if lockPath == "" {
		lockPath = DefaultLockFile
	}
	componentsDir := strings.TrimSpace(req.ComponentsDir)
	if componentsDir == "" {
		componentsDir = DefaultComponentsDir
	}
	lock, err := core.NewLockManager(s.LockStore, "").Load(lockPath)
	if err != nil {
		return PruneResult{}, err
	}
	if lock.IsEmpty() {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lock file not found: " + lockPath)
	}
	locked := map[string]struct{}{}
	for _, component := range lock.Components {
		locked[shared.DirName(component.Name)] = struct{}{}
	}

	installed, err := s.scanInstalled(componentsDir, locked)
	if err != nil {
		return PruneResult{}, err
	}
	plan := BuildPrunePlan(installed, locked, req.Force)
	result := PruneResult{
		KeepCount:   len(plan.Keep),
		DeleteCount: len(plan.Delete),
		Protected:   entryDirs(plan.Protected),
		DryRun:      req.DryRun,
	}
	if req.DryRun {
		return result, nil
	}
	for _, entry := range plan.Delete {
		if err := os.RemoveAll(filepath.Join(componentsDir, entry.Dir)); err != nil {
			return PruneResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("remove " + entry.Dir).
				WithCause(err)
		}
		result.Deleted = append(result.Deleted, entry.Dir)
	}
	log.Ctx(ctx).Info().
		Int("kept", result.KeepCount).
		Int("deleted", len(result.Deleted)).
		Int("protected", len(result.Protected)).
		Msg("components pruned")
	return result, nil
}

// scanInstalled lists the directories of componentsDir. Only stale entries
// are hashed. A missing components directory has nothing to prune.
func (s Service) scanInstalled(componentsDir string, locked map[string]struct{}) ([]PruneEntry, error) {
	entries, err := os.ReadDir(componentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("read components directory").
			WithCause(err)
	}
	var out []PruneEntry
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := PruneEntry{Dir: entry.Name()}
		if _, ok := locked[candidate.Dir]; !ok {
			candidate.Modified, err = s.modified(filepath.Join(componentsDir, candidate.Dir))
			if err != nil {
				return nil, err
			}
		}
		out = append(out, candidate)
	}
	return out, nil
}

// modified reports whether dir differs from its install record. A
// directory without a record was not installed by this tool.
func (s Service) modified(dir string) (bool, error) {
	recorded, found, err := s.HashRecords.ReadHash(dir)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	hash, err := s.Hasher.HashDir(dir)
	if err != nil {
		return false, err
	}
	return !strings.EqualFold(recorded, hash), nil
}
