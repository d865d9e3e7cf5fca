package app

import (
	"context"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"component-manager/internal/core"
	"component-manager/internal/shared"
)

// Verify re-hashes every installed downloadable component and compares
// the result with the lock and with the hash recorded at install time.
func (s Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	lockPath := strings.TrimSpace(req.LockPath)
	if lockPath == "" {
		lockPath = DefaultLockFile
	}
	componentsDir := strings.TrimSpace(req.ComponentsDir)
	if componentsDir == "" {
		componentsDir = DefaultComponentsDir
	}
	locks := core.NewLockManager(s.LockStore, "")
	lock, err := locks.Load(lockPath)
	if err != nil {
		return VerifyResult{}, err
	}
	if lock.IsEmpty() {
		return VerifyResult{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lock file not found: " + lockPath)
	}
	builder := core.NewSourceBuilder(nil, nil, s.Manifests, core.PlatformConfig{}, "")

	result := VerifyResult{}
	for _, component := range lock.Components {
		source, err := builder.FromDescriptor(component.Source)
		if err != nil {
			return VerifyResult{}, err
		}
		if !source.Downloadable() {
			result.Skipped = append(result.Skipped, component.Name)
			continue
		}
		dir := core.ComponentDir(componentsDir, component.Name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			s.metrics().IntegrityFailure(component.Name)
			return VerifyResult{}, shared.IntegrityError("%s %s is not installed in %s", component.Name, component.Version, componentsDir)
		}
		hash, err := s.Hasher.HashDir(dir)
		if err != nil {
			return VerifyResult{}, err
		}
		if err := locks.VerifyIntegrity(component, source, hash); err != nil {
			s.metrics().IntegrityFailure(component.Name)
			return VerifyResult{}, err
		}
		recorded, found, err := s.HashRecords.ReadHash(dir)
		if err != nil {
			return VerifyResult{}, err
		}
		if found && !strings.EqualFold(recorded, hash) {
			s.metrics().IntegrityFailure(component.Name)
			return VerifyResult{}, shared.IntegrityError("%s %s was modified after installation", component.Name, component.Version)
		}
		log.Ctx(ctx).Debug().Str("component", component.Name).Str("hash", hash).Msg("component verified")
		result.Verified = append(result.Verified, component.Name)
	}
	return result, nil
}
