package core

import (
	"bytes"
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"component-manager/internal/policies"
	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// LockManager serializes solutions, detects drift and gates integrity.
type LockManager struct {
	Store        ports.LockStorePort
	PlatformName string
}

func NewLockManager(store ports.LockStorePort, platformName string) LockManager {
	if strings.TrimSpace(platformName) == "" {
		platformName = DefaultPlatformName
	}
	return LockManager{Store: store, PlatformName: platformName}
}

// Load reads the lock at path. A missing lock yields an empty Solution; a
// lock that cannot be parsed or fails validation is a LockCorruptionError.
func (m LockManager) Load(path string) (types.Solution, error) {
	data, found, err := m.Store.Read(path)
	if err != nil {
		return types.Solution{}, err
	}
	if !found {
		return types.Solution{}, nil
	}
	return Decode(data, path)
}

// Decode parses and validates a lock document.
func Decode(data []byte, origin string) (types.Solution, error) {
	var solution types.Solution
	if err := yaml.Unmarshal(data, &solution); err != nil {
		return types.Solution{}, shared.LockCorruptionError(err, "%s: invalid yaml", origin)
	}
	if strings.TrimSpace(solution.SchemaVersion) == "" {
		return types.Solution{}, shared.LockCorruptionError(nil, "%s: missing version", origin)
	}
	if strings.TrimSpace(solution.ManifestHash) == "" {
		return types.Solution{}, shared.LockCorruptionError(nil, "%s: missing manifest_hash", origin)
	}
	seen := map[string]bool{}
	for i, component := range solution.Components {
		if strings.TrimSpace(component.Name) == "" || strings.TrimSpace(component.Version) == "" {
			return types.Solution{}, shared.LockCorruptionError(nil, "%s: dependency #%d needs name and version", origin, i+1)
		}
		if seen[component.Name] {
			return types.Solution{}, shared.LockCorruptionError(nil, "%s: duplicate dependency %s", origin, component.Name)
		}
		seen[component.Name] = true
		switch component.Source.Type {
		case types.SourceKindRegistry, types.SourceKindGit, types.SourceKindBuiltin:
		case types.SourceKindLocal:
			solution.Components[i].Path = component.Source.Get("path")
		default:
			return types.Solution{}, shared.LockCorruptionError(nil, "%s: unknown source type %q for %s", origin, component.Source.Type, component.Name)
		}
	}
	return solution, nil
}

// Encode renders solution as a lock document. Equal solutions encode to
// identical bytes.
func Encode(solution types.Solution) ([]byte, error) {
	ordered := solution
	ordered.Components = append([]types.SolvedComponent(nil), solution.Components...)
	sortComponents(ordered.Components)
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(ordered); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Persist replaces the lock at path with solution in one atomic step.
func (m LockManager) Persist(ctx context.Context, solution types.Solution, path string) error {
	_, span := tracer.Start(ctx, "lock.persist")
	defer span.End()
	data, err := Encode(solution)
	if err != nil {
		return shared.LockCorruptionError(err, "encode lock")
	}
	if err := m.Store.WriteAtomic(path, data); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("path", path).Int("dependencies", len(solution.Components)).Msg("lock persisted")
	return nil
}

// Compare classifies how the current manifest tree and context differ
// from what lock was resolved for.
func (m LockManager) Compare(lock types.Solution, tree types.ManifestTree, rc types.ResolutionContext) (types.DriftOutcome, error) {
	if lock.SchemaVersion != SchemaVersion ||
		lock.Target != rc.Target ||
		lock.PlatformVersion != rc.PlatformVersion {
		return types.DriftTargetChanged, nil
	}
	hash, err := ManifestHash(tree, rc)
	if err != nil {
		return "", err
	}
	if hash != lock.ManifestHash {
		return types.DriftManifestChanged, nil
	}
	injection := policies.NewBuiltinInjection(rc.InjectPolicy, m.PlatformName)
	roots, err := rootEdges(tree, rc, injection)
	if err != nil {
		return "", err
	}
	for _, root := range roots {
		if _, ok := lock.Lookup(root.name); !ok {
			return types.DriftManifestChanged, nil
		}
	}
	return types.DriftUnchanged, nil
}

// VerifyIntegrity compares the recorded hash of component with the hash
// of its local content. Sources that do not require hashes always pass.
func (m LockManager) VerifyIntegrity(component types.SolvedComponent, source Source, localHash string) error {
	if !source.ComponentHashRequired() {
		return nil
	}
	recorded := strings.TrimSpace(component.ComponentHash)
	if recorded == "" {
		return shared.IntegrityError("%s %s has no recorded component_hash", component.Name, component.Version)
	}
	if !strings.EqualFold(recorded, strings.TrimSpace(localHash)) {
		return shared.IntegrityError("%s %s: lock records %s but the downloaded content hashes to %s",
			component.Name, component.Version, recorded, localHash)
	}
	return nil
}
