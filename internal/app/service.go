package app

import (
	"strings"

	"component-manager/internal/adapters"
	"component-manager/internal/core"
	"component-manager/internal/ports"
)

type Service struct {
	Manifests   ports.ManifestPort
	LockStore   ports.LockStorePort
	Hasher      ports.HasherPort
	HashRecords ports.HashRecordPort
	// Registry and VCS are built from EngineOptions when nil.
	Registry ports.RegistryClientPort
	VCS      ports.VCSPort
	Metrics  ports.MetricsPort
}

func NewService() Service {
	hasher := adapters.NewComponentHasher()
	return Service{
		Manifests:   adapters.NewManifestFileAdapter(),
		LockStore:   adapters.NewLockFileAdapter(),
		Hasher:      hasher,
		HashRecords: hasher,
		Metrics:     ports.NopMetrics{},
	}
}

// engine bundles the core services configured for one run.
type engine struct {
	builder core.SourceBuilder
	solver  core.Solver
	locks   core.LockManager
	fetcher core.Fetcher
}

func (s Service) newEngine(opts EngineOptions) engine {
	registry := s.Registry
	if registry == nil {
		registry = adapters.NewRegistryRouter(
			adapters.NewRegistryHTTPClient(opts.HTTPTimeoutSec, opts.HTTPRetries, opts.HTTPRetryDelayMs),
			adapters.NewRegistryIndexFileAdapter(),
		)
	}
	vcs := s.VCS
	if vcs == nil {
		vcs = adapters.NewGitCLIClient(opts.GitCacheDir)
	}
	metrics := s.Metrics
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	platform := core.PlatformConfig{
		Name:    strings.TrimSpace(opts.PlatformName),
		Version: strings.TrimSpace(opts.PlatformVersion),
		Path:    strings.TrimSpace(opts.PlatformPath),
	}
	builder := core.NewSourceBuilder(registry, vcs, s.Manifests, platform, strings.TrimSpace(opts.RegistryURL))
	return engine{
		builder: builder,
		solver:  core.NewSolver(builder, opts.Workers, metrics),
		locks:   core.NewLockManager(s.LockStore, builder.PlatformName()),
		fetcher: core.NewFetcher(builder, s.Hasher, metrics, opts.Workers),
	}
}
