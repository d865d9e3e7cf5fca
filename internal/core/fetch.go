package core

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

const defaultFetchWorkers = 4

// FetchedComponent is a solved component after its bytes were placed on
// disk.
type FetchedComponent struct {
	Component types.SolvedComponent
	Source    Source
	Result    types.FetchResult
}

// Fetcher is the boundary between the solver's output and bytes on disk.
type Fetcher struct {
	Builder SourceBuilder
	Hasher  ports.HasherPort
	Metrics ports.MetricsPort
	Workers int
}

func NewFetcher(builder SourceBuilder, hasher ports.HasherPort, metrics ports.MetricsPort, workers int) Fetcher {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return Fetcher{Builder: builder, Hasher: hasher, Metrics: metrics, Workers: workers}
}

// ComponentDir is where a downloadable component lives under root.
func ComponentDir(root string, name string) string {
	return filepath.Join(root, shared.DirName(name))
}

// Fetch downloads one component into root and hashes the result.
// Non-downloadable components resolve to their existing location and
// carry no hash.
func (f Fetcher) Fetch(ctx context.Context, component types.SolvedComponent, root string) (FetchedComponent, error) {
	ctx, span := tracer.Start(ctx, "fetch.component", trace.WithAttributes(
		attribute.String("component", component.Name),
		attribute.String("version", component.Version),
	))
	defer span.End()

	source, err := f.Builder.FromDescriptor(component.Source)
	if err != nil {
		return FetchedComponent{}, err
	}
	path, err := source.Download(ctx, component, ComponentDir(root, component.Name))
	f.Metrics.Download(string(source.Kind()), err)
	if err != nil {
		return FetchedComponent{}, err
	}
	fetched := FetchedComponent{Component: component, Source: source, Result: types.FetchResult{Path: path}}
	if !source.Downloadable() {
		return fetched, nil
	}
	hash, err := f.Hasher.HashDir(path)
	if err != nil {
		return FetchedComponent{}, err
	}
	fetched.Result.Hash = hash
	log.Ctx(ctx).Debug().
		Str("component", component.Name).
		Str("version", component.Version).
		Str("hash", hash).
		Msg("component fetched")
	return fetched, nil
}

// FetchAll fetches every component of solution concurrently. Results keep
// the solution's order; the first failure cancels the rest.
func (f Fetcher) FetchAll(ctx context.Context, solution types.Solution, root string) ([]FetchedComponent, error) {
	out := make([]FetchedComponent, len(solution.Components))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.Workers)
	for i, component := range solution.Components {
		g.Go(func() error {
			fetched, err := f.Fetch(gctx, component, root)
			if err != nil {
				return err
			}
			out[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
