package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"component-manager/internal/policies"
	"component-manager/internal/ports"
	"component-manager/internal/shared"
	"component-manager/internal/types"
)

// SchemaVersion is written into every lock document.
const SchemaVersion = "1.0.0"

const defaultSolverWorkers = 8

// maxSolverRestarts bounds re-walks; every restart removes at least one
// candidate, so real trees converge far below this.
const maxSolverRestarts = 64

var tracer = otel.Tracer("component-manager/core")

type Solver struct {
	Builder SourceBuilder
	Workers int
	Metrics ports.MetricsPort
}

func NewSolver(builder SourceBuilder, workers int, metrics ports.MetricsPort) Solver {
	if workers <= 0 {
		workers = defaultSolverWorkers
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return Solver{Builder: builder, Workers: workers, Metrics: metrics}
}

// specOrigin is one requirement on an identity and who stated it.
type specOrigin struct {
	spec     string
	requirer string
}

func (o specOrigin) String() string {
	return fmt.Sprintf("%q (required by %s)", o.spec, o.requirer)
}

type edge struct {
	requirer string
	name     string
	decl     types.DependencyDecl
	source   Source
}

// constraintEntry is the merged state for one identity.
type constraintEntry struct {
	name       string
	source     Source
	sourceFrom string
	origins    []specOrigin
	initial    []types.ComponentVersion
	candidates []types.ComponentVersion
	selected   types.ComponentVersion
	deps       []string
}

// restartError signals that an already expanded identity changed its
// selected version; the walk is repeated with the narrowing seeded.
type restartError struct {
	name   string
	origin specOrigin
	// version is the requirer's selected version when the edge was merged,
	// empty for project manifests.
	version string
}

// restartSeed is a narrowing carried into the next walk. It only holds
// while its requirer is still selected at the version that stated it.
type restartSeed struct {
	name    string
	origin  specOrigin
	version string
}

func (s restartSeed) key() string {
	return s.name + "|" + s.origin.requirer + "@" + s.version + "|" + s.origin.spec
}

func (e *restartError) Error() string {
	return fmt.Sprintf("restart: %s narrowed by %s", e.name, e.origin)
}

// solveRun is the per-call solver state. Merges are applied by a single
// goroutine; only version queries run concurrently.
type solveRun struct {
	solver    Solver
	rc        types.ResolutionContext
	injection policies.BuiltinInjection
	overrides map[string]Source
	seeds     map[string][]restartSeed
	applied   []restartSeed

	queriesMu sync.Mutex
	queries   map[string][]types.ComponentVersion

	table    map[string]*constraintEntry
	order    []string
	expanded map[string]bool
}

// Solve turns the manifest tree into a Solution for rc.
func (s Solver) Solve(ctx context.Context, tree types.ManifestTree, rc types.ResolutionContext) (types.Solution, error) {
	ctx, span := tracer.Start(ctx, "solver.solve")
	defer span.End()
	start := time.Now()
	defer func() { s.Metrics.SolveDuration(time.Since(start)) }()

	solution, err := s.solve(ctx, tree, rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, shared.ErrorMessage(err))
		return types.Solution{}, err
	}
	span.SetAttributes(
		attribute.String("target", rc.Target),
		attribute.Int("components", len(solution.Components)),
	)
	log.Ctx(ctx).Debug().Int("resolved", len(solution.Components)).Msg("solver completed")
	return solution, nil
}

func (s Solver) solve(ctx context.Context, tree types.ManifestTree, rc types.ResolutionContext) (types.Solution, error) {
	run := &solveRun{
		solver:    s,
		rc:        rc,
		injection: policies.NewBuiltinInjection(rc.InjectPolicy, s.Builder.PlatformName()),
		seeds:     map[string][]restartSeed{},
		queries:   map[string][]types.ComponentVersion{},
	}
	roots, err := rootEdges(tree, rc, run.injection)
	if err != nil {
		return types.Solution{}, err
	}
	if err := run.bindOverrides(roots); err != nil {
		return types.Solution{}, err
	}
	for attempt := 0; ; attempt++ {
		err := run.walk(ctx, roots)
		var restart *restartError
		if errors.As(err, &restart) {
			if attempt >= maxSolverRestarts {
				return types.Solution{}, shared.ConflictError(shared.PrefixConflict,
					"resolution of %s did not converge after %d restarts", restart.name, attempt)
			}
			log.Ctx(ctx).Debug().Str("component", restart.name).Msg("solver restart")
			s.Metrics.SolverRestart()
			run.addSeed(restartSeed{name: restart.name, origin: restart.origin, version: restart.version})
			continue
		}
		if err != nil {
			return types.Solution{}, err
		}
		if stale := run.dropStaleSeeds(); len(stale) > 0 {
			if attempt >= maxSolverRestarts {
				return types.Solution{}, shared.ConflictError(shared.PrefixConflict,
					"resolution of %s did not converge after %d restarts", stale[0].name, attempt)
			}
			log.Ctx(ctx).Debug().Str("component", stale[0].name).Msg("solver restart, stale narrowing dropped")
			s.Metrics.SolverRestart()
			continue
		}
		break
	}
	if err := checkCycles(tree, roots, run); err != nil {
		return types.Solution{}, err
	}
	manifestHash, err := ManifestHash(tree, rc)
	if err != nil {
		return types.Solution{}, err
	}
	return types.Solution{
		SchemaVersion:   SchemaVersion,
		ManifestHash:    manifestHash,
		Target:          rc.Target,
		PlatformVersion: rc.PlatformVersion,
		Components:      run.components(ctx),
	}, nil
}

// rootEdges evaluates rules on the project manifests and applies builtin
// injection. Pruned declarations never reach the solver.
func rootEdges(tree types.ManifestTree, rc types.ResolutionContext, injection policies.BuiltinInjection) ([]edge, error) {
	var out []edge
	for _, manifest := range tree.Manifests {
		active, err := activeDependencies(manifest.Dependencies, rc)
		if err != nil {
			return nil, shared.ConfigurationError("manifest %s: %s", manifest.Name, trimConfigurationPrefix(err))
		}
		for _, decl := range injection.Apply(active, true) {
			out = append(out, edge{
				requirer: manifestLabel(manifest),
				name:     shared.NormalizeName(decl.Name),
				decl:     decl,
			})
		}
	}
	return out, nil
}

func manifestLabel(manifest types.Manifest) string {
	if name := shared.NormalizeName(manifest.Name); name != "" {
		return name
	}
	return manifest.Path
}

// bindOverrides builds one local source per override before any merge,
// so every edge naming an overridden identity agrees on its source.
func (r *solveRun) bindOverrides(roots []edge) error {
	decls := make([]types.DependencyDecl, 0, len(roots))
	for _, root := range roots {
		decls = append(decls, root.decl)
	}
	dirs, err := policies.CollectOverrides(r.rc.Overrides, decls)
	if err != nil {
		return err
	}
	r.overrides = map[string]Source{}
	for name, dir := range dirs {
		source, err := r.solver.Builder.Build(name, map[string]string{"override_path": dir})
		if err != nil {
			return err
		}
		r.overrides[name] = source
	}
	return nil
}

func (r *solveRun) addSeed(seed restartSeed) {
	for _, existing := range r.seeds[seed.name] {
		if existing.key() == seed.key() {
			return
		}
	}
	r.seeds[seed.name] = append(r.seeds[seed.name], seed)
}

// seedHolds reports whether seed still describes a requirement of the
// current walk. A requirer not merged yet is given the benefit of the
// doubt; dropStaleSeeds settles it once the walk is complete.
func (r *solveRun) seedHolds(seed restartSeed) bool {
	if seed.version == "" {
		return true
	}
	requirer, ok := r.table[seed.origin.requirer]
	return !ok || requirer.selected.Version == seed.version
}

// dropStaleSeeds removes seeds applied in the last walk whose requirer
// ended up absent or at another version, and returns them.
func (r *solveRun) dropStaleSeeds() []restartSeed {
	var stale []restartSeed
	for _, seed := range r.applied {
		if seed.version == "" {
			continue
		}
		requirer, ok := r.table[seed.origin.requirer]
		if ok && requirer.selected.Version == seed.version {
			continue
		}
		stale = append(stale, seed)
		kept := r.seeds[seed.name][:0]
		for _, existing := range r.seeds[seed.name] {
			if existing.key() != seed.key() {
				kept = append(kept, existing)
			}
		}
		r.seeds[seed.name] = kept
	}
	return stale
}

func (r *solveRun) walk(ctx context.Context, roots []edge) error {
	r.table = map[string]*constraintEntry{}
	r.order = nil
	r.expanded = map[string]bool{}
	r.applied = nil

	frontier := slices.Clone(roots)
	for depth := 0; len(frontier) > 0; depth++ {
		if err := r.bindSources(frontier); err != nil {
			return err
		}
		if err := r.prefetch(ctx, frontier); err != nil {
			return err
		}
		var fresh []string
		for _, e := range frontier {
			isNew, err := r.merge(e)
			if err != nil {
				return err
			}
			if isNew {
				fresh = append(fresh, e.name)
			}
		}
		next, err := r.expand(fresh)
		if err != nil {
			return err
		}
		log.Ctx(ctx).Debug().
			Int("depth", depth).
			Int("edges", len(frontier)).
			Int("expanded", len(fresh)).
			Msg("solver frontier merged")
		frontier = next
	}
	return nil
}

func (r *solveRun) bindSources(frontier []edge) error {
	for i := range frontier {
		if override, ok := r.overrides[frontier[i].name]; ok {
			frontier[i].source = override
			continue
		}
		source, err := r.solver.Builder.Build(frontier[i].decl.Name, frontier[i].decl.Details)
		if err != nil {
			return err
		}
		frontier[i].source = source
	}
	return nil
}

func queryKey(e edge) string {
	return SourceKey(e.source) + "|" + e.name + "|" + e.decl.Spec()
}

// prefetch queries, concurrently, every source that a first sighting in
// this frontier will need.
func (r *solveRun) prefetch(ctx context.Context, frontier []edge) error {
	seen := map[string]bool{}
	var pending []edge
	for _, e := range frontier {
		if _, merged := r.table[e.name]; merged || seen[e.name] {
			continue
		}
		seen[e.name] = true
		r.queriesMu.Lock()
		_, cached := r.queries[queryKey(e)]
		r.queriesMu.Unlock()
		if !cached {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.solver.Workers)
	for _, e := range pending {
		g.Go(func() error {
			versions, err := e.source.Versions(gctx, e.decl.Name, e.decl.Spec())
			r.solver.Metrics.VersionQuery(string(e.source.Kind()), err)
			if err != nil {
				return err
			}
			r.queriesMu.Lock()
			r.queries[queryKey(e)] = versions
			r.queriesMu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// merge folds one edge into the constraint table. It reports whether the
// identity was seen for the first time.
func (r *solveRun) merge(e edge) (bool, error) {
	origin := specOrigin{spec: e.decl.Spec(), requirer: e.requirer}
	entry, seen := r.table[e.name]
	if !seen {
		r.queriesMu.Lock()
		candidates := r.queries[queryKey(e)]
		r.queriesMu.Unlock()
		filtered := r.supportedTargets(candidates)
		if len(filtered) == 0 {
			if len(candidates) > 0 && r.rc.Target != "" {
				return false, shared.ConflictError(shared.PrefixConflict,
					"no version of %s matching %s supports target %s", e.name, origin, r.rc.Target)
			}
			return false, shared.ConflictError(shared.PrefixConflict,
				"no version of %s satisfies %s", e.name, origin)
		}
		origins := []specOrigin{origin}
		for _, seed := range r.seeds[e.name] {
			if !r.seedHolds(seed) {
				continue
			}
			narrowed, err := filterMatching(e.source, filtered, seed.origin.spec)
			if err != nil {
				return false, err
			}
			if len(narrowed) == 0 {
				return false, shared.ConflictError(shared.PrefixConflict,
					"no version of %s satisfies both %s and %s", e.name, origin, seed.origin)
			}
			filtered = narrowed
			origins = append(origins, seed.origin)
			r.applied = append(r.applied, seed)
		}
		r.table[e.name] = &constraintEntry{
			name:       e.name,
			source:     e.source,
			sourceFrom: e.requirer,
			origins:    origins,
			initial:    filtered,
			candidates: filtered,
			selected:   filtered[0],
		}
		r.order = append(r.order, e.name)
		return true, nil
	}

	if !SameSource(entry.source, e.source) {
		return false, shared.ConflictError(shared.PrefixAmbiguous,
			"%s is requested from %s by %s and from %s by %s",
			e.name, DescribeSource(entry.source), entry.sourceFrom, DescribeSource(e.source), e.requirer)
	}
	narrowed, err := filterMatching(entry.source, entry.candidates, origin.spec)
	if err != nil {
		return false, err
	}
	if len(narrowed) == 0 {
		return false, shared.ConflictError(shared.PrefixConflict,
			"no version of %s satisfies both %s and %s", e.name, origin, entry.blame(origin))
	}
	entry.origins = append(entry.origins, origin)
	if narrowed[0].Version != entry.selected.Version && r.expanded[e.name] {
		restart := &restartError{name: e.name, origin: origin}
		if requirer, ok := r.table[e.requirer]; ok {
			restart.version = requirer.selected.Version
		}
		return false, restart
	}
	entry.candidates = narrowed
	entry.selected = narrowed[0]
	return false, nil
}

// blame picks the earlier requirement that clashes with origin on its
// own, falling back to the most recent one.
func (c *constraintEntry) blame(origin specOrigin) specOrigin {
	for _, previous := range c.origins {
		pair, err := filterMatching(c.source, c.initial, previous.spec)
		if err != nil {
			continue
		}
		pair, err = filterMatching(c.source, pair, origin.spec)
		if err == nil && len(pair) == 0 {
			return previous
		}
	}
	return c.origins[len(c.origins)-1]
}

func filterMatching(source Source, candidates []types.ComponentVersion, spec string) ([]types.ComponentVersion, error) {
	var out []types.ComponentVersion
	for _, candidate := range candidates {
		ok, err := source.Matches(candidate.Version, spec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, candidate)
		}
	}
	return out, nil
}

// supportedTargets drops candidates that declare targets not including
// the context target. Candidates without targets support every target.
func (r *solveRun) supportedTargets(candidates []types.ComponentVersion) []types.ComponentVersion {
	if strings.TrimSpace(r.rc.Target) == "" {
		return candidates
	}
	var out []types.ComponentVersion
	for _, candidate := range candidates {
		if len(candidate.Targets) == 0 || slices.Contains(candidate.Targets, r.rc.Target) {
			out = append(out, candidate)
		}
	}
	return out
}

// expand marks identities as expanded and returns the edges of their
// selected versions, in first-sighting order.
func (r *solveRun) expand(names []string) ([]edge, error) {
	var next []edge
	for _, name := range names {
		entry := r.table[name]
		r.expanded[name] = true
		active, err := activeDependencies(entry.selected.Dependencies, r.rc)
		if err != nil {
			return nil, shared.ConfigurationError("component %s %s: %s", name, entry.selected.Version, trimConfigurationPrefix(err))
		}
		if entry.source.Kind() != types.SourceKindBuiltin {
			active = r.injection.Apply(active, false)
		}
		entry.deps = entry.deps[:0]
		for _, decl := range active {
			depName := shared.NormalizeName(decl.Name)
			if !slices.Contains(entry.deps, depName) {
				entry.deps = append(entry.deps, depName)
			}
			next = append(next, edge{requirer: name, name: depName, decl: decl})
		}
		sort.Strings(entry.deps)
	}
	return next, nil
}

// components renders the merged table in lock order: the builtin first,
// then by identity.
func (r *solveRun) components(ctx context.Context) []types.SolvedComponent {
	out := make([]types.SolvedComponent, 0, len(r.order))
	for _, name := range r.order {
		entry := r.table[name]
		component := types.SolvedComponent{
			Name:         name,
			Version:      entry.selected.Version,
			Source:       entry.source.Descriptor(),
			Dependencies: slices.Clone(entry.deps),
		}
		if entry.source.Downloadable() {
			component.ComponentHash = entry.selected.ComponentHash
		}
		switch source := entry.source.(type) {
		case LocalSource:
			component.Path = source.Path()
		case BuiltinSource:
			component.Path = source.platform.Path
		}
		assert.NotEmpty(ctx, component.Version, "solved component version must be set")
		out = append(out, component)
	}
	sortComponents(out)
	return out
}

func sortComponents(components []types.SolvedComponent) {
	sort.SliceStable(components, func(i, j int) bool {
		iBuiltin := components[i].Source.Type == types.SourceKindBuiltin
		jBuiltin := components[j].Source.Type == types.SourceKindBuiltin
		if iBuiltin != jBuiltin {
			return iBuiltin
		}
		return components[i].Name < components[j].Name
	})
}
