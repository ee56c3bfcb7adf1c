package audit

import (
	"context"

	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// Options configure one resolution run. The zero value resolves the
// current release of the root, unbounded depth, core dependencies
// only, no license extraction.
type Options struct {
	// Version pins the root package to a specific release. Empty means
	// the current release. Transitive packages always resolve at their
	// current release.
	Version string

	// MaxDepth bounds the traversal; packages at that depth are
	// declared but never expanded. Zero or negative means unbounded.
	MaxDepth int

	// IncludeConditional keeps declarations guarded by environment
	// markers or extras.
	IncludeConditional bool

	// IncludeDev keeps development tooling declarations.
	IncludeDev bool

	// Licenses extracts license identification for every fetched
	// package.
	Licenses bool

	// Refresh bypasses the metadata cache.
	Refresh bool

	// OnPackage, when set, observes progress: it is called once per
	// processed package with the running count and the canonical name.
	// The resolver itself never prints.
	OnPackage func(processed int, name string)
}

// Run is the result of one resolution: the graph, discovery depths,
// missing records, and per-package findings. A Run is not safe for
// concurrent mutation but is safe for concurrent reads once resolution
// finishes.
type Run struct {
	Root     string // root requirement as given
	RootName string // canonical root name
	Opts     Options

	// Graph maps each processed package (canonical name) to the
	// dependency declarations kept after filtering, in declaration
	// order. Entries exist for every processed package, even when no
	// declarations survive.
	Graph map[string][]string

	// Depths records the depth at which each package was first
	// reached. Declared-but-never-expanded packages have no entry.
	Depths map[string]int

	// Order lists graph keys in processing order.
	Order []string

	store     *store
	processed int
}

type queueItem struct {
	spec   string // declaration as written
	depth  int
	parent string // canonical declarer, "" for the root
}

func newRun(root string, src Source, opts Options) *Run {
	return &Run{
		Root:     root,
		RootName: Canonical(root),
		Opts:     opts,
		Graph:    make(map[string][]string),
		Depths:   make(map[string]int),
		store:    newStore(src, opts.Refresh),
	}
}

// Resolve walks the transitive dependencies of root breadth-first.
// The returned Run is always usable; a non-nil error means the context
// ended before the walk completed and the Run holds partial results.
func Resolve(ctx context.Context, src Source, root string, opts Options) (*Run, error) {
	run := newRun(root, src, opts)
	return run.resolve(ctx, []queueItem{{spec: root}}, nil)
}

// ResolveSeeds audits a set of declarations as if they were the
// dependencies of a synthetic root package, e.g. the entries of a
// requirements manifest. The root itself is never fetched and can
// never be missing.
func ResolveSeeds(ctx context.Context, src Source, rootName string, seeds []string, opts Options) (*Run, error) {
	run := newRun(rootName, src, opts)

	var kept []string
	for _, seed := range seeds {
		if !opts.IncludeConditional && IsConditional(seed) {
			continue
		}
		if !opts.IncludeDev && IsDev(seed) {
			continue
		}
		kept = append(kept, seed)
	}

	name := run.RootName
	run.Depths[name] = 0
	run.Graph[name] = kept
	run.Order = append(run.Order, name)
	run.processed++
	if opts.OnPackage != nil {
		opts.OnPackage(run.processed, name)
	}

	queue := make([]queueItem, 0, len(kept))
	for _, spec := range kept {
		queue = append(queue, queueItem{spec: spec, depth: 1, parent: name})
	}
	return run.resolve(ctx, queue, map[string]bool{name: true})
}

// resolve drains the queue. Each canonical name is processed at most
// once; cycles terminate because processed packages are never expanded
// again. Packages dequeued at the depth bound are dropped entirely.
func (r *Run) resolve(ctx context.Context, queue []queueItem, visited map[string]bool) (*Run, error) {
	if visited == nil {
		visited = make(map[string]bool)
	}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		it := queue[0]
		queue = queue[1:]
		name := Canonical(it.spec)

		if visited[name] || (r.Opts.MaxDepth > 0 && it.depth >= r.Opts.MaxDepth) {
			// The declarer still referenced the package even though
			// this queue entry is dropped: siblings can enqueue a
			// name before its first fetch fails.
			if m, ok := r.store.missing[name]; ok {
				m.addReferrer(it.parent)
			}
			continue
		}
		if _, ok := r.Depths[name]; !ok {
			r.Depths[name] = it.depth
		}
		visited[name] = true
		r.processed++
		if r.Opts.OnPackage != nil {
			r.Opts.OnPackage(r.processed, name)
		}

		deps := r.dependencies(ctx, name, it.spec, it.parent)
		r.Graph[name] = deps
		r.Order = append(r.Order, name)

		for _, dep := range deps {
			depName := Canonical(dep)
			if m, ok := r.store.missing[depName]; ok {
				m.addReferrer(name)
			}
			if !visited[depName] {
				queue = append(queue, queueItem{spec: dep, depth: it.depth + 1, parent: name})
			}
		}
	}
	return r, nil
}

// dependencies fetches metadata for one package and filters its
// declarations per the run options. A fetch failure yields no edges;
// the failure is recorded in the store.
func (r *Run) dependencies(ctx context.Context, name, spec, parent string) []string {
	p, ok := r.store.fetch(ctx, name, spec, parent, r.Opts.Licenses)
	if !ok {
		return nil
	}

	version := ""
	if name == r.RootName {
		version = r.Opts.Version
	}

	var deps []string
	for _, req := range p.DependenciesFor(version) {
		if !r.Opts.IncludeConditional && IsConditional(req) {
			continue
		}
		if !r.Opts.IncludeDev && IsDev(req) {
			continue
		}
		deps = append(deps, req)
	}
	return deps
}

// Processed is the number of unique packages expanded during the walk.
func (r *Run) Processed() int { return r.processed }

// Metadata returns the fetched metadata for a canonical name.
func (r *Run) Metadata(name string) (*pypi.Package, bool) {
	p, ok := r.store.packages[name]
	return p, ok
}

// Missing returns the fetch-failure records in the order the failures
// occurred.
func (r *Run) Missing() []*Missing { return r.store.missingList() }

// MissingFor returns the failure record for a canonical name.
func (r *Run) MissingFor(name string) (*Missing, bool) {
	m, ok := r.store.missing[name]
	return m, ok
}

// Classification returns the native-code findings for a canonical
// name. Only fetched packages have findings.
func (r *Run) Classification(name string) (*Classification, bool) {
	c, ok := r.store.findings[name]
	return c, ok
}

// License returns the license identification for a canonical name,
// present only when the run collected licenses and the package was
// fetched.
func (r *Run) License(name string) (*License, bool) {
	l, ok := r.store.licenses[name]
	return l, ok
}

// LicenseNames lists the canonical names with license identification.
func (r *Run) LicenseNames() []string {
	names := make([]string, 0, len(r.store.licenses))
	for name := range r.store.licenses {
		names = append(names, name)
	}
	return names
}

// Flagged lists canonical names whose findings clear the investigation
// threshold, unsorted.
func (r *Run) Flagged() []string {
	var names []string
	for name, c := range r.store.findings {
		if c.Flagged() {
			names = append(names, name)
		}
	}
	return names
}

// MaxDepth is the deepest level reached, 0 for an empty run.
func (r *Run) MaxDepth() int {
	deepest := 0
	for _, d := range r.Depths {
		if d > deepest {
			deepest = d
		}
	}
	return deepest
}

// allPackages is every canonical name mentioned by the graph, keys and
// edge targets alike. Root included when withRoot is set.
func (r *Run) allPackages(withRoot bool) map[string]bool {
	all := make(map[string]bool)
	for pkg, deps := range r.Graph {
		all[pkg] = true
		for _, dep := range deps {
			all[Canonical(dep)] = true
		}
	}
	if withRoot {
		all[r.RootName] = true
	} else {
		delete(all, r.RootName)
	}
	return all
}

// fullSpec finds the first declaration of a package in processing
// order, falling back to the bare name.
func (r *Run) fullSpec(name string) string {
	for _, pkg := range r.Order {
		for _, dep := range r.Graph[pkg] {
			if Canonical(dep) == name {
				return dep
			}
		}
	}
	return name
}

// directParents lists the packages declaring name, in processing
// order.
func (r *Run) directParents(name string) []string {
	var parents []string
	for _, pkg := range r.Order {
		for _, dep := range r.Graph[pkg] {
			if Canonical(dep) == name {
				parents = append(parents, pkg)
				break
			}
		}
	}
	return parents
}

// wheelInfo inspects the artifacts of a fetched package; the second
// return is false when metadata was never fetched.
func (r *Run) wheelInfo(name string) (WheelInfo, bool) {
	p, ok := r.store.packages[name]
	if !ok {
		return WheelInfo{WheelTypes: []string{}, IsPurePython: true}, false
	}
	return WheelInfoFor(p), true
}
