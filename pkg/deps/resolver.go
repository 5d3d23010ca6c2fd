package deps

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/deptree/pkg/observability"
)

// ErrNoMatchingVersion is returned by [Resolver.ResolveRange] when no
// published version of the root satisfies the requested range. Below the
// root an unsatisfied range is not an error: the dependency is omitted.
var ErrNoMatchingVersion = errors.New("no matching version")

// Resolver builds dependency trees from a [Fetcher].
//
// A Resolver is safe for concurrent use. Its policy, depth bound and cache
// scope are fixed at construction.
type Resolver struct {
	fetcher Fetcher
	opts    Options
	shared  Cache

	// written holds the names this Resolver has put into its cache. With
	// Refresh, cache entries for other names are ignored.
	written sync.Map
}

// NewResolver creates a Resolver. With ScopeProcess, opts.Cache (or a new
// [MemoryCache] when nil) is shared by every call on the returned Resolver.
func NewResolver(f Fetcher, opts Options) *Resolver {
	opts = opts.WithDefaults()
	r := &Resolver{fetcher: f, opts: opts}
	if opts.CacheScope == ScopeProcess {
		r.shared = opts.Cache
		if r.shared == nil {
			r.shared = NewMemoryCache()
		}
	}
	return r
}

// Options returns the effective options, defaults applied.
func (r *Resolver) Options() Options { return r.opts }

// ResolveRoot resolves the tree of name at exactly version.
//
// The root's dependencies are read from the metadata entry for version
// without range matching; an unpublished version yields a root with no
// dependencies. Registry errors and context cancellation abort the whole
// resolution and no tree is returned.
func (r *Resolver) ResolveRoot(ctx context.Context, name, version string) (*Result, error) {
	return r.run(ctx, name, version, func(ctx context.Context, w *walk) (string, []Dependency, error) {
		meta, err := w.fetch(ctx, name)
		if err != nil {
			return "", nil, err
		}
		return version, meta.Versions[version], nil
	})
}

// ResolveRange is like [Resolver.ResolveRoot] but first selects the root
// version from rng (a semver range or dist-tag) under the resolver's policy.
func (r *Resolver) ResolveRange(ctx context.Context, name, rng string) (*Result, error) {
	return r.run(ctx, name, rng, func(ctx context.Context, w *walk) (string, []Dependency, error) {
		meta, err := w.fetch(ctx, name)
		if err != nil {
			return "", nil, err
		}
		v, ok := SelectFromMetadata(r.opts.Policy, meta, rng)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s@%s", ErrNoMatchingVersion, name, rng)
		}
		return v, meta.Versions[v], nil
	})
}

// Resolve dispatches on spec: an exact version goes to ResolveRoot,
// anything else (a range such as "^4.18.0" or a dist-tag such as "latest")
// to ResolveRange.
func (r *Resolver) Resolve(ctx context.Context, name, spec string) (*Result, error) {
	if _, err := semver.StrictNewVersion(spec); err == nil {
		return r.ResolveRoot(ctx, name, spec)
	}
	return r.ResolveRange(ctx, name, spec)
}

// ResolveManifest resolves a root that is not in the registry, such as a
// local package.json. name and version only label the root; deps are its
// declared dependencies.
func (r *Resolver) ResolveManifest(ctx context.Context, name, version string, deps []Dependency) (*Result, error) {
	return r.run(ctx, name, version, func(context.Context, *walk) (string, []Dependency, error) {
		return version, deps, nil
	})
}

type rootFunc func(ctx context.Context, w *walk) (version string, deps []Dependency, err error)

func (r *Resolver) run(ctx context.Context, name, requested string, root rootFunc) (res *Result, err error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, r.opts.Registry, name, requested)
	defer func() {
		hooks.OnResolveComplete(ctx, r.opts.Registry, name, requested, res.Count(), time.Since(start), err)
	}()

	w := r.newWalk()
	version, deps, err := root(ctx, w)
	if err != nil {
		return nil, err
	}

	children, err := w.expand(ctx, deps, []string{name}, 1)
	if err != nil {
		return nil, err
	}

	res = &Result{Name: name, Version: version, Dependencies: children}
	r.opts.Logger.Debug("resolved", "pkg", res.ID(), "nodes", res.Count(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (r *Resolver) newWalk() *walk {
	w := &walk{r: r, cache: r.shared}
	if w.cache == nil {
		w.cache = NewMemoryCache()
	}
	if r.opts.Concurrent {
		w.sem = semaphore.NewWeighted(int64(r.opts.Workers))
	}
	return w
}

// walk is the state of one ResolveRoot call.
type walk struct {
	r     *Resolver
	cache Cache
	sem   *semaphore.Weighted
}

func (w *walk) fetch(ctx context.Context, name string) (*Metadata, error) {
	if w.sem != nil {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer w.sem.Release(1)
	}
	m, err := w.r.fetcher.Fetch(ctx, name, w.r.opts.Refresh)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s: empty metadata", ErrTransient, name)
	}
	return m, nil
}

// expand resolves deps, the children of the last package on path, at the
// given depth. The result keeps declaration order and omits skipped entries.
func (w *walk) expand(ctx context.Context, deps []Dependency, path []string, depth int) ([]*Node, error) {
	deps = uniqueByName(deps)
	if !w.r.opts.Concurrent || len(deps) < 2 {
		out := make([]*Node, 0, len(deps))
		for _, d := range deps {
			n, err := w.child(ctx, d, path, depth)
			if err != nil {
				return nil, err
			}
			if n != nil {
				out = append(out, n)
			}
		}
		return out, nil
	}

	slots := make([]*Node, len(deps))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range deps {
		g.Go(func() error {
			n, err := w.child(gctx, d, path, depth)
			slots[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(slots))
	for _, n := range slots {
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// child resolves one declared dependency. A nil node with a nil error means
// the dependency is omitted from the tree.
func (w *walk) child(ctx context.Context, d Dependency, path []string, depth int) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := w.r.opts.Logger

	if slices.Contains(path, d.Name) {
		logger.Debug("cycle skipped", "pkg", d.Name, "path", strings.Join(path, " > "))
		return nil, nil
	}
	if n, ok := w.lookup(ctx, d.Name); ok {
		logger.Debug("cache hit", "pkg", d.Name, "version", n.Version)
		return n, nil
	}

	meta, err := w.fetch(ctx, d.Name)
	if err != nil {
		return nil, err
	}
	version, ok := SelectFromMetadata(w.r.opts.Policy, meta, d.Range)
	if !ok {
		logger.Debug("no satisfying version", "pkg", d.Name, "range", d.Range)
		return nil, nil
	}

	n := &Node{Name: d.Name, Version: version, Dependencies: []*Node{}}
	if depth >= w.r.opts.MaxDepth {
		logger.Debug("depth limit reached", "pkg", n.ID(), "depth", depth)
		return n, nil
	}

	children, err := w.expand(ctx, meta.Versions[version], append(slices.Clip(path), d.Name), depth+1)
	if err != nil {
		return nil, err
	}
	n.Dependencies = children
	w.cache.Put(ctx, d.Name, n)
	if w.r.opts.Refresh {
		w.r.written.Store(d.Name, struct{}{})
	}
	return n, nil
}

// lookup reads the resolution cache. With Refresh, only subtrees resolved
// by this Resolver count; entries left by earlier processes are skipped and
// later overwritten.
func (w *walk) lookup(ctx context.Context, name string) (*Node, bool) {
	if w.r.opts.Refresh {
		if _, ok := w.r.written.Load(name); !ok {
			return nil, false
		}
	}
	return w.cache.Get(ctx, name)
}

// uniqueByName drops repeated names, keeping the first occurrence.
func uniqueByName(deps []Dependency) []Dependency {
	seen := make(map[string]struct{}, len(deps))
	out := deps[:0:0]
	for _, d := range deps {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}
	return out
}
