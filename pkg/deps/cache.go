package deps

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/observability"
)

// Cache remembers resolved subtrees by package name.
//
// Implementations must be safe for concurrent use but need not guarantee
// at-most-once resolution: two callers may miss on the same name and both
// Put, and the last Put wins.
type Cache interface {
	Get(ctx context.Context, name string) (*Node, bool)
	Put(ctx context.Context, name string, n *Node)
}

// MemoryCache is an in-process [Cache]. Nodes are deep-copied on the way in
// and out, so callers never share nodes with the cache or with each other.
type MemoryCache struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{nodes: make(map[string]*Node)}
}

func (c *MemoryCache) Get(_ context.Context, name string) (*Node, bool) {
	c.mu.RLock()
	n, ok := c.nodes[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

func (c *MemoryCache) Put(_ context.Context, name string, n *Node) {
	if n == nil {
		return
	}
	n = n.Clone()
	c.mu.Lock()
	c.nodes[name] = n
	c.mu.Unlock()
}

// Len returns the number of cached names.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// StoreOptions configures a [StoreCache].
type StoreOptions struct {
	Registry string        // Key namespace (default: "npm")
	Policy   Policy        // Part of the key; trees differ per policy
	MaxDepth int           // Part of the key; trees differ per depth bound
	TTL      time.Duration // Entry lifetime (0: never expire)
	Keyer    cache.Keyer   // Key generator (default: cache.DefaultKeyer)
}

// StoreCache is a [Cache] backed by a byte store (file, Redis, MongoDB).
// Nodes are stored as JSON. Backend and decode errors count as misses and
// failed writes are dropped, so a flaky backend only costs refetches.
type StoreCache struct {
	backend cache.Cache
	keyer   cache.Keyer
	opts    StoreOptions
}

// NewStoreCache wraps backend.
func NewStoreCache(backend cache.Cache, opts StoreOptions) *StoreCache {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if opts.Registry == "" {
		opts.Registry = "npm"
	}
	if opts.Policy == "" {
		opts.Policy = PolicyHighest
	}
	return &StoreCache{backend: backend, keyer: keyer, opts: opts}
}

func (c *StoreCache) key(name string) string {
	return c.keyer.TreeKey(c.opts.Registry, name, cache.TreeKeyOpts{
		Policy:   string(c.opts.Policy),
		MaxDepth: c.opts.MaxDepth,
	})
}

func (c *StoreCache) Get(ctx context.Context, name string) (*Node, bool) {
	hooks := observability.Cache()
	data, ok, err := c.backend.Get(ctx, c.key(name))
	if err != nil || !ok {
		hooks.OnCacheMiss(ctx, observability.CacheTree)
		return nil, false
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil || n.Name == "" {
		hooks.OnCacheMiss(ctx, observability.CacheTree)
		return nil, false
	}
	hooks.OnCacheHit(ctx, observability.CacheTree)
	return &n, true
}

func (c *StoreCache) Put(ctx context.Context, name string, n *Node) {
	if n == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, c.key(name), data, c.opts.TTL); err == nil {
		observability.Cache().OnCacheSet(ctx, observability.CacheTree, len(data))
	}
}

// Clone returns a deep copy of n. Dependencies is never nil in the copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Name:         n.Name,
		Version:      n.Version,
		Dependencies: make([]*Node, 0, len(n.Dependencies)),
	}
	for _, d := range n.Dependencies {
		out.Dependencies = append(out.Dependencies, d.Clone())
	}
	return out
}
