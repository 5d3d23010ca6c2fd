package deps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	DefaultMaxDepth = 50 // Default maximum recursion depth
	DefaultWorkers  = 20 // Default concurrent fetch limit
)

var (
	// ErrNotFound is returned when the registry has no package by that name.
	ErrNotFound = errors.New("package not found")
	// ErrTransient is returned for network failures, unexpected status codes
	// and unreadable registry responses.
	ErrTransient = errors.New("transient fetch error")
)

// Dependency is a declared edge: a package name and the range the declaring
// version accepts.
type Dependency struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// Metadata is everything the resolver needs to know about a package.
type Metadata struct {
	Name     string                  // Package name
	Versions map[string][]Dependency // Version -> dependencies in declaration order
	DistTags map[string]string       // Tag -> version ("latest", "next", ...)
}

// AvailableVersions returns all published versions in no particular order.
func (m *Metadata) AvailableVersions() []string {
	out := make([]string, 0, len(m.Versions))
	for v := range m.Versions {
		out = append(out, v)
	}
	return out
}

// Node is a resolved package and its resolved children.
type Node struct {
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	Dependencies []*Node `json:"dependencies"`
}

// ID returns "name@version".
func (n *Node) ID() string { return n.Name + "@" + n.Version }

// Result is the tree returned by [Resolver.ResolveRoot]. It has the same
// shape as a [Node].
type Result = Node

// Count returns the number of nodes in the tree rooted at n, including n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	c := 1
	for _, d := range n.Dependencies {
		c += d.Count()
	}
	return c
}

// Depth returns the length of the longest root-to-leaf path, counting n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	d := 0
	for _, c := range n.Dependencies {
		d = max(d, c.Depth())
	}
	return d + 1
}

// Fetcher retrieves package metadata from a registry.
type Fetcher interface {
	// Fetch retrieves package information by name. If refresh is true,
	// cached responses are bypassed. Errors wrap ErrNotFound or
	// ErrTransient, or are context errors.
	Fetch(ctx context.Context, name string, refresh bool) (*Metadata, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string, refresh bool) (*Metadata, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, name string, refresh bool) (*Metadata, error) {
	return f(ctx, name, refresh)
}

// Policy decides which satisfying version wins.
type Policy string

const (
	PolicyHighest Policy = "highest" // newest satisfying version (npm behaviour)
	PolicyLowest  Policy = "lowest"  // oldest satisfying version
)

// ParsePolicy parses a policy name. The empty string means PolicyHighest.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyHighest:
		return PolicyHighest, nil
	case PolicyLowest:
		return PolicyLowest, nil
	}
	return "", fmt.Errorf("unknown policy %q (want highest or lowest)", s)
}

// CacheScope decides how long resolved subtrees are remembered.
type CacheScope string

const (
	ScopeRequest CacheScope = "request" // fresh cache per ResolveRoot call
	ScopeProcess CacheScope = "process" // one cache for the Resolver's lifetime
)

// ParseCacheScope parses a scope name. The empty string means ScopeRequest.
func ParseCacheScope(s string) (CacheScope, error) {
	switch CacheScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeRequest:
		return ScopeRequest, nil
	case ScopeProcess:
		return ScopeProcess, nil
	}
	return "", fmt.Errorf("unknown cache scope %q (want request or process)", s)
}

// Options configures a [Resolver].
type Options struct {
	Policy     Policy      // Version selection policy (default: highest)
	CacheScope CacheScope  // Resolution cache lifetime (default: request)
	Cache      Cache       // Process-scoped cache (default: in-memory); ignored for ScopeRequest
	MaxDepth   int         // Maximum tree depth (default: 50)
	Concurrent bool        // Expand siblings in parallel
	Workers    int         // Concurrent fetch limit when Concurrent (default: 20)
	Refresh    bool        // Bypass registry response caches and pre-existing cached subtrees
	Registry   string      // Registry name for logs and metrics (default: "npm")
	Logger     *log.Logger // Debug logging (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Policy == "" {
		opts.Policy = PolicyHighest
	}
	if opts.CacheScope == "" {
		opts.CacheScope = ScopeRequest
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Registry == "" {
		opts.Registry = "npm"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

