// Package deps resolves the transitive dependency tree of a published
// package.
//
// # Overview
//
// Resolution is a depth-first walk over registry metadata. Every dependency
// is resolved against its own declared range; there is no attempt at a
// globally consistent version set:
//
//	r := deps.NewResolver(javascript.NewFetcher(client), deps.Options{})
//	tree, err := r.ResolveRoot(ctx, "express", "4.18.2")
//
// For each declared (name, range) pair of a package, in declaration order:
//
//  1. A name already on the path from the root is skipped (cycle).
//  2. A name in the resolution [Cache] is reused without fetching.
//  3. Otherwise its metadata is fetched and a version selected. If none
//     satisfies the range the dependency is omitted, else its children are
//     resolved recursively and the node is cached.
//
// Skipped and omitted dependencies are silent. [ErrNotFound],
// [ErrTransient] and context errors abort the walk and no tree is
// returned.
//
// # Version Selection
//
// [Select] understands npm range syntax (comparators, ^, ~, x-ranges,
// hyphen ranges, || unions) and picks the highest or lowest satisfying
// version depending on [Policy]. [SelectFromMetadata] also accepts a
// dist-tag such as "latest" or "next".
//
// # Caching
//
// [Options].CacheScope controls how long resolved subtrees live. With
// [ScopeRequest] every ResolveRoot call starts with an empty
// [MemoryCache]. With [ScopeProcess] the Resolver keeps one cache for its
// lifetime, either in memory or in a byte store through [StoreCache].
//
// # Concurrency
//
// With Options.Concurrent siblings are expanded in parallel. Output order
// still follows declaration order, and at most Options.Workers registry
// fetches are in flight at once.
package deps
