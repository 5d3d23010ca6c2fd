// Package pkg provides the libraries behind deptree, an npm dependency
// tree resolver.
//
// # Overview
//
// deptree takes a package name and version, asks the registry for its
// metadata and recursively resolves each dependency against its own
// declared range. The result is a tree, not a globally consistent version
// set: the same package may appear at different versions in different
// branches, exactly as each parent asked for it.
//
// # Architecture
//
//	npm registry
//	     ↓
//	[integrations/npm]     HTTP client, response cache, retries
//	     ↓
//	[deps/javascript]      registry errors → resolver errors, package.json
//	     ↓
//	[deps]                 version selection, resolution cache, tree walk
//	     ↓
//	[io] / [render]        JSON, text, DOT, SVG, PDF, PNG
//
// Supporting packages:
//
//   - [cache]: byte stores (file, Redis, MongoDB, null) for registry
//     responses and resolved subtrees
//   - [httputil]: retry with exponential backoff
//   - [observability]: hooks for resolution, cache and registry events,
//     with a Prometheus implementation in observability/metrics
//   - [errors]: coded errors and input validation
//   - [buildinfo]: version information injected at build time
//
// # Quick Start
//
//	client := npm.NewClient(cache.NewNullCache(), npm.Options{})
//	r := deps.NewResolver(javascript.NewFetcher(client), deps.Options{})
//
//	tree, err := r.ResolveRoot(ctx, "express", "4.18.2")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(text.Render(tree, text.Options{MaxDepth: 2}))
//
// [integrations/npm]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/integrations/npm
// [deps/javascript]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/deps/javascript
// [deps]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/deps
// [io]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/deptree/pkg/buildinfo
package pkg
