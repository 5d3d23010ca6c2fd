// Package javascript connects the npm registry to the resolver in [deps].
//
// # Registry Resolution
//
// [Fetcher] turns an [npm.Client] into a [deps.Fetcher]:
//
//	client := npm.NewClient(cache.NewNullCache(), npm.Options{})
//	r := deps.NewResolver(javascript.NewFetcher(client), deps.Options{})
//	tree, _ := r.ResolveRoot(ctx, "express", "4.18.2")
//
// Only the "dependencies" field of each version is followed;
// devDependencies, peerDependencies and optionalDependencies are not.
//
// # Manifest Parsing
//
// [ReadPackageJSON] reads a local package.json so an unpublished project can
// be resolved with [deps.Resolver.ResolveManifest]:
//
//	m, _ := javascript.ReadPackageJSON("package.json", false)
//	tree, _ := r.ResolveManifest(ctx, m.Name, m.Version, m.Dependencies)
//
// [npm.Client]: github.com/matzehuels/deptree/pkg/integrations/npm.Client
// [deps.Fetcher]: github.com/matzehuels/deptree/pkg/deps.Fetcher
package javascript
