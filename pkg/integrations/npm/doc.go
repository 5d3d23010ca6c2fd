// Package npm provides an HTTP client for the npm registry API.
//
// # Usage
//
//	client := npm.NewClient(cache.NewNullCache(), npm.Options{})
//	pkg, err := client.FetchPackage(ctx, "express", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range pkg.Versions["4.18.2"] {
//	    fmt.Println(d.Name, d.Range)
//	}
//
// # Metadata
//
// The client requests the abbreviated install document
// (application/vnd.npm.install-v1+json) from GET {baseURL}/{name}. Scoped
// names are requested as @scope%2Fname.
//
// [PackageInfo] keeps, per version, the runtime "dependencies" in the order
// the registry lists them, and the dist-tags map ("latest", "next", ...).
//
// # Caching
//
// Responses can be cached in any [cache.Cache] backend. With the null
// backend every call goes to the registry. Pass refresh=true to bypass a
// populated cache.
//
// [cache.Cache]: github.com/matzehuels/deptree/pkg/cache.Cache
package npm
