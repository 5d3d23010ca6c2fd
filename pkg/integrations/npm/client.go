package npm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/deptree/pkg/buildinfo"
	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/integrations"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// corgiAccept requests the abbreviated metadata document, which carries
// versions, dist-tags and dependencies but not readmes or maintainers.
const corgiAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"

// Dependency is one entry of a version's "dependencies" object.
type Dependency struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// PackageInfo is the registry's view of a package.
//
// Versions maps every published version to its runtime dependencies in the
// order the registry lists them. devDependencies, peerDependencies and
// optionalDependencies are not included.
type PackageInfo struct {
	Name     string                  `json:"name"`
	Versions map[string][]Dependency `json:"versions"`
	DistTags map[string]string       `json:"dist_tags,omitempty"`
}

// Options configures [NewClient]. Zero values fall back to defaults.
type Options struct {
	BaseURL  string        // registry root (default: DefaultBaseURL)
	CacheTTL time.Duration // response cache TTL (0: never expire)
	Timeout  time.Duration // per-request timeout (default: 10s)
	Retries  int           // attempts for 5xx/network errors (default: 1)
	Keyer    cache.Keyer   // cache key generator (default: cache.DefaultKeyer)
}

// Client fetches package metadata from an npm-compatible registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client that caches responses in backend.
// Pass cache.NewNullCache() (or nil) to always fetch fresh metadata.
func NewClient(backend cache.Cache, opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ic := integrations.NewClient(backend, "npm", opts.CacheTTL, map[string]string{
		"Accept":     corgiAccept,
		"User-Agent": buildinfo.UserAgent(),
	})
	if opts.Timeout > 0 {
		ic.SetTimeout(opts.Timeout)
	}
	ic.SetRetries(opts.Retries)
	ic.SetKeyer(opts.Keyer)
	return &Client{Client: ic, baseURL: base}
}

// BaseURL returns the registry root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchPackage retrieves metadata for pkg. If refresh is true the response
// cache is bypassed.
//
// Errors wrap [integrations.ErrNotFound] when the registry has no such
// package, and [integrations.ErrNetwork] or [integrations.ErrMalformed]
// for anything else.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}

	var info PackageInfo
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+integrations.PathEscape(pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	name := data.Name
	if name == "" {
		name = pkg
	}
	versions := make(map[string][]Dependency, len(data.Versions))
	for v, d := range data.Versions {
		versions[v] = d.Dependencies
	}
	*info = PackageInfo{
		Name:     name,
		Versions: versions,
		DistTags: data.DistTags,
	}
	return nil
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type versionDetails struct {
	Dependencies DependencyList `json:"dependencies"`
}

// DependencyList is a "dependencies" object (name -> range) decoded in
// document order. It works for registry documents and package.json alike.
type DependencyList []Dependency

func (d *DependencyList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = nil
		return nil
	}
	// Some very old documents carry dependencies as an array of names.
	if len(b) > 0 && b[0] == '[' {
		var names []string
		if err := json.Unmarshal(b, &names); err != nil {
			return err
		}
		out := make([]Dependency, 0, len(names))
		for _, n := range names {
			out = append(out, Dependency{Name: n, Range: "*"})
		}
		*d = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dependencies: expected object, got %v", tok)
	}

	var out []Dependency
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var rng any
		if err := dec.Decode(&rng); err != nil {
			return err
		}
		s, _ := rng.(string)

		// Duplicate keys: last value wins, first position is kept.
		if i, ok := seen[name]; ok {
			out[i].Range = s
			continue
		}
		seen[name] = len(out)
		out = append(out, Dependency{Name: name, Range: s})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}
