package javascript

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/deptree/pkg/deps"
	"github.com/matzehuels/deptree/pkg/integrations"
	"github.com/matzehuels/deptree/pkg/integrations/npm"
)

// Registry is the registry name used in cache keys, logs and metrics.
const Registry = "npm"

// Fetcher adapts an [npm.Client] to [deps.Fetcher].
type Fetcher struct {
	client *npm.Client
}

// NewFetcher wraps client.
func NewFetcher(client *npm.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch retrieves metadata for name. Registry misses wrap
// [deps.ErrNotFound]; network, status and decoding failures wrap
// [deps.ErrTransient]. Context errors are returned unchanged.
func (f *Fetcher) Fetch(ctx context.Context, name string, refresh bool) (*deps.Metadata, error) {
	info, err := f.client.FetchPackage(ctx, name, refresh)
	if err != nil {
		return nil, mapError(name, err)
	}

	versions := make(map[string][]deps.Dependency, len(info.Versions))
	for v, ds := range info.Versions {
		versions[v] = convert(ds)
	}
	return &deps.Metadata{
		Name:     info.Name,
		Versions: versions,
		DistTags: info.DistTags,
	}, nil
}

func convert(ds []npm.Dependency) []deps.Dependency {
	if len(ds) == 0 {
		return nil
	}
	out := make([]deps.Dependency, len(ds))
	for i, d := range ds {
		out[i] = deps.Dependency{Name: d.Name, Range: d.Range}
	}
	return out
}

func mapError(name string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, integrations.ErrNotFound):
		return fmt.Errorf("%w: %s: %w", deps.ErrNotFound, name, err)
	default:
		return fmt.Errorf("%w: %s: %w", deps.ErrTransient, name, err)
	}
}
