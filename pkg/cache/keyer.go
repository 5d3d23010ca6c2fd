package cache

// Keyer generates cache keys. All components go through a Keyer so that
// keys stay stable across backends and can be scoped with [NewScopedKeyer].
type Keyer interface {
	// HTTPKey returns the key for a cached registry response.
	HTTPKey(namespace, key string) string
	// TreeKey returns the key for a resolved subtree.
	TreeKey(registry, pkg string, opts TreeKeyOpts) string
}

// TreeKeyOpts holds resolver settings that change the shape of a resolved
// subtree and therefore must be part of its key.
type TreeKeyOpts struct {
	Policy   string `json:"policy"`
	MaxDepth int    `json:"max_depth"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// TreeKey returns "tree:<registry>:<pkg>:<hash(opts)>".
// The package name stays readable so entries can be inspected in Redis.
func (DefaultKeyer) TreeKey(registry, pkg string, opts TreeKeyOpts) string {
	return hashKey("tree:"+registry+":"+pkg, opts)
}
