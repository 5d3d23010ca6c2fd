// Package config loads deptree's TOML configuration.
//
// A missing file at the default location means defaults. Values from the
// file are overridden by command-line flags in the cli package.
//
//	[registry]
//	base_url  = "https://registry.npmjs.org"
//	timeout   = "10s"
//	retries   = 3
//	cache_ttl = "24h"
//
//	[resolver]
//	policy        = "highest"   # or "lowest"
//	cache_scope   = "request"   # or "process"
//	concurrent    = false
//	workers       = 20
//	max_depth     = 50
//	persist_trees = false       # with "process", keep subtrees in [cache] across runs
//	tree_ttl      = "1h"
//
//	[cache]
//	backend    = "file"       # none, file, redis, mongo
//	key_prefix = ""           # e.g. "staging:" to share a Redis with others
//
//	[server]
//	addr            = ":8080"
//	request_timeout = "4m30s"   # must stay below write_timeout
//	write_timeout   = "5m"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/deps"
	deperrors "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/integrations/npm"
)

const appName = "deptree"

// Config is the full configuration file.
type Config struct {
	Registry Registry `toml:"registry"`
	Resolver Resolver `toml:"resolver"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Registry configures the npm client.
type Registry struct {
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
	Retries  int           `toml:"retries"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// Resolver configures tree resolution.
type Resolver struct {
	Policy       string        `toml:"policy"`
	CacheScope   string        `toml:"cache_scope"`
	Concurrent   bool          `toml:"concurrent"`
	Workers      int           `toml:"workers"`
	MaxDepth     int           `toml:"max_depth"`
	PersistTrees bool          `toml:"persist_trees"`
	TreeTTL      time.Duration `toml:"tree_ttl"`
}

// PersistTrees reports whether resolved subtrees go to the byte store
// instead of process memory. It needs the process scope and a backend.
func (c *Config) PersistTrees() bool {
	scope, _ := deps.ParseCacheScope(c.Resolver.CacheScope)
	return c.Resolver.PersistTrees && scope == deps.ScopeProcess && c.Cache.Backend != cache.BackendNone
}

// Cache configures the byte store shared by registry responses and, with
// resolver.persist_trees, resolved subtrees.
type Cache struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	KeyPrefix       string `toml:"key_prefix"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Server configures `deptree serve`.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry: Registry{
			BaseURL:  npm.DefaultBaseURL,
			Timeout:  10 * time.Second,
			Retries:  3, // the client alone defaults to a single attempt
			CacheTTL: 24 * time.Hour,
		},
		Resolver: Resolver{
			Policy:     string(deps.PolicyHighest),
			CacheScope: string(deps.ScopeRequest),
			Workers:    deps.DefaultWorkers,
			MaxDepth:   deps.DefaultMaxDepth,
			TreeTTL:    time.Hour,
		},
		Cache: Cache{
			Backend:         cache.BackendFile,
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   appName,
			MongoCollection: "cache",
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			RequestTimeout:  4*time.Minute + 30*time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads the file at path on top of [Default]. An empty path means
// [DefaultPath], where a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "read config")
	}
	if err := Parse(data, cfg); err != nil {
		return nil, deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, rejecting unknown keys.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, format, args...)
	}

	if err := deperrors.ValidateURL(c.Registry.BaseURL); err != nil {
		return invalid("registry.base_url: %s", deperrors.UserMessage(err))
	}
	if c.Registry.Timeout <= 0 {
		return invalid("registry.timeout must be positive")
	}
	if c.Registry.Retries < 1 {
		return invalid("registry.retries must be at least 1")
	}
	if _, err := deps.ParsePolicy(c.Resolver.Policy); err != nil {
		return invalid("resolver.policy: %v", err)
	}
	if _, err := deps.ParseCacheScope(c.Resolver.CacheScope); err != nil {
		return invalid("resolver.cache_scope: %v", err)
	}
	if c.Resolver.Workers < 1 {
		return invalid("resolver.workers must be at least 1")
	}
	if c.Resolver.MaxDepth < 1 {
		return invalid("resolver.max_depth must be at least 1")
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendFile, cache.BackendRedis, cache.BackendMongo:
	default:
		return invalid("cache.backend: unknown backend %q (want none, file, redis or mongo)", c.Cache.Backend)
	}
	if c.Server.Addr == "" {
		return invalid("server.addr cannot be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return invalid("server.request_timeout must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return invalid("server.request_timeout (%s) must be below server.write_timeout (%s)",
			c.Server.RequestTimeout, c.Server.WriteTimeout)
	}
	return nil
}

// ResolverOptions converts the resolver section. Validate first; invalid
// names fall back to defaults here.
func (c *Config) ResolverOptions() deps.Options {
	policy, _ := deps.ParsePolicy(c.Resolver.Policy)
	scope, _ := deps.ParseCacheScope(c.Resolver.CacheScope)
	return deps.Options{
		Policy:     policy,
		CacheScope: scope,
		Concurrent: c.Resolver.Concurrent,
		Workers:    c.Resolver.Workers,
		MaxDepth:   c.Resolver.MaxDepth,
		Registry:   "npm",
	}
}

// StoreOptions returns the options for a [deps.StoreCache] matching the
// resolver section.
func (c *Config) StoreOptions() deps.StoreOptions {
	opts := c.ResolverOptions()
	return deps.StoreOptions{
		Registry: opts.Registry,
		Policy:   opts.Policy,
		MaxDepth: opts.MaxDepth,
		TTL:      c.Resolver.TreeTTL,
		Keyer:    c.keyer(),
	}
}

// NpmOptions converts the registry section.
func (c *Config) NpmOptions() npm.Options {
	return npm.Options{
		BaseURL:  c.Registry.BaseURL,
		CacheTTL: c.Registry.CacheTTL,
		Timeout:  c.Registry.Timeout,
		Retries:  c.Registry.Retries,
		Keyer:    c.keyer(),
	}
}

// keyer prefixes every cache key with cache.key_prefix, or returns nil
// (the default keyer) when it is unset.
func (c *Config) keyer() cache.Keyer {
	if c.Cache.KeyPrefix == "" {
		return nil
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.KeyPrefix)
}

// CacheConfig converts the cache section. An empty file cache directory
// resolves to [DefaultCacheDir].
func (c *Config) CacheConfig() (cache.Config, error) {
	dir := c.Cache.Dir
	if c.Cache.Backend == cache.BackendFile && dir == "" {
		d, err := DefaultCacheDir()
		if err != nil {
			return cache.Config{}, err
		}
		dir = d
	}
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		},
		Mongo: cache.MongoConfig{
			URI:        c.Cache.MongoURI,
			Database:   c.Cache.MongoDatabase,
			Collection: c.Cache.MongoCollection,
		},
	}, nil
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/deptree/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns the file cache directory using the XDG standard
// (~/.cache/deptree/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
