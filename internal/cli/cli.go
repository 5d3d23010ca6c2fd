package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/internal/config"
	"github.com/matzehuels/deptree/pkg/buildinfo"
	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/deps"
	"github.com/matzehuels/deptree/pkg/deps/javascript"
	"github.com/matzehuels/deptree/pkg/integrations/npm"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "deptree",
		Short: "deptree resolves npm dependency trees",
		Long: `deptree resolves the full transitive dependency tree of a published npm
package by querying the registry and matching every dependency against its
own declared range.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/deptree/config.toml)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Wiring
// =============================================================================

// loadConfig reads the --config file, or the default one when unset.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// openCache opens the configured byte store.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	cc, err := cfg.CacheConfig()
	if err != nil {
		return nil, err
	}
	return cache.Open(ctx, cc)
}

// newResolver builds an npm resolver on top of backend. Resolved subtrees
// stay in memory unless resolver.persist_trees moves them into backend.
func newResolver(cfg *config.Config, backend cache.Cache, logger *log.Logger, refresh bool) *deps.Resolver {
	client := npm.NewClient(backend, cfg.NpmOptions())

	opts := cfg.ResolverOptions()
	opts.Refresh = refresh
	opts.Logger = logger
	if cfg.PersistTrees() {
		opts.Cache = deps.NewStoreCache(backend, cfg.StoreOptions())
	}
	return deps.NewResolver(javascript.NewFetcher(client), opts)
}
