package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/deptree/internal/config"
	"github.com/matzehuels/deptree/pkg/cache"
	"github.com/matzehuels/deptree/pkg/deps"
	"github.com/matzehuels/deptree/pkg/deps/javascript"
	deperrors "github.com/matzehuels/deptree/pkg/errors"
)

// resolveOpts holds the command-line flags for the resolve command.
// Resolver flags only override the config file when set explicitly.
type resolveOpts struct {
	outputOpts

	policy      string
	cacheScope  string
	concurrent  bool
	workers     int
	maxDepth    int
	refresh     bool // bypass cached responses and stored trees
	noCache     bool // use no byte store at all
	interactive bool // browse the result instead of printing it
	manifest    string
	dev         bool // include devDependencies of the manifest
}

// apply copies explicitly set flags onto cfg.
func (o *resolveOpts) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("policy") {
		cfg.Resolver.Policy = o.policy
	}
	if flags.Changed("cache-scope") {
		cfg.Resolver.CacheScope = o.cacheScope
	}
	if flags.Changed("concurrent") {
		cfg.Resolver.Concurrent = o.concurrent
	}
	if flags.Changed("workers") {
		cfg.Resolver.Workers = o.workers
	}
	if flags.Changed("max-depth") {
		cfg.Resolver.MaxDepth = o.maxDepth
	}
	if o.noCache {
		cfg.Cache.Backend = cache.BackendNone
	}
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{outputOpts: outputOpts{format: formatJSON, scale: 2}}

	cmd := &cobra.Command{
		Use:   "resolve <package> [version]",
		Short: "Resolve the dependency tree of an npm package",
		Long: `Resolve the full transitive dependency tree of an npm package.

version is an exact version (resolved as published), a semver range or a
dist-tag; it defaults to "latest". Every dependency is matched against its
own declared range; cycles and unsatisfiable ranges are omitted silently.

Examples:
  deptree resolve express 4.18.2
  deptree resolve @types/node latest --format text
  deptree resolve react "^18.0.0" --policy lowest --format svg -o react.svg
  deptree resolve --manifest package.json --dev --format text`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.manifest != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runResolve(cmd.Context(), cfg, &opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, text, dot, svg, pdf, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show dependency counts in dot/svg labels")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "text format: maximum depth shown (0 for all)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "png scale factor")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "version selection policy: highest or lowest")
	cmd.Flags().StringVar(&opts.cacheScope, "cache-scope", "", "resolution cache lifetime: request or process")
	cmd.Flags().BoolVar(&opts.concurrent, "concurrent", false, "resolve siblings in parallel")
	cmd.Flags().IntVar(&opts.workers, "workers", deps.DefaultWorkers, "concurrent registry requests")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", deps.DefaultMaxDepth, "maximum dependency depth")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached registry responses and stored trees")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the registry response cache")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse the tree interactively")
	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "resolve the dependencies of a package.json")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "with --manifest, include devDependencies")

	return cmd
}

// runResolve resolves the requested root and writes or browses the tree.
func runResolve(ctx context.Context, cfg *config.Config, opts *resolveOpts, args []string) error {
	logger := loggerFromContext(ctx)

	backend, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	res := newResolver(cfg, backend, logger, opts.refresh)

	var (
		tree  *deps.Result
		label string
	)
	prog := newProgress(logger)
	spin := newSpinner(ctx, "Resolving...")
	if !isVerbose(logger) {
		spin.Start()
	}

	if opts.manifest != "" {
		m, err := javascript.ReadPackageJSON(opts.manifest, opts.dev)
		if err != nil {
			spin.Stop()
			return err
		}
		label = m.Name + "@" + m.Version
		spin.SetMessage("Resolving " + opts.manifest)
		logger.Infof("Resolving %s (%d dependencies)", opts.manifest, len(m.Dependencies))
		tree, err = res.ResolveManifest(ctx, m.Name, m.Version, m.Dependencies)
		spin.Stop()
		if err != nil {
			return err
		}
	} else {
		name, version := args[0], "latest"
		if len(args) == 2 {
			version = args[1]
		}
		if err := deperrors.ValidateNpmPackageName(name); err != nil {
			spin.Stop()
			return err
		}
		label = name + "@" + version
		spin.SetMessage("Resolving " + label)
		logger.Debugf("Resolving %s from %s", label, cfg.Registry.BaseURL)
		tree, err = res.Resolve(ctx, name, version)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("resolve %s: %w", label, err)
		}
	}

	prog.done("Resolved %s: %d packages", tree.ID(), tree.Count()-1)

	if opts.interactive {
		return browseTree(ctx, tree)
	}

	path := outputPath(opts.outputOpts, treeBaseName(tree))
	if err := writeTree(ctx, tree, opts.outputOpts, path); err != nil {
		return err
	}
	if path != "" {
		printSuccess("Wrote %s", label)
		printFile(path)
		printStats(tree.Count()-1, tree.Depth(), uniquePackages(tree))
	}
	return nil
}

// uniquePackages counts distinct name@version pairs below the root.
func uniquePackages(tree *deps.Node) int {
	seen := make(map[string]bool)
	var visit func(n *deps.Node)
	visit = func(n *deps.Node) {
		for _, d := range n.Dependencies {
			seen[d.ID()] = true
			visit(d)
		}
	}
	visit(tree)
	return len(seen)
}
