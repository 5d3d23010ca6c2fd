package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deptree/internal/config"
	"github.com/matzehuels/deptree/internal/server"
	"github.com/matzehuels/deptree/pkg/observability"
	"github.com/matzehuels/deptree/pkg/observability/metrics"
)

type serveOpts struct {
	addr       string
	cacheScope string
	concurrent bool
	noMetrics  bool
}

func (o *serveOpts) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if cmd.Flags().Changed("cache-scope") {
		cfg.Resolver.CacheScope = o.cacheScope
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Resolver.Concurrent = o.concurrent
	}
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved trees over HTTP",
		Long: `Serve resolved dependency trees over HTTP.

  GET /package/{name}/{version}
  GET /package/@{scope}/{name}/{version}
  GET /healthz
  GET /metrics

The version selection policy is fixed by the config file; requests cannot
override it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, !opts.noMetrics)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.cacheScope, "cache-scope", "", "resolution cache lifetime: request or process")
	cmd.Flags().BoolVar(&opts.concurrent, "concurrent", false, "resolve siblings in parallel")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, withMetrics bool) error {
	logger := loggerFromContext(ctx)

	backend, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	res := newResolver(cfg, backend, logger, false)

	sopts := server.Options{
		Logger:          logger,
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	if withMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics.New(reg).Register()
		defer observability.Reset()
		sopts.Gatherer = reg
	}

	ro := res.Options()
	logger.Info("resolver",
		"registry", cfg.Registry.BaseURL,
		"policy", ro.Policy,
		"cache_scope", ro.CacheScope,
		"cache", cfg.Cache.Backend,
		"concurrent", ro.Concurrent)

	return server.New(res, sopts).ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}
