package cli

import (
	"context"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/deptree/pkg/io"
)

// renderCommand creates the render command, which turns a tree.json
// written by "resolve --format json" into another format without touching
// the registry.
func (c *CLI) renderCommand() *cobra.Command {
	opts := outputOpts{format: formatText, scale: 2}

	cmd := &cobra.Command{
		Use:   "render <tree.json>",
		Short: "Render a resolved tree as text, DOT, SVG, PDF or PNG",
		Long: `Render a resolved dependency tree saved as JSON.

Text and DOT go to stdout unless --output is set. SVG, PDF and PNG default
to a file next to the input (tree.json -> tree.svg). PDF and PNG require
rsvg-convert.

Examples:
  deptree render tree.json
  deptree render tree.json --format svg --detailed
  deptree render tree.json --format png --scale 3 -o deps.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, text, dot, svg, pdf, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show dependency counts in dot/svg labels")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "text format: maximum depth shown (0 for all)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "png scale factor")

	return cmd
}

// runRender loads input and writes it in opts.format.
func runRender(ctx context.Context, input string, opts outputOpts) error {
	logger := loggerFromContext(ctx)

	tree, err := pkgio.ImportJSON(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d packages, depth %d", tree.ID(), tree.Count()-1, tree.Depth())

	if opts.format == formatSVG && opts.output == "" {
		opts.output = fileBaseName(input) + "." + formatSVG
	}
	path := outputPath(opts, fileBaseName(input))
	if err := writeTree(ctx, tree, opts, path); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Generated %s", path)
	}
	return nil
}
