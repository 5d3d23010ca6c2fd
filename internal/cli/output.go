package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/deptree/pkg/deps"
	pkgio "github.com/matzehuels/deptree/pkg/io"
	"github.com/matzehuels/deptree/pkg/render"
	"github.com/matzehuels/deptree/pkg/render/nodelink"
	"github.com/matzehuels/deptree/pkg/render/text"
)

const (
	formatJSON = "json"
	formatText = "text"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPDF  = "pdf"
	formatPNG  = "png"
)

var validFormats = map[string]bool{
	formatJSON: true,
	formatText: true,
	formatDOT:  true,
	formatSVG:  true,
	formatPDF:  true,
	formatPNG:  true,
}

// binaryFormats are never written to a terminal.
var binaryFormats = map[string]bool{formatPDF: true, formatPNG: true}

// outputOpts are the rendering flags shared by resolve and render.
type outputOpts struct {
	format   string  // one of validFormats
	output   string  // output file (stdout if empty, derived for binary formats)
	detailed bool    // nodelink labels with dependency counts
	depth    int     // text format: hide nodes deeper than this
	scale    float64 // png scale factor
}

func (o *outputOpts) validate() error {
	o.format = strings.ToLower(o.format)
	if !validFormats[o.format] {
		return fmt.Errorf("invalid format %q (want json, text, dot, svg, pdf or png)", o.format)
	}
	if o.depth < 0 {
		return fmt.Errorf("--depth cannot be negative")
	}
	if o.scale <= 0 {
		return fmt.Errorf("--scale must be positive")
	}
	return nil
}

// encodeTree renders tree in format. styled enables terminal colors for
// the text format.
func encodeTree(ctx context.Context, tree *deps.Node, opts outputOpts, styled bool) ([]byte, error) {
	switch opts.format {
	case formatJSON:
		var buf bytes.Buffer
		if err := pkgio.WriteJSON(tree, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatText:
		return []byte(text.Render(tree, text.Options{MaxDepth: opts.depth, Styled: styled}) + "\n"), nil
	case formatDOT:
		return []byte(nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.detailed})), nil
	}

	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.detailed}))
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case formatSVG:
		return svg, nil
	case formatPDF:
		return render.ToPDF(ctx, svg)
	case formatPNG:
		return render.ToPNG(ctx, svg, opts.scale)
	}
	return nil, fmt.Errorf("invalid format %q", opts.format)
}

// outputPath decides where a rendering goes. Text formats default to
// stdout (""); binary formats default to base.<format>.
func outputPath(opts outputOpts, base string) string {
	if opts.output != "" || !binaryFormats[opts.format] {
		return opts.output
	}
	return base + "." + opts.format
}

// treeBaseName turns a root like "@types/node@20.1.0" into a file-safe
// base name: "types-node-20.1.0".
func treeBaseName(tree *deps.Node) string {
	name := strings.TrimPrefix(tree.Name, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + "-" + tree.Version
}

// fileBaseName strips the extension from path.
func fileBaseName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout for an empty path and creates the file
// otherwise.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// writeTree encodes tree and writes it to path (stdout if empty).
func writeTree(ctx context.Context, tree *deps.Node, opts outputOpts, path string) (err error) {
	data, err := encodeTree(ctx, tree, opts, path == "")
	if err != nil {
		return err
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = out.Write(data)
	return err
}
