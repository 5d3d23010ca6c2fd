package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/deptree/pkg/deps"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed puts name and version on separate lines and adds the number
	// of direct dependencies. When false, labels are "name@version".
	Detailed bool
}

type edge struct{ from, to string }

// ToDOT converts a tree to Graphviz DOT. Nodes are emitted in depth-first
// order of first appearance, so output is stable for a given tree.
func ToDOT(tree *deps.Node, opts Options) string {
	var nodes []*deps.Node
	var edges []edge
	seenNode := make(map[string]bool)
	seenEdge := make(map[edge]bool)

	var walk func(n *deps.Node)
	walk = func(n *deps.Node) {
		id := n.ID()
		if !seenNode[id] {
			seenNode[id] = true
			nodes = append(nodes, n)
		}
		for _, c := range n.Dependencies {
			e := edge{id, c.ID()}
			if !seenEdge[e] {
				seenEdge[e] = true
				edges = append(edges, e)
			}
			walk(c)
		}
	}
	if tree != nil {
		walk(tree)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i, n := range nodes {
		attrs := fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))
		if i == 0 {
			attrs += ", fillcolor=\"#d7f0ee\", penwidth=2"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), attrs)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *deps.Node, detailed bool) string {
	if !detailed {
		return n.ID()
	}
	return fmt.Sprintf("%s\n%s\ndeps: %d", n.Name, n.Version, len(n.Dependencies))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// viewBox anchored at the origin, so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
