// Package nodelink renders dependency trees as node-link diagrams.
//
// # Overview
//
// A resolved tree repeats shared packages at every place they are used.
// For drawing, every distinct name@version becomes one box and every
// parent-child pair one arrow, so the diagram shows the dependency graph
// the tree was expanded from.
//
// # Usage
//
//	dot := nodelink.ToDOT(tree, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded
// box nodes. The root is filled to stand out. It can be saved and processed
// with external Graphviz tools, or rendered in-process with [RenderSVG].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package.
package nodelink
