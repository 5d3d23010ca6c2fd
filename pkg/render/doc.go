// Package render turns resolved dependency trees into human-readable output.
//
// # Overview
//
//   - Indented terminal trees (in [text] subpackage)
//   - Node-link diagrams via Graphviz (in [nodelink] subpackage)
//   - Generic format conversion (SVG to PDF/PNG)
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(tree, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [text]: github.com/matzehuels/deptree/pkg/render/text
// [nodelink]: github.com/matzehuels/deptree/pkg/render/nodelink
package render
