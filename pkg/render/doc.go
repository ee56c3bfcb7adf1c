// Package render turns exported audit reports into shareable
// artifacts.
//
// # Overview
//
// Two renderers are provided:
//
//   - Graphviz diagrams: [ToDOT] builds a DOT digraph from a report's
//     dependency edges, [RenderSVG] rasterizes it with the embedded
//     Graphviz engine. Flagged packages are filled red, missing
//     packages drawn dashed.
//   - Markdown documents: [WriteMarkdown] produces a GitHub-flavored
//     markdown report with summary tables, investigation callouts and
//     license breakdowns.
//
// # Usage
//
//	rep := run.Export()
//	dot := render.ToDOT(rep, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
//	var doc bytes.Buffer
//	err = render.WriteMarkdown(&doc, rep)
package render
