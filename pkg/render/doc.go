// Package render draws declaration graphs.
//
// [ToDOT] emits Graphviz DOT for the normalized "must precede" relation, the
// same edges the resolver uses, optionally annotated with the resolved step
// of each component. [RenderSVG] turns DOT into SVG with the embedded
// Graphviz build from github.com/goccy/go-graphviz, so no system Graphviz
// install is needed.
//
//	dot := render.ToDOT(decls, render.Options{Order: order, Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
package render
