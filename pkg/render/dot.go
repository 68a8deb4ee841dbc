package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/runorder/pkg/component"
	"github.com/matzehuels/runorder/pkg/resolver"
)

// Options configures DOT rendering.
type Options struct {
	// Detailed adds the priority, the position in Order and the version to
	// every node label. When false, only the identity is shown.
	Detailed bool

	// ShowAbsent draws soft dependencies (references to identities that are
	// not declared) as dashed grey nodes with dashed edges.
	ShowAbsent bool

	// Order is the resolved order. When set, nodes are emitted in this order
	// and labels carry their 1-based step number.
	Order []string
}

// ToDOT converts declarations to Graphviz DOT. Edges point from the
// component that must run first to the one that runs after it.
func ToDOT(decls []component.Declaration, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph runorder {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	step := make(map[string]int, len(opts.Order))
	for i, id := range opts.Order {
		step[id] = i + 1
	}

	for _, d := range sortedForOutput(decls, step) {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", d.ID, fmtLabel(d, step[d.ID], opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range resolver.Edges(decls) {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	if opts.ShowAbsent {
		writeAbsent(&buf, decls)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// sortedForOutput orders nodes by step when known, keeping declaration
// order otherwise.
func sortedForOutput(decls []component.Declaration, step map[string]int) []component.Declaration {
	out := slices.Clone(decls)
	if len(step) == 0 {
		return out
	}
	slices.SortStableFunc(out, func(a, b component.Declaration) int {
		sa, sb := step[a.ID], step[b.ID]
		switch {
		case sa == 0 && sb == 0:
			return 0
		case sa == 0:
			return 1
		case sb == 0:
			return -1
		}
		return sa - sb
	})
	return out
}

func fmtLabel(d component.Declaration, step int, detailed bool) string {
	if !detailed {
		return d.ID
	}
	var parts []string
	if step > 0 {
		parts = append(parts, fmt.Sprintf("step: %d", step))
	}
	parts = append(parts, fmt.Sprintf("priority: %d", d.Priority))
	if d.Version != "" {
		parts = append(parts, "version: "+d.Version)
	}
	return d.ID + "\n" + strings.Join(parts, "\n")
}

func writeAbsent(buf *bytes.Buffer, decls []component.Declaration) {
	present := make(map[string]bool, len(decls))
	for _, d := range decls {
		present[d.ID] = true
	}

	var lines []string
	seen := make(map[string]bool)
	addNode := func(id string) {
		if !seen[id] {
			seen[id] = true
			lines = append(lines, fmt.Sprintf("  %q [style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=grey30];", id))
		}
	}
	var edges []string
	for _, d := range decls {
		for _, a := range d.After {
			if !present[a] {
				addNode(a)
				edges = append(edges, fmt.Sprintf("  %q -> %q [style=dashed, color=grey];", a, d.ID))
			}
		}
		for _, b := range d.Before {
			if !present[b] {
				addNode(b)
				edges = append(edges, fmt.Sprintf("  %q -> %q [style=dashed, color=grey];", d.ID, b))
			}
		}
	}
	if len(lines) == 0 {
		return
	}
	buf.WriteString("\n")
	for _, l := range append(lines, edges...) {
		buf.WriteString(l)
		buf.WriteString("\n")
	}
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

// normalizeViewBox replaces Graphviz's point-based svg header with a plain
// viewBox so browsers scale the diagram.
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

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
