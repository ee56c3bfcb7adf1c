package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pipscope/pkg/audit"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes depth, license and wheel information in node
	// labels. When false, only the package name is shown.
	Detailed bool
}

// ToDOT converts an exported report to Graphviz DOT format. Edges run
// from declaring package to declared package, so the root sits at the
// top of the diagram.
func ToDOT(rep *audit.Report, opts Options) string {
	missing := make(map[string]bool, len(rep.MissingPackages))
	for _, m := range rep.MissingPackages {
		missing[m.Name] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	// Parent references use canonical names, so the root node id must
	// be canonical too; the as-given spec survives in the label.
	fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,bold\"];\n",
		audit.Canonical(rep.RootPackage), rep.RootPackage)
	for _, d := range rep.Dependencies {
		label := depLabel(d, opts.Detailed)
		attrs := depAttrs(d, label, missing[d.Name])
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, d := range rep.Dependencies {
		for _, parent := range d.DirectParents {
			fmt.Fprintf(&buf, "  %q -> %q;\n", parent, d.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func depLabel(d audit.Dependency, detailed bool) string {
	if !detailed {
		return d.Name
	}

	parts := []string{fmt.Sprintf("depth: %d", d.Depth)}
	if d.License != "" {
		parts = append(parts, "license: "+d.License)
	}
	if len(d.WheelTypes) > 0 {
		parts = append(parts, "wheels: "+strings.Join(d.WheelTypes, ", "))
	}

	return d.Name + "\n" + strings.Join(parts, "\n")
}

func depAttrs(d audit.Dependency, label string, missing bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case missing:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case d.InvestigationRequired:
		attrs = append(attrs, "fillcolor=lightcoral")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz
// engine.
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
	return buf.Bytes(), nil
}
