package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipscope/pkg/audit"
	"github.com/matzehuels/pipscope/pkg/render"
)

const (
	formatSVG = "svg"
	formatDOT = "dot"
)

// newGraphCmd creates the graph command for rendering exported reports.
func newGraphCmd() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <report.json>",
		Short: "Render an audit report as a dependency graph",
		Long: `Render an audit report as a dependency graph.

Reads a JSON report produced by 'pipscope audit --json' and renders the
dependency graph as Graphviz DOT or SVG. Packages flagged for
investigation fill red; packages that could not be fetched render
dashed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatSVG && format != formatDOT {
				return fmt.Errorf("unknown format %q (supported: svg, dot)", format)
			}
			return runGraph(cmd.Context(), args[0], output, format, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: report name with the format extension)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include depth, license, and wheel types in node labels")

	return cmd
}

func runGraph(ctx context.Context, input, output, format string, detailed bool) error {
	rep, err := readReport(input)
	if err != nil {
		return err
	}

	dot := render.ToDOT(rep, render.Options{Detailed: detailed})

	data := []byte(dot)
	if format == formatSVG {
		spin := newSpinnerWithContext(ctx, "Rendering graph...")
		spin.Start()
		data, err = render.RenderSVG(ctx, dot)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Rendered dependency graph for %s", rep.RootPackage)
	printFile(output)
	return nil
}

// readReport loads and validates an exported report file.
func readReport(path string) (*audit.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rep audit.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	if rep.RootPackage == "" {
		return nil, fmt.Errorf("%s does not look like a pipscope report", path)
	}
	return &rep, nil
}
