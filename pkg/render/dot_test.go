package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pipscope/pkg/audit"
)

func sampleReport() *audit.Report {
	return &audit.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RootPackage: "app",
		Summary: audit.Summary{
			TotalDependencies:              3,
			MaxDepth:                       1,
			MissingPackages:                1,
			PackagesRequiringInvestigation: 1,
		},
		Dependencies: []audit.Dependency{
			{
				Name:          "click",
				FullSpec:      "click>=8.0",
				Depth:         1,
				DirectParents: []string{"app"},
				HasWheels:     true,
				WheelTypes:    []string{"pure-python"},
				IsPurePython:  true,
				License:       "BSD-3-Clause",
			},
			{
				Name:          "ghost",
				FullSpec:      "ghost",
				Depth:         1,
				DirectParents: []string{"app"},
				WheelTypes:    []string{},
				IsPurePython:  true,
			},
			{
				Name:                  "nativelib",
				FullSpec:              "nativelib",
				Depth:                 1,
				DirectParents:         []string{"app"},
				HasWheels:             true,
				WheelTypes:            []string{"cpython-abi"},
				InvestigationRequired: true,
				InvestigationFlags:    []string{"Contains CPython-specific compiled wheels"},
				Recommendation:        audit.Recommendation,
			},
		},
		MissingPackages: []audit.MissingPackage{
			{Name: "ghost", Error: "resource not found", RequiredBy: []string{"app"}},
		},
		WheelSummary: map[string]int{"pure-python": 1, "cpython-abi": 1},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("missing digraph declaration")
	}
	if !strings.Contains(dot, `"app" [label="app", style="rounded,filled,bold"]`) {
		t.Error("missing bold root node")
	}
	if !strings.Contains(dot, `"app" -> "click"`) {
		t.Error("missing root edge")
	}
	if !strings.Contains(dot, `"app" -> "ghost"`) {
		t.Error("missing edge to missing package")
	}
}

func TestToDOTPinnedRootConnects(t *testing.T) {
	rep := sampleReport()
	rep.RootPackage = "App==1.0"

	dot := ToDOT(rep, Options{})

	// Node id stays canonical so parent edges attach; the pinned spec
	// survives in the label.
	if !strings.Contains(dot, `"app" [label="App==1.0"`) {
		t.Errorf("root node not canonical:\n%s", dot)
	}
	if !strings.Contains(dot, `"app" -> "click"`) {
		t.Error("root edge lost for pinned root")
	}
}

func TestToDOTFlaggedFill(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{})

	for _, line := range strings.Split(dot, "\n") {
		if !strings.Contains(line, `"nativelib" [`) {
			continue
		}
		if !strings.Contains(line, "lightcoral") {
			t.Errorf("flagged node missing red fill: %s", line)
		}
		return
	}
	t.Fatal("nativelib node not emitted")
}

func TestToDOTMissingDashed(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{})

	for _, line := range strings.Split(dot, "\n") {
		if !strings.Contains(line, `"ghost" [`) {
			continue
		}
		if !strings.Contains(line, "dashed") || !strings.Contains(line, "lightgrey") {
			t.Errorf("missing node not drawn dashed: %s", line)
		}
		return
	}
	t.Fatal("ghost node not emitted")
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{Detailed: true})

	if !strings.Contains(dot, "depth: 1") {
		t.Error("detailed label missing depth")
	}
	if !strings.Contains(dot, "license: BSD-3-Clause") {
		t.Error("detailed label missing license")
	}
	if !strings.Contains(dot, "wheels: cpython-abi") {
		t.Error("detailed label missing wheel types")
	}
}

func TestDepLabel(t *testing.T) {
	d := audit.Dependency{Name: "click", Depth: 2, License: "MIT"}

	if got := depLabel(d, false); got != "click" {
		t.Errorf("simple label = %q", got)
	}
	detailed := depLabel(d, true)
	if !strings.HasPrefix(detailed, "click\n") {
		t.Errorf("detailed label should start with the name: %q", detailed)
	}
	if !strings.Contains(detailed, "depth: 2") || !strings.Contains(detailed, "license: MIT") {
		t.Errorf("detailed label = %q", detailed)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), `digraph G { a -> b; }`)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "not valid DOT {{{"); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
