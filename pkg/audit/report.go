package audit

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteTree renders the dependency hierarchy. Each package prints
// once; later references collapse into the first occurrence. Flag
// evidence appears beneath flagged packages when showFlags is set.
func (r *Run) WriteTree(w io.Writer, showLicense, showFlags bool) {
	type frame struct {
		spec   string
		indent int
	}
	stack := []frame{{spec: r.Root}}
	visited := make(map[string]bool)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		name := Canonical(f.spec)
		if visited[name] {
			continue
		}
		visited[name] = true

		prefix := strings.Repeat("  ", f.indent)
		line := prefix + "- " + f.spec
		if showLicense {
			if l, ok := r.License(name); ok {
				line += " [" + l.Name + "]"
			}
		}
		cls, flagged := r.flaggedFindings(name)
		if showFlags && flagged {
			line += " (!)"
		}
		fmt.Fprintln(w, line)
		if showFlags && flagged {
			for _, flag := range cls.Flags {
				fmt.Fprintf(w, "%s  ! %s\n", prefix, flag)
			}
		}

		// Children pushed in reverse so the first declaration pops
		// first, matching a recursive rendering.
		deps := r.Graph[name]
		for i := len(deps) - 1; i >= 0; i-- {
			if !visited[Canonical(deps[i])] {
				stack = append(stack, frame{spec: deps[i], indent: f.indent + 1})
			}
		}
	}
}

// WriteMissingReport lists every package that could not be fetched.
// Nothing is written when the run had no failures.
func (r *Run) WriteMissingReport(w io.Writer) {
	missing := r.Missing()
	if len(missing) == 0 {
		return
	}

	fmt.Fprintf(w, "\nMISSING PACKAGES REPORT\n")
	fmt.Fprintf(w, "======================\n")
	fmt.Fprintf(w, "Total missing packages: %d\n", len(missing))

	sort.Slice(missing, func(i, j int) bool { return missing[i].Name < missing[j].Name })
	for _, m := range missing {
		fmt.Fprintf(w, "\n- %s\n", m.Name)
		fmt.Fprintf(w, "  Error: %s\n", m.Err)
		requiredBy := "Unknown"
		if len(m.RequiredBy) > 0 {
			sorted := append([]string(nil), m.RequiredBy...)
			sort.Strings(sorted)
			requiredBy = strings.Join(sorted, ", ")
		}
		fmt.Fprintf(w, "  Required by: %s\n", requiredBy)

		if m.NotFound {
			fmt.Fprintf(w, "  Reason: This package is not available on PyPI. It might be:\n")
			fmt.Fprintf(w, "          - A private/internal package\n")
			fmt.Fprintf(w, "          - A GitHub repository directly referenced in requirements\n")
			fmt.Fprintf(w, "          - A deprecated package that has been removed\n")
			fmt.Fprintf(w, "          - A typo in the dependency specification\n")
		}
	}
}

// WriteLicenseReport summarizes license identification: distribution
// by family, then per-package detail.
func (r *Run) WriteLicenseReport(w io.Writer) {
	names := r.LicenseNames()
	if len(names) == 0 {
		fmt.Fprintf(w, "\nNo license information available. Run with --license to fetch license data.\n")
		return
	}
	sort.Strings(names)

	fmt.Fprintf(w, "\nLICENSE REPORT\n")
	fmt.Fprintf(w, "==============\n")
	fmt.Fprintf(w, "Total packages with license info: %d\n", len(names))

	groups := make(map[string]int)
	for _, name := range names {
		l, _ := r.License(name)
		groups[l.Name]++
	}
	families := make([]string, 0, len(groups))
	for family := range groups {
		families = append(families, family)
	}
	sort.Strings(families)

	fmt.Fprintf(w, "\nLicense distribution:\n")
	for _, family := range families {
		fmt.Fprintf(w, "  %s: %d packages\n", family, groups[family])
	}

	fmt.Fprintf(w, "\nDetailed license information:\n")
	for _, name := range names {
		l, _ := r.License(name)
		fmt.Fprintf(w, "\n- %s\n", name)
		fmt.Fprintf(w, "  License: %s\n", l.Name)
		if l.URL != "" {
			fmt.Fprintf(w, "  License URL: %s\n", l.URL)
		}
		if l.ProjectURL != "" {
			fmt.Fprintf(w, "  Project URL: %s\n", l.ProjectURL)
		}
		if l.Author != "" {
			author := l.Author
			if l.AuthorEmail != "" {
				author += " (" + l.AuthorEmail + ")"
			}
			fmt.Fprintf(w, "  Author: %s\n", author)
		}
	}
}

// WriteReport renders the comprehensive report: summary statistics,
// wheel distribution, per-depth listing, then the missing, license
// (when requested), and investigation sections.
func (r *Run) WriteReport(w io.Writer, showLicense bool) {
	deps := r.allPackages(false)
	withRoot := r.allPackages(true)

	directSet := make(map[string]bool)
	for _, dep := range r.Graph[r.RootName] {
		directSet[Canonical(dep)] = true
	}

	investigationCount := 0
	for _, name := range r.Flagged() {
		if withRoot[name] {
			investigationCount++
		}
	}

	fmt.Fprintf(w, "\nDEPENDENCY REPORT FOR %s\n", r.Root)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 32+len(r.Root)))
	fmt.Fprintf(w, "Total unique dependencies: %d\n", len(deps))
	fmt.Fprintf(w, "Direct dependencies: %d\n", len(directSet))
	fmt.Fprintf(w, "Max dependency depth: %d\n", r.MaxDepth())
	fmt.Fprintf(w, "Packages requiring investigation: %d\n", investigationCount)

	wheelCounts := make(map[string]int)
	for name := range withRoot {
		if info, ok := r.wheelInfo(name); ok {
			for _, t := range info.WheelTypes {
				wheelCounts[t]++
			}
		}
	}
	fmt.Fprintf(w, "\nWheel type distribution:\n")
	for _, t := range wheelTypeOrder {
		if wheelCounts[t] > 0 {
			fmt.Fprintf(w, "  %s: %d packages\n", t, wheelCounts[t])
		}
	}

	depthCounts := make(map[int]int)
	for _, d := range r.Depths {
		depthCounts[d]++
	}
	levels := make([]int, 0, len(depthCounts))
	for d := range depthCounts {
		if d != 0 {
			levels = append(levels, d)
		}
	}
	sort.Ints(levels)
	fmt.Fprintf(w, "\nDependencies by depth:\n")
	for _, d := range levels {
		fmt.Fprintf(w, "  Depth %d: %d packages\n", d, depthCounts[d])
	}

	type entry struct {
		name  string
		depth int
	}
	var entries []entry
	for name, d := range r.Depths {
		if name != r.RootName {
			entries = append(entries, entry{name, d})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].depth != entries[j].depth {
			return entries[i].depth < entries[j].depth
		}
		return entries[i].name < entries[j].name
	})

	fmt.Fprintf(w, "\nAll dependencies (sorted by depth):\n")
	currentDepth := -1
	for _, e := range entries {
		if e.depth != currentDepth {
			currentDepth = e.depth
			fmt.Fprintf(w, "\n  --- Depth %d ---\n", e.depth)
		}
		line := "  " + r.fullSpec(e.name)
		if showLicense {
			if l, ok := r.License(e.name); ok {
				line += " [" + l.Name + "]"
			}
		}
		if info, ok := r.wheelInfo(e.name); ok && len(info.WheelTypes) > 0 {
			line += " (wheels: " + strings.Join(info.WheelTypes, ", ") + ")"
		}
		cls, flagged := r.flaggedFindings(e.name)
		if flagged {
			line += " (!)"
		}
		fmt.Fprintln(w, line)
		if flagged {
			for _, flag := range cls.Flags {
				fmt.Fprintf(w, "    ! %s\n", flag)
			}
		}
	}

	r.WriteMissingReport(w)
	if showLicense {
		r.WriteLicenseReport(w)
	}
	if len(r.Flagged()) > 0 {
		r.writeInvestigationSection(w, withRoot, investigationCount)
	}
}

// WriteInvestigationReport renders the standalone investigation
// report, including the all-clear message when nothing is flagged.
func (r *Run) WriteInvestigationReport(w io.Writer) {
	flagged := r.Flagged()
	if len(flagged) == 0 {
		fmt.Fprintf(w, "\nNo packages requiring further investigation were found.\n")
		return
	}
	r.writeInvestigationSection(w, nil, len(flagged))
}

// writeInvestigationSection lists flagged packages with their
// evidence. A non-nil members set restricts the listing to graph
// members.
func (r *Run) writeInvestigationSection(w io.Writer, members map[string]bool, count int) {
	fmt.Fprintf(w, "\nPACKAGES REQUIRING FURTHER INVESTIGATION\n")
	fmt.Fprintf(w, "=======================================\n")
	fmt.Fprintf(w, "Total packages flagged: %d\n", count)

	flagged := r.Flagged()
	sort.Strings(flagged)
	for _, name := range flagged {
		if members != nil && !members[name] {
			continue
		}
		cls, _ := r.Classification(name)
		fmt.Fprintf(w, "\n- %s\n", name)
		for _, flag := range cls.Flags {
			fmt.Fprintf(w, "  • %s\n", flag)
		}
		fmt.Fprintf(w, "  Recommendation: %s\n", Recommendation)
	}
}

// flaggedFindings returns the findings for name only when they clear
// the investigation threshold.
func (r *Run) flaggedFindings(name string) (*Classification, bool) {
	if c, ok := r.Classification(name); ok && c.Flagged() {
		return c, true
	}
	return nil, false
}
