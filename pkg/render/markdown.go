package render

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/matzehuels/pipscope/pkg/audit"
)

// WriteMarkdown produces a GitHub-flavored markdown document covering
// the same ground as the comprehensive text report.
func WriteMarkdown(w io.Writer, rep *audit.Report) error {
	md := markdown.NewMarkdown(w)

	md.H1("Dependency Audit: " + rep.RootPackage)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root package", "`" + rep.RootPackage + "`"},
			{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Run ID", rep.RunID},
		},
	})
	md.PlainText("")

	writeSummarySection(md, rep)
	writeDependencyTable(md, rep)
	writeInvestigationSection(md, rep)
	writeMissingSection(md, rep)
	writeLicenseSection(md, rep)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [pipscope](https://github.com/matzehuels/pipscope)*")

	return md.Build()
}

func writeSummarySection(md *markdown.Markdown, rep *audit.Report) {
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total unique dependencies", strconv.Itoa(rep.Summary.TotalDependencies)},
			{"Maximum depth", strconv.Itoa(rep.Summary.MaxDepth)},
			{"Missing packages", strconv.Itoa(rep.Summary.MissingPackages)},
			{"Requiring investigation", strconv.Itoa(rep.Summary.PackagesRequiringInvestigation)},
		},
	})
	md.PlainText("")

	if n := rep.Summary.PackagesRequiringInvestigation; n > 0 {
		md.Cautionf("%d package(s) contain native code indicators and require investigation.", n)
		md.PlainText("")
	}
	if n := rep.Summary.MissingPackages; n > 0 {
		md.Warningf("%d package(s) could not be fetched from the registry.", n)
		md.PlainText("")
	}
	if rep.Summary.PackagesRequiringInvestigation == 0 && rep.Summary.MissingPackages == 0 {
		md.Tip("All dependencies resolved cleanly with no native code indicators.")
		md.PlainText("")
	}
}

func writeDependencyTable(md *markdown.Markdown, rep *audit.Report) {
	md.H2("Dependencies")
	md.PlainText("")

	if len(rep.Dependencies) == 0 {
		md.PlainText("No dependencies declared.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(rep.Dependencies))
	for i, d := range rep.Dependencies {
		depth := strconv.Itoa(d.Depth)
		if d.Depth < 0 {
			depth = "-"
		}
		wheels := strings.Join(d.WheelTypes, ", ")
		if wheels == "" {
			wheels = "-"
		}
		license := d.License
		if license == "" {
			license = "-"
		}
		investigate := "no"
		if d.InvestigationRequired {
			investigate = "yes"
		}
		rows[i] = []string{"`" + d.Name + "`", depth, license, wheels, investigate}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Package", "Depth", "License", "Wheel Types", "Investigate"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeInvestigationSection(md *markdown.Markdown, rep *audit.Report) {
	var flagged []audit.Dependency
	for _, d := range rep.Dependencies {
		if d.InvestigationRequired {
			flagged = append(flagged, d)
		}
	}
	if len(flagged) == 0 {
		return
	}

	md.H2("Packages Requiring Investigation")
	md.PlainText("")
	for _, d := range flagged {
		md.H3(d.Name)
		md.PlainText("")
		md.BulletList(d.InvestigationFlags...)
		md.PlainText("")
		md.PlainText("Recommendation: " + d.Recommendation)
		md.PlainText("")
	}
}

func writeMissingSection(md *markdown.Markdown, rep *audit.Report) {
	if len(rep.MissingPackages) == 0 {
		return
	}

	md.H2("Missing Packages")
	md.PlainText("")

	rows := make([][]string, len(rep.MissingPackages))
	for i, m := range rep.MissingPackages {
		requiredBy := strings.Join(m.RequiredBy, ", ")
		if requiredBy == "" {
			requiredBy = "-"
		}
		rows[i] = []string{"`" + m.Name + "`", truncate(m.Error, 80), requiredBy}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Package", "Error", "Required By"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeLicenseSection(md *markdown.Markdown, rep *audit.Report) {
	if rep.LicenseSummary == nil {
		return
	}

	md.H2("License Distribution")
	md.PlainText("")

	families := make([]string, 0, len(rep.LicenseSummary.LicenseDistribution))
	for name := range rep.LicenseSummary.LicenseDistribution {
		families = append(families, name)
	}
	sort.Strings(families)

	rows := make([][]string, len(families))
	for i, name := range families {
		rows[i] = []string{name, strconv.Itoa(rep.LicenseSummary.LicenseDistribution[name])}
	}

	md.Table(markdown.TableSet{
		Header: []string{"License", "Packages"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Packages with license information: %d",
		rep.LicenseSummary.PackagesWithLicenseInfo)
	md.PlainText("")
}

// truncate shortens a string to maxLen characters with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
