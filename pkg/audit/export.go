package audit

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report is the structured export of one run. The bson tags mirror the
// json names so archived documents keep the wire schema.
type Report struct {
	RunID           string           `json:"run_id" bson:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at" bson:"generated_at"`
	RootPackage     string           `json:"root_package" bson:"root_package"`
	Summary         Summary          `json:"summary" bson:"summary"`
	Dependencies    []Dependency     `json:"dependencies" bson:"dependencies"`
	MissingPackages []MissingPackage `json:"missing_packages" bson:"missing_packages"`
	LicenseSummary  *LicenseSummary  `json:"license_summary,omitempty" bson:"license_summary,omitempty"`
	WheelSummary    map[string]int   `json:"wheel_summary" bson:"wheel_summary"`
}

// Summary carries the headline counts of a run.
type Summary struct {
	TotalDependencies              int `json:"total_dependencies" bson:"total_dependencies"`
	MaxDepth                       int `json:"max_depth" bson:"max_depth"`
	MissingPackages                int `json:"missing_packages" bson:"missing_packages"`
	PackagesRequiringInvestigation int `json:"packages_requiring_investigation" bson:"packages_requiring_investigation"`
}

// Dependency is one resolved package, root excluded.
type Dependency struct {
	Name                  string   `json:"name" bson:"name"`
	FullSpec              string   `json:"full_spec" bson:"full_spec"`
	Depth                 int      `json:"depth" bson:"depth"`
	DirectParents         []string `json:"direct_parents" bson:"direct_parents"`
	HasWheels             bool     `json:"has_wheels" bson:"has_wheels"`
	WheelTypes            []string `json:"wheel_types" bson:"wheel_types"`
	IsPurePython          bool     `json:"is_pure_python" bson:"is_pure_python"`
	License               string   `json:"license,omitempty" bson:"license,omitempty"`
	LicenseURL            string   `json:"license_url,omitempty" bson:"license_url,omitempty"`
	ProjectURL            string   `json:"project_url,omitempty" bson:"project_url,omitempty"`
	Author                string   `json:"author,omitempty" bson:"author,omitempty"`
	AuthorEmail           string   `json:"author_email,omitempty" bson:"author_email,omitempty"`
	InvestigationRequired bool     `json:"investigation_required" bson:"investigation_required"`
	InvestigationFlags    []string `json:"investigation_flags,omitempty" bson:"investigation_flags,omitempty"`
	Recommendation        string   `json:"recommendation,omitempty" bson:"recommendation,omitempty"`
}

// MissingPackage is one fetch failure.
type MissingPackage struct {
	Name       string   `json:"name" bson:"name"`
	Error      string   `json:"error" bson:"error"`
	RequiredBy []string `json:"required_by" bson:"required_by"`
}

// LicenseSummary aggregates license identification across the run.
type LicenseSummary struct {
	PackagesWithLicenseInfo int            `json:"packages_with_license_info" bson:"packages_with_license_info"`
	LicenseDistribution     map[string]int `json:"license_distribution" bson:"license_distribution"`
}

// Export builds the structured report for a completed run. Each call
// yields a fresh run ID and timestamp.
func (r *Run) Export() *Report {
	all := r.allPackages(false)
	depNames := make([]string, 0, len(all))
	for name := range all {
		depNames = append(depNames, name)
	}
	sort.Strings(depNames)

	deps := make([]Dependency, 0, len(depNames))
	for _, name := range depNames {
		depth, ok := r.Depths[name]
		if !ok {
			depth = -1
		}
		info, _ := r.wheelInfo(name)

		d := Dependency{
			Name:          name,
			FullSpec:      r.fullSpec(name),
			Depth:         depth,
			DirectParents: r.directParents(name),
			HasWheels:     info.HasWheels,
			WheelTypes:    info.WheelTypes,
			IsPurePython:  info.IsPurePython,
		}

		if l, ok := r.License(name); ok {
			d.License = l.Name
			d.LicenseURL = l.URL
			d.ProjectURL = l.ProjectURL
			d.Author = l.Author
			if l.Author != "" {
				d.AuthorEmail = l.AuthorEmail
			}
		}

		if cls, flagged := r.flaggedFindings(name); flagged {
			d.InvestigationRequired = true
			d.InvestigationFlags = cls.Flags
			d.Recommendation = Recommendation
		}

		deps = append(deps, d)
	}

	missing := make([]MissingPackage, 0)
	for _, m := range r.Missing() {
		requiredBy := make([]string, 0, len(m.RequiredBy))
		requiredBy = append(requiredBy, m.RequiredBy...)
		sort.Strings(requiredBy)
		missing = append(missing, MissingPackage{
			Name:       m.Name,
			Error:      m.Err,
			RequiredBy: requiredBy,
		})
	}

	rep := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		RootPackage: r.Root,
		Summary: Summary{
			TotalDependencies:              len(deps),
			MaxDepth:                       r.MaxDepth(),
			MissingPackages:                len(missing),
			PackagesRequiringInvestigation: len(r.Flagged()),
		},
		Dependencies:    deps,
		MissingPackages: missing,
		WheelSummary:    make(map[string]int),
	}

	if names := r.LicenseNames(); len(names) > 0 {
		distribution := make(map[string]int)
		for _, name := range names {
			l, _ := r.License(name)
			distribution[l.Name]++
		}
		rep.LicenseSummary = &LicenseSummary{
			PackagesWithLicenseInfo: len(names),
			LicenseDistribution:     distribution,
		}
	}

	for _, d := range deps {
		for _, t := range d.WheelTypes {
			rep.WheelSummary[t]++
		}
	}

	return rep
}

// WriteJSON writes the report with two-space indentation.
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
