package audit

import (
	"strings"

	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// investigationThreshold is the evidence score at which a package is
// reported as requiring investigation. Packages below it carry only
// weak signals.
const investigationThreshold = 3

// Recommendation is the standing advice attached to every flagged
// package.
const Recommendation = "Verify system requirements and build environment"

// keywordIndicators in the keywords field suggest extension modules.
var keywordIndicators = []string{"c-extension", "rust", "cython", "ffi", "native"}

// strongClassifiers definitively indicate native code.
var strongClassifiers = []string{
	"Programming Language :: C",
	"Programming Language :: C++",
	"Programming Language :: Rust",
	"Programming Language :: Cython",
	"Topic :: Software Development :: Libraries :: Python Modules :: Foreign Function Interface",
}

// ffiTools are build-time bridges to native code. criticalFFI members
// make native linkage near-certain and score extra.
var (
	ffiTools    = []string{"cython", "cffi", "pybind11", "rust", "maturin", "setuptools-rust", "cmake"}
	criticalFFI = []string{"cffi", "rust", "cython", "pybind11"}
)

// textIndicators are description phrases strong enough to count as
// evidence on their own.
var textIndicators = []string{
	"c extension", "native extension", "rust extension",
	"compiled extension", "wrapper around the c library",
	"bindings for the c library", "rust implementation",
	"cython implementation", "binary module",
}

// Classification is the native-code evidence one package accumulated
// across the detector rules.
type Classification struct {
	Score int
	Flags []string
}

// Flagged reports whether the evidence clears the investigation
// threshold.
func (c *Classification) Flagged() bool {
	return c.Score >= investigationThreshold
}

func (c *Classification) evidence(weight int, reason string) {
	c.Score += weight
	c.Flags = append(c.Flags, reason)
}

// rule is one detector in the ordered list. Each inspects package
// metadata and records weighted evidence; later rules see the score
// accumulated by earlier ones only through the final threshold.
type rule struct {
	name   string
	detect func(*pypi.Package, *Classification)
}

var classifyRules = []rule{
	{"keywords", detectKeywords},
	{"classifiers", detectClassifiers},
	{"ffi-dependencies", detectFFIDeps},
	{"release-files", detectReleaseFiles},
	{"pure-python-marker", detectPureMarker},
	{"text-indicators", detectTextIndicators},
}

// Classify runs the detector rules in order over one package's
// metadata. The result is deterministic for a given package.
func Classify(p *pypi.Package) *Classification {
	c := &Classification{}
	for _, r := range classifyRules {
		r.detect(p, c)
	}
	return c
}

func detectKeywords(p *pypi.Package, c *Classification) {
	for _, ind := range keywordIndicators {
		if strings.Contains(p.Keywords, ind) {
			c.evidence(2, "Contains extension module keywords")
			return
		}
	}
}

func detectClassifiers(p *pypi.Package, c *Classification) {
	for _, classifier := range p.Classifiers {
		for _, term := range strongClassifiers {
			if strings.Contains(classifier, term) {
				c.evidence(3, "Uses native code: "+classifier)
				break
			}
		}
	}
}

// detectFFIDeps flags unconditional dependencies on native build
// tooling. Declarations behind environment markers or extras do not
// count: they are opt-in, not required.
func detectFFIDeps(p *pypi.Package, c *Classification) {
	for _, req := range p.RequiresDist {
		lower := strings.ToLower(req)
		if strings.Contains(lower, ";") || strings.Contains(lower, "extra ==") {
			continue
		}
		// A declaration can match more than one tool fragment
		// (setuptools-rust also contains "rust") and scores per match.
		for _, tool := range ffiTools {
			if !strings.Contains(lower, tool) {
				continue
			}
			c.evidence(3, "Direct FFI dependency: "+req)
			for _, crit := range criticalFFI {
				if strings.Contains(lower, crit) {
					c.Score++
					break
				}
			}
		}
	}
}

// detectReleaseFiles scans the current-release artifacts. A compiled
// extension in the file list is conclusive and stops the scan; wheel
// evidence gathered up to that point still applies.
func detectReleaseFiles(p *pypi.Package, c *Classification) {
	types := make(map[string]bool)
	platformSpecific := false
	for _, f := range p.Files {
		name := strings.ToLower(f.Filename)
		if hasNativeExtension(name) {
			c.evidence(5, "Contains compiled extension modules")
			break
		}
		if !strings.HasSuffix(name, ".whl") {
			continue
		}
		t := parseWheelTags(name)
		if !t.ok {
			// Unparseable tags: assume platform-specific unless the
			// universal tag shows up in the name.
			if !strings.Contains(name, "py3-none-any") {
				platformSpecific = true
			}
			continue
		}
		switch category := classifyWheel(t); category {
		case wheelPurePython:
			types[wheelPurePython] = true
		case "":
		default:
			types[category] = true
			platformSpecific = true
		}
	}
	if !platformSpecific {
		return
	}
	switch {
	case types[wheelABI3]:
		c.evidence(4, "Contains ABI3 wheels (stabilized C-API, compiled code)")
	case types[wheelCPythonABI]:
		c.evidence(4, "Contains CPython-specific ABI wheels (version-specific compiled code)")
	case types[wheelPlatform]:
		c.evidence(3, "Contains platform-specific wheels (likely compiled code)")
	default:
		c.evidence(3, "Non-pure Python wheel (likely contains compiled code)")
	}
}

// detectPureMarker weakens the score when the project explicitly
// declares itself pure Python.
func detectPureMarker(p *pypi.Package, c *Classification) {
	for _, classifier := range p.Classifiers {
		if strings.Contains(classifier, "Pure Python") {
			c.Score -= 3
			return
		}
	}
}

func detectTextIndicators(p *pypi.Package, c *Classification) {
	description := strings.ToLower(p.Description)
	summary := strings.ToLower(p.Summary)
	for _, ind := range textIndicators {
		if strings.Contains(description, ind) || strings.Contains(summary, ind) {
			c.evidence(2, "Documentation explicitly mentions native code: '"+ind+"'")
		}
	}
}
