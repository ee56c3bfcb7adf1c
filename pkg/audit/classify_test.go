package audit

import (
	"strings"
	"testing"

	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

func TestClassifyEmptyPackage(t *testing.T) {
	c := Classify(&pypi.Package{})
	if c.Score != 0 {
		t.Errorf("expected score 0, got %d", c.Score)
	}
	if len(c.Flags) != 0 {
		t.Errorf("expected no flags, got %v", c.Flags)
	}
	if c.Flagged() {
		t.Error("empty package must not be flagged")
	}
}

func TestClassifyPureWheelOnly(t *testing.T) {
	c := Classify(&pypi.Package{Files: []pypi.File{
		{Filename: "click-8.1.7-py3-none-any.whl"},
		{Filename: "click-8.1.7.tar.gz"},
	}})
	if c.Score != 0 || c.Flagged() {
		t.Errorf("pure wheel scored %d, flags %v", c.Score, c.Flags)
	}
}

func TestClassifyCPythonWheel(t *testing.T) {
	c := Classify(&pypi.Package{Files: []pypi.File{
		{Filename: "numpy-1.26.0-cp39-cp39-manylinux1_x86_64.whl"},
	}})
	if c.Score < 4 {
		t.Errorf("expected score >= 4 for cp39 wheel, got %d", c.Score)
	}
	if !c.Flagged() {
		t.Error("cp39 wheel package must be flagged")
	}
	if !hasFlag(c, "Contains CPython-specific ABI wheels (version-specific compiled code)") {
		t.Errorf("missing cpython flag, got %v", c.Flags)
	}
}

func TestClassifyABI3Priority(t *testing.T) {
	// Both abi3 and cpython wheels present; abi3 wins the single flag.
	c := Classify(&pypi.Package{Files: []pypi.File{
		{Filename: "cryptography-41.0.0-cp39-cp39-win_amd64.whl"},
		{Filename: "cryptography-41.0.0-cp37-abi3-manylinux_2_28_x86_64.whl"},
	}})
	if !hasFlag(c, "Contains ABI3 wheels (stabilized C-API, compiled code)") {
		t.Errorf("missing abi3 flag, got %v", c.Flags)
	}
	if hasFlag(c, "Contains CPython-specific ABI wheels (version-specific compiled code)") {
		t.Errorf("cpython flag must yield to abi3, got %v", c.Flags)
	}
	if c.Score != 4 {
		t.Errorf("expected score 4, got %d", c.Score)
	}
}

func TestClassifyCompiledArtifactStopsScanOnly(t *testing.T) {
	// The .so file stops the artifact scan but wheel evidence gathered
	// before it still scores.
	c := Classify(&pypi.Package{Files: []pypi.File{
		{Filename: "pkg-1.0-cp39-cp39-manylinux1_x86_64.whl"},
		{Filename: "helper.so"},
		{Filename: "pkg-1.0-cp37-abi3-manylinux1_x86_64.whl"},
	}})
	if !hasFlag(c, "Contains compiled extension modules") {
		t.Errorf("missing compiled artifact flag, got %v", c.Flags)
	}
	if !hasFlag(c, "Contains CPython-specific ABI wheels (version-specific compiled code)") {
		t.Errorf("wheel evidence before the artifact must still score, got %v", c.Flags)
	}
	if hasFlag(c, "Contains ABI3 wheels (stabilized C-API, compiled code)") {
		t.Errorf("wheels after the artifact must not be scanned, got %v", c.Flags)
	}
	if c.Score != 9 {
		t.Errorf("expected score 9 (5 artifact + 4 wheels), got %d", c.Score)
	}
}

func TestClassifyKeywordsAloneTooWeak(t *testing.T) {
	c := Classify(&pypi.Package{Keywords: "fast rust parser"})
	if c.Score != 2 {
		t.Errorf("expected score 2, got %d", c.Score)
	}
	if c.Flagged() {
		t.Error("keywords alone must not clear the threshold")
	}
	if !hasFlag(c, "Contains extension module keywords") {
		t.Errorf("missing keyword flag, got %v", c.Flags)
	}
}

func TestClassifyStrongClassifier(t *testing.T) {
	c := Classify(&pypi.Package{Classifiers: []string{
		"Programming Language :: Python :: 3",
		"Programming Language :: Rust",
	}})
	if c.Score != 3 || !c.Flagged() {
		t.Errorf("expected score 3 and flagged, got %d", c.Score)
	}
	if !hasFlag(c, "Uses native code: Programming Language :: Rust") {
		t.Errorf("missing classifier flag, got %v", c.Flags)
	}
}

func TestClassifyFFIDependencies(t *testing.T) {
	tests := []struct {
		name      string
		requires  []string
		wantScore int
	}{
		{"critical unconditional", []string{"cffi>=1.15"}, 4},
		{"non-critical unconditional", []string{"cmake"}, 3},
		{"conditional skipped", []string{"cffi; implementation_name != 'pypy'"}, 0},
		{"extra skipped", []string{"cython; extra == 'build'"}, 0},
		{"plain dependency ignored", []string{"requests>=2.0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(&pypi.Package{RequiresDist: tt.requires})
			if c.Score != tt.wantScore {
				t.Errorf("score = %d, want %d (flags %v)", c.Score, tt.wantScore, c.Flags)
			}
		})
	}
}

func TestClassifyFFIFlagKeepsRawDeclaration(t *testing.T) {
	c := Classify(&pypi.Package{RequiresDist: []string{"Cython>=0.29"}})
	if !hasFlag(c, "Direct FFI dependency: Cython>=0.29") {
		t.Errorf("flag must carry the declaration as written, got %v", c.Flags)
	}
}

func TestClassifyFFIOverlappingFragments(t *testing.T) {
	// setuptools-rust matches both the "rust" and "setuptools-rust"
	// fragments, so the declaration scores twice.
	c := Classify(&pypi.Package{RequiresDist: []string{"setuptools-rust>=1.0"}})
	if c.Score != 8 {
		t.Errorf("score = %d, want 8 (flags %v)", c.Score, c.Flags)
	}
	matches := 0
	for _, flag := range c.Flags {
		if flag == "Direct FFI dependency: setuptools-rust>=1.0" {
			matches++
		}
	}
	if matches != 2 {
		t.Errorf("flag recorded %d times, want 2", matches)
	}
}

func TestClassifyPureMarkerWeakens(t *testing.T) {
	c := Classify(&pypi.Package{
		Keywords:    "rust bindings",
		Classifiers: []string{"Operating System :: OS Independent", "Typing :: Pure Python"},
	})
	if c.Score != -1 {
		t.Errorf("expected score -1 (2 keywords - 3 pure), got %d", c.Score)
	}
	if c.Flagged() {
		t.Error("pure marker must keep the package unflagged")
	}
}

func TestClassifyTextIndicators(t *testing.T) {
	c := Classify(&pypi.Package{
		Summary:     "A wrapper around the C library libfoo",
		Description: "This package is a C extension for speed.",
	})
	if c.Score != 4 {
		t.Errorf("expected score 4 (two indicators), got %d", c.Score)
	}
	if !hasFlag(c, "Documentation explicitly mentions native code: 'c extension'") {
		t.Errorf("missing text flag, got %v", c.Flags)
	}
	if !hasFlag(c, "Documentation explicitly mentions native code: 'wrapper around the c library'") {
		t.Errorf("missing summary flag, got %v", c.Flags)
	}
}

func TestClassifyRuleOrder(t *testing.T) {
	want := []string{
		"keywords", "classifiers", "ffi-dependencies",
		"release-files", "pure-python-marker", "text-indicators",
	}
	if len(classifyRules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(classifyRules))
	}
	for i, r := range classifyRules {
		if r.name != want[i] {
			t.Errorf("rule %d = %q, want %q", i, r.name, want[i])
		}
	}
}

func TestClassifyEvidenceAccumulates(t *testing.T) {
	// Adding a signal source never lowers the score.
	base := &pypi.Package{Keywords: "ffi bindings"}
	withClassifier := &pypi.Package{
		Keywords:    "ffi bindings",
		Classifiers: []string{"Programming Language :: C"},
	}
	if Classify(withClassifier).Score <= Classify(base).Score {
		t.Errorf("classifier evidence must raise the score: %d vs %d",
			Classify(withClassifier).Score, Classify(base).Score)
	}
	if !strings.Contains(strings.Join(Classify(withClassifier).Flags, "\n"), "Programming Language :: C") {
		t.Error("classifier flag missing")
	}
}

func hasFlag(c *Classification, flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
