package audit

import "strings"

// nameDelimiters are the characters that end the name portion of a
// dependency declaration: whitespace, version operators, and the
// environment marker separator.
const nameDelimiters = " \t\n\r\f\v<>=!~;"

// environmentMarkers are the marker fragments that make a declaration
// conditional: it only applies under some interpreter, platform, or
// extra.
var environmentMarkers = []string{
	"extra ==",
	"extra!=",
	"platform_",
	"sys_platform",
	"implementation_name",
	"python_version",
	"python_full_version",
	"os_name",
	"platform_machine",
}

// devNameFragments mark a package as development tooling by name.
// Substring matching is deliberate: it catches pytest-cov,
// sphinx-rtd-theme, mypy-extensions, and the like.
var devNameFragments = []string{
	"pytest", "nose", "mock", "coverage", "flake8", "pylint",
	"sphinx", "doc", "test", "dev", "lint", "check", "tox", "black",
	"isort", "mypy", "pep8", "setuptools", "wheel", "build", "twine",
	"typecheck", "typing",
}

// devExtraMarkers are the extras that mark a declaration as
// development-only regardless of the package name.
var devExtraMarkers = []string{
	`extra == "dev"`, `extra == "test"`, `extra == "docs"`,
	`extra == 'dev'`, `extra == 'test'`, `extra == 'docs'`,
}

// Canonical reduces a dependency declaration to the bare package name
// used as a graph key: extras stripped, version constraints and
// environment markers cut, lowercased. It is idempotent, so canonical
// names pass through unchanged.
//
//	Canonical("Requests[security]>=2.0; python_version<'3.9'") == "requests"
func Canonical(req string) string {
	name := req
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, nameDelimiters); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// IsConditional reports whether a declaration only applies under some
// environment marker or extra. Declarations that request extras of
// their target (e.g. "uvicorn[standard]") count as conditional too,
// since the extra pulls in optional machinery.
func IsConditional(req string) bool {
	if strings.Contains(req, ";") {
		lower := strings.ToLower(req)
		for _, marker := range environmentMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return strings.Contains(req, "[") && strings.Contains(req, "]")
}

// IsDev reports whether a declaration looks like development tooling,
// either by package name or because it is guarded by a dev/test/docs
// extra.
func IsDev(req string) bool {
	name := Canonical(req)
	for _, frag := range devNameFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	lower := strings.ToLower(req)
	for _, extra := range devExtraMarkers {
		if strings.Contains(lower, extra) {
			return true
		}
	}
	return false
}
