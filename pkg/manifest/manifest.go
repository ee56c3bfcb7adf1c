// Package manifest reads Python project manifests and extracts the
// declared dependency roots for an audit.
//
// Two formats are supported: pip requirements files (requirements.txt
// and requirements-*.txt variants) and PEP 621 pyproject.toml files.
// Requirement lines are kept verbatim so version constraints and
// environment markers survive into the audit layer.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pipscope/pkg/audit"
)

// A Manifest is a parsed dependency file: a display name for the
// project and the requirement lines it declares, in file order with
// duplicates of the same canonical name dropped (first wins).
type Manifest struct {
	Name         string
	Requirements []string
}

// Detect reports whether path names a supported manifest file.
func Detect(path string) bool {
	base := filepath.Base(path)
	return base == "pyproject.toml" ||
		(strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt"))
}

// Read parses the manifest at path, choosing the parser by file name.
func Read(path string) (*Manifest, error) {
	base := filepath.Base(path)
	switch {
	case base == "pyproject.toml":
		return ReadPyproject(path)
	case strings.HasPrefix(base, "requirements") && strings.HasSuffix(base, ".txt"):
		return ReadRequirements(path)
	}
	return nil, fmt.Errorf("unsupported manifest %q", base)
}

// ReadRequirements parses a pip requirements file. Comment lines, pip
// flags (-r, -e, --hash and friends) and direct URL references are
// skipped. The project has no name of its own, so the file name
// stands in.
func ReadRequirements(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Manifest{Name: filepath.Base(path)}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i > 0 && isSpace(line[i-1]) {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		name := audit.Canonical(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		m.Requirements = append(m.Requirements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadPyproject parses a PEP 621 pyproject.toml. The project name
// falls back to tool.poetry.name for poetry projects that predate the
// [project] table, then to the file name.
func ReadPyproject(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Project struct {
			Name         string   `toml:"name"`
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	name := doc.Project.Name
	if name == "" {
		name = doc.Tool.Poetry.Name
	}
	if name == "" {
		name = filepath.Base(path)
	}

	m := &Manifest{Name: name}
	seen := make(map[string]bool)
	for _, req := range doc.Project.Dependencies {
		req = strings.TrimSpace(req)
		canonical := audit.Canonical(req)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		m.Requirements = append(m.Requirements, req)
	}
	return m, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
