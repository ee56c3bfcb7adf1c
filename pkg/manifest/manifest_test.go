package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"requirements.txt", true},
		{"requirements-dev.txt", true},
		{"requirements_prod.txt", true},
		{"./sub/requirements.txt", true},
		{"pyproject.toml", true},
		{"project/pyproject.toml", true},
		{"poetry.lock", false},
		{"Pipfile", false},
		{"flask", false},
		{"setup.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Detect(tt.path); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadRequirements(t *testing.T) {
	path := writeFile(t, "requirements.txt", `# Web stack
requests>=2.28.0
click==8.1.0  # pinned for CLI compatibility
pydantic[email]>=2.0

httpx; python_version >= "3.8"
Click
-e ./local-package
-r requirements-dev.txt
--hash=sha256:deadbeef
git+https://github.com/user/repo.git
https://example.com/pkg-1.0.tar.gz
`)

	m, err := ReadRequirements(path)
	if err != nil {
		t.Fatalf("ReadRequirements failed: %v", err)
	}

	if m.Name != "requirements.txt" {
		t.Errorf("Name = %q", m.Name)
	}
	want := []string{
		"requests>=2.28.0",
		"click==8.1.0",
		"pydantic[email]>=2.0",
		`httpx; python_version >= "3.8"`,
	}
	if !reflect.DeepEqual(m.Requirements, want) {
		t.Errorf("Requirements = %q, want %q", m.Requirements, want)
	}
}

func TestReadRequirementsMissingFile(t *testing.T) {
	if _, err := ReadRequirements(filepath.Join(t.TempDir(), "requirements.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadPyproject(t *testing.T) {
	path := writeFile(t, "pyproject.toml", `[project]
name = "myapp"
version = "1.0.0"
dependencies = [
    "flask>=2.0",
    "requests",
    "Flask",
]

[tool.poetry]
name = "ignored-when-project-present"
`)

	m, err := ReadPyproject(path)
	if err != nil {
		t.Fatalf("ReadPyproject failed: %v", err)
	}

	if m.Name != "myapp" {
		t.Errorf("Name = %q, want %q", m.Name, "myapp")
	}
	want := []string{"flask>=2.0", "requests"}
	if !reflect.DeepEqual(m.Requirements, want) {
		t.Errorf("Requirements = %q, want %q", m.Requirements, want)
	}
}

func TestReadPyprojectPoetryNameFallback(t *testing.T) {
	path := writeFile(t, "pyproject.toml", `[tool.poetry]
name = "legacy-app"
version = "0.1.0"
`)

	m, err := ReadPyproject(path)
	if err != nil {
		t.Fatalf("ReadPyproject failed: %v", err)
	}
	if m.Name != "legacy-app" {
		t.Errorf("Name = %q, want %q", m.Name, "legacy-app")
	}
	if len(m.Requirements) != 0 {
		t.Errorf("Requirements = %q, want none", m.Requirements)
	}
}

func TestReadPyprojectInvalidTOML(t *testing.T) {
	path := writeFile(t, "pyproject.toml", "[project\nname =")
	if _, err := ReadPyproject(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRead(t *testing.T) {
	reqPath := writeFile(t, "requirements.txt", "flask\n")
	m, err := Read(reqPath)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Requirements, []string{"flask"}) {
		t.Errorf("Requirements = %q", m.Requirements)
	}

	tomlPath := writeFile(t, "pyproject.toml", "[project]\nname = \"app\"\ndependencies = [\"click\"]\n")
	m, err = Read(tomlPath)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "app" {
		t.Errorf("Name = %q", m.Name)
	}

	if _, err := Read("Gemfile"); err == nil {
		t.Fatal("expected error for unsupported manifest")
	}
}
