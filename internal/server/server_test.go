package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipscope/pkg/archive"
	"github.com/matzehuels/pipscope/pkg/audit"
	"github.com/matzehuels/pipscope/pkg/integrations"
	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

func declares(version string, deps ...string) *pypi.Package {
	return &pypi.Package{Version: version, RequiresDist: deps}
}

func fakeSource(packages map[string]*pypi.Package) audit.Source {
	return audit.SourceFunc(func(_ context.Context, pkg string, _ bool) (*pypi.Package, error) {
		p, ok := packages[pkg]
		if !ok {
			return nil, fmt.Errorf("fetch %s: %w", pkg, integrations.ErrNotFound)
		}
		return p, nil
	})
}

func newTestServer(t *testing.T, packages map[string]*pypi.Package, store archive.Store) *Server {
	t.Helper()
	return New(Config{
		Source:  fakeSource(packages),
		Archive: store,
		Logger:  log.New(io.Discard),
	})
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestAuditEndpoint(t *testing.T) {
	s := newTestServer(t, map[string]*pypi.Package{
		"app":   declares("1.0", "click>=8.0"),
		"click": declares("8.1"),
	}, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var rep audit.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.RootPackage != "app" {
		t.Errorf("root_package = %q, want app", rep.RootPackage)
	}
	if rep.Summary.TotalDependencies != 1 {
		t.Errorf("total_dependencies = %d, want 1", rep.Summary.TotalDependencies)
	}
	if len(rep.Dependencies) != 1 || rep.Dependencies[0].Name != "click" {
		t.Errorf("dependencies = %+v, want single click entry", rep.Dependencies)
	}
}

func TestAuditEndpointValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing package", `{}`},
		{"blank package", `{"package":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/audits", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := decodeError(t, rec); msg == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestAuditEndpointRootNotFound(t *testing.T) {
	s := newTestServer(t, map[string]*pypi.Package{}, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "ghost") {
		t.Errorf("error = %q, want package name included", msg)
	}
}

func TestAuditEndpointRegistryError(t *testing.T) {
	src := audit.SourceFunc(func(context.Context, string, bool) (*pypi.Package, error) {
		return nil, errors.New("connection reset")
	})
	s := New(Config{Source: src, Logger: log.New(io.Discard)})

	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "connection reset") {
		t.Errorf("error = %q, want fetch failure included", msg)
	}
}

func TestAuditEndpointCapacity(t *testing.T) {
	s := New(Config{
		MaxConcurrent: 1,
		Source:        fakeSource(map[string]*pypi.Package{"app": declares("1.0")}),
		Logger:        log.New(io.Discard),
	})

	if !s.sem.TryAcquire(1) {
		t.Fatal("could not occupy the only slot")
	}
	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	s.sem.Release(1)
	rec = do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after release = %d, want 200", rec.Code)
	}
}

func TestAuditEndpointOptions(t *testing.T) {
	s := newTestServer(t, map[string]*pypi.Package{
		"app":   declares("1.0", "click", "deep"),
		"click": declares("8.1"),
		"deep":  declares("0.1", "deeper"),
	}, nil)

	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app","max_depth":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var rep audit.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	// Only the root is expanded: click and deep stay declared-but-cut
	// (depth -1) and deeper is never declared at all.
	if rep.Summary.MaxDepth != 0 {
		t.Errorf("max_depth = %d, want 0", rep.Summary.MaxDepth)
	}
	for _, d := range rep.Dependencies {
		if d.Name == "deeper" {
			t.Error("deeper should be cut off by max_depth=1")
		}
		if d.Name == "click" && d.Depth != -1 {
			t.Errorf("click depth = %d, want -1 (declared, not expanded)", d.Depth)
		}
	}
}

func TestArchiveEndpoints(t *testing.T) {
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s := newTestServer(t, map[string]*pypi.Package{
		"app":   declares("1.0", "click"),
		"click": declares("8.1"),
	}, store)

	rec := do(t, s, http.MethodPost, "/api/v1/audits", `{"package":"app"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d, want 200", rec.Code)
	}
	var rep audit.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/audits", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var entries []archive.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != rep.RunID {
		t.Fatalf("entries = %+v, want the saved run", entries)
	}
	if entries[0].RootPackage != "app" {
		t.Errorf("root_package = %q, want app", entries[0].RootPackage)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/audits/"+rep.RunID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var fetched audit.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched report: %v", err)
	}
	if fetched.RunID != rep.RunID || fetched.RootPackage != "app" {
		t.Errorf("fetched = {%s %s}, want original run", fetched.RunID, fetched.RootPackage)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/audits/no-such-run", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/audits?limit=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestArchiveEndpointsListEmpty(t *testing.T) {
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s := newTestServer(t, nil, store)

	rec := do(t, s, http.MethodGet, "/api/v1/audits", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestArchiveEndpointsUnconfigured(t *testing.T) {
	s := newTestServer(t, nil, nil)

	for _, target := range []string{"/api/v1/audits", "/api/v1/audits/some-id"} {
		rec := do(t, s, http.MethodGet, target, "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", target, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}
