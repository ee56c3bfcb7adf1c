package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/pipscope/pkg/cache"
	"github.com/matzehuels/pipscope/pkg/integrations"
)

// Package holds the registry metadata pipscope reads for one project.
//
// Fields are carried verbatim from the PyPI JSON API except Keywords,
// which the API serves as a string, a list, or null and which is
// collapsed here to a single lowercased string. License is the raw
// declaration; normalization happens in the audit layer.
//
// A nil RequiresDist slice is valid and means the project declares no
// dependencies. The struct is safe for concurrent reads after
// construction.
type Package struct {
	Name         string            // Display name as registered (e.g. "Flask")
	Version      string            // Current release version
	Summary      string            // Short description (may be empty)
	Description  string            // Long description, often a full README
	Keywords     string            // Lowercased, space-joined keywords
	Classifiers  []string          // Trove classifiers
	RequiresDist []string          // Dependency declarations of the current release
	License      string            // Raw license field (may be full license text)
	Author       string            // Author name (may be empty)
	AuthorEmail  string            // Author email (may be empty)
	HomePage     string            // Homepage URL (may be empty)
	ProjectURL   string            // Canonical project page on the registry
	ProjectURLs  map[string]string // Named project URLs (may be nil)
	Files        []File            // Artifacts of the current release
	Releases     map[string][]File // Artifacts per released version (may be nil)
}

// File is one distributable artifact of a release.
type File struct {
	Filename     string   // e.g. "numpy-1.26.0-cp312-cp312-manylinux_2_17_x86_64.whl"
	RequiresDist []string // Per-artifact dependency declarations, usually absent
}

// DependenciesFor returns the dependency declarations for the given
// release version, preferring artifact-level metadata and falling back
// to the package-level declarations when the release carries none.
// An empty version selects the current release.
func (p *Package) DependenciesFor(version string) []string {
	if version == "" {
		version = p.Version
	}
	if files := p.Releases[version]; len(files) > 0 {
		if rd := files[0].RequiresDist; rd != nil {
			return rd
		}
	}
	return p.RequiresDist
}

// Client provides access to the PyPI package registry API.
// It handles HTTP requests with response caching; retries are off by
// default and enabled via [Client.EnableRetry].
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for response caching (nil disables caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// FetchPackage retrieves metadata for a Python package from PyPI.
//
// The pkg parameter is normalized automatically (lowercased,
// underscores replaced with hyphens). If refresh is true the cache is
// bypassed and a fresh API call is made.
//
// Returns:
//   - Package populated with metadata on success
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures
//
// The returned Package pointer is never nil if err is nil.
// This method is safe for concurrent use.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*Package, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var info Package
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *Package) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}
	*info = data.toPackage()
	return nil
}

type apiResponse struct {
	Info     apiInfo              `json:"info"`
	URLs     []apiFile            `json:"urls"`
	Releases map[string][]apiFile `json:"releases"`
}

type apiInfo struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	Summary      string         `json:"summary"`
	Description  string         `json:"description"`
	Keywords     any            `json:"keywords"`
	Classifiers  []string       `json:"classifiers"`
	RequiresDist []string       `json:"requires_dist"`
	License      string         `json:"license"`
	Author       string         `json:"author"`
	AuthorEmail  string         `json:"author_email"`
	HomePage     string         `json:"home_page"`
	ProjectURL   string         `json:"project_url"`
	ProjectURLs  map[string]any `json:"project_urls"`
}

type apiFile struct {
	Filename     string   `json:"filename"`
	RequiresDist []string `json:"requires_dist"`
}

func (r apiResponse) toPackage() Package {
	urls := make(map[string]string, len(r.Info.ProjectURLs))
	for k, v := range r.Info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	var releases map[string][]File
	if len(r.Releases) > 0 {
		releases = make(map[string][]File, len(r.Releases))
		for version, files := range r.Releases {
			releases[version] = toFiles(files)
		}
	}

	return Package{
		Name:         r.Info.Name,
		Version:      r.Info.Version,
		Summary:      r.Info.Summary,
		Description:  r.Info.Description,
		Keywords:     normalizeKeywords(r.Info.Keywords),
		Classifiers:  r.Info.Classifiers,
		RequiresDist: r.Info.RequiresDist,
		License:      r.Info.License,
		Author:       r.Info.Author,
		AuthorEmail:  r.Info.AuthorEmail,
		HomePage:     r.Info.HomePage,
		ProjectURL:   r.Info.ProjectURL,
		ProjectURLs:  urls,
		Files:        toFiles(r.URLs),
		Releases:     releases,
	}
}

func toFiles(files []apiFile) []File {
	if files == nil {
		return nil
	}
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = File{Filename: f.Filename, RequiresDist: f.RequiresDist}
	}
	return out
}

// normalizeKeywords collapses the keywords field, which the API serves
// as a comma- or space-separated string, a list, or null.
func normalizeKeywords(v any) string {
	switch kw := v.(type) {
	case string:
		return strings.ToLower(kw)
	case []any:
		parts := make([]string, 0, len(kw))
		for _, k := range kw {
			parts = append(parts, fmt.Sprint(k))
		}
		return strings.ToLower(strings.Join(parts, " "))
	}
	return ""
}
