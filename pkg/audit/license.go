package audit

import (
	"sort"
	"strings"

	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// License is the identification extracted from one package's metadata.
type License struct {
	Name        string // normalized family, or the raw declaration when unrecognized
	URL         string // project URL whose key mentions "license", if any
	ProjectURL  string // registry project page, falling back to the homepage
	Author      string
	AuthorEmail string
}

// ExtractLicense identifies the license of a package. Free-text
// declarations are mapped onto a small family set; when the field holds
// an entire license text instead of a name, the trove classifier's
// short form is preferred.
func ExtractLicense(p *pypi.Package) *License {
	raw := strings.TrimSpace(p.License)
	if raw == "" {
		raw = "Unknown"
	}
	name := normalizeLicenseName(raw)
	if name == raw && (len(raw) > 100 || strings.Contains(raw, "\n")) {
		if trove := troveLicense(p.Classifiers); trove != "" {
			name = normalizeLicenseName(trove)
		} else {
			name = "See license file"
		}
	}

	l := &License{
		Name:        name,
		URL:         licenseURL(p.ProjectURLs),
		ProjectURL:  p.ProjectURL,
		Author:      p.Author,
		AuthorEmail: p.AuthorEmail,
	}
	if l.ProjectURL == "" {
		l.ProjectURL = p.HomePage
	}
	return l
}

// normalizeLicenseName maps a free-text declaration onto a license
// family by ordered substring match, first hit wins. LGPL is checked
// before GPL since every LGPL string contains "gpl". Unmatched input
// passes through unchanged.
func normalizeLicenseName(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "mit"):
		return "MIT"
	case strings.Contains(lower, "apache"):
		if strings.Contains(lower, "2") {
			return "Apache-2.0"
		}
		return "Apache"
	case strings.Contains(lower, "bsd"):
		if strings.Contains(lower, "3") {
			return "BSD-3-Clause"
		}
		if strings.Contains(lower, "2") {
			return "BSD-2-Clause"
		}
		return "BSD"
	case strings.Contains(lower, "lgpl"):
		return "LGPL"
	case strings.Contains(lower, "gpl"), strings.Contains(lower, "gnu general public"):
		if strings.Contains(lower, "3") {
			return "GPL-3.0"
		}
		if strings.Contains(lower, "2") {
			return "GPL-2.0"
		}
		return "GPL"
	case strings.Contains(lower, "mpl"), strings.Contains(lower, "mozilla"):
		return "MPL"
	case strings.Contains(lower, "public domain"):
		return "Public Domain"
	case strings.Contains(lower, "isc"):
		return "ISC"
	}
	return raw
}

// troveLicense pulls the short license form from the trove
// classifiers: "License :: OSI Approved :: MIT License" yields "MIT
// License".
func troveLicense(classifiers []string) string {
	for _, c := range classifiers {
		if !strings.HasPrefix(c, "License :: ") {
			continue
		}
		parts := strings.Split(c, " :: ")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}
	return ""
}

// licenseURL returns the first project URL whose key mentions a
// license, in sorted key order for determinism.
func licenseURL(urls map[string]string) string {
	keys := make([]string, 0, len(urls))
	for k := range urls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "license") {
			return urls[k]
		}
	}
	return ""
}
