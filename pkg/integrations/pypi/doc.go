// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// This package fetches package metadata from PyPI (https://pypi.org), the
// official repository for Python packages.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour) // Cache TTL
//
//	pkg, err := client.FetchPackage(ctx, "fastapi", false) // false = use cache
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(pkg.Name, pkg.Version)
//	fmt.Println("Declares:", pkg.RequiresDist)
//
// # Package
//
// [Client.FetchPackage] returns a [Package] containing:
//
//   - Name, Version: Package identity
//   - RequiresDist: Dependency declarations, unfiltered
//   - Summary, Description, Keywords, Classifiers: Descriptive metadata
//   - License, Author, AuthorEmail: Attribution metadata
//   - ProjectURL, ProjectURLs, HomePage: Links
//   - Files, Releases: Distributable artifact filenames per release
//
// Dependency declarations are returned exactly as published. Deciding
// which of them count (environment markers, extras, dev tooling) is the
// audit layer's job, so nothing is filtered here.
//
// # Caching
//
// Responses are cached to reduce load on PyPI and speed up repeated
// requests. The cache TTL is set when creating the client. Pass
// refresh=true to [Client.FetchPackage] to bypass the cache. Failed
// lookups are never cached.
//
// Package names are normalized following PEP 503 before they become
// URLs or cache keys.
package pypi
