// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains the low-level client for fetching package
// metadata from PyPI, plus the shared HTTP plumbing it sits on:
//
//   - [pypi]: Python Package Index JSON API
//
// # Client Pattern
//
//	backend, err := cache.NewFileCache(dir)
//	client := pypi.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "fastapi", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with sentinel error classification
//   - Response caching through a [cache.Cache] backend (configurable TTL)
//   - API-specific parsing and normalization
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP layer used by registry clients.
// Failures map onto two sentinels: [ErrNotFound] for missing resources
// and [ErrNetwork] for everything transport-shaped. Transient failures
// retry only when [Client.EnableRetry] has been called, so an audit
// against a flaky registry fails fast by default.
//
// [pypi]: github.com/matzehuels/pipscope/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/pipscope/pkg/cache.Cache
package integrations
