// Package pkg provides the core libraries for pipscope dependency auditing.
//
// # Overview
//
// pipscope walks the transitive dependency graph of a Python package as
// declared on PyPI, and reports on what it finds: packages that only ship
// source distributions, licenses, and maintenance signals that warrant a
// closer look before adopting a dependency. The pkg directory is organized
// into three main areas:
//
//  1. [audit] - Domain logic (resolution, classification, reports)
//  2. [cache], [archive], [httputil] - Infrastructure (caching, persistence, retry)
//  3. [integrations] - External API clients (PyPI)
//
// # Architecture
//
// The typical data flow through pipscope:
//
//	PyPI JSON API / local manifest
//	         ↓
//	    [audit] package (breadth-first resolution + classification)
//	         ↓
//	    [audit.Report] export document
//	         ↓
//	    [render] (DOT/SVG, markdown) or [archive] (persistence)
//
// # Quick Start
//
// Audit a package and print its dependency tree:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/pipscope/pkg/audit"
//	    "github.com/matzehuels/pipscope/pkg/cache"
//	    "github.com/matzehuels/pipscope/pkg/integrations/pypi"
//	)
//
//	backend, _ := cache.NewFileCache(dir)
//	client := pypi.NewClient(backend, cache.DefaultTTL)
//
//	run, err := audit.Resolve(context.Background(), client, "fastapi", audit.Options{
//	    MaxDepth: 3,
//	    Licenses: true,
//	})
//	if err != nil {
//	    return err
//	}
//	run.WriteTree(os.Stdout, true, true)
//
// # Main Packages
//
// [audit] - Dependency resolution and analysis. Walks requirement declarations
// breadth-first through a registry [audit.Source], records wheel availability,
// licenses and investigation flags per package, and writes the text reports
// the CLI prints. [audit.Run.Export] produces the stable report document the
// other packages consume.
//
// [manifest] - Local manifest input. Detects and reads requirements.txt and
// pyproject.toml files so audits can start from a project instead of a single
// package.
//
// [integrations] - HTTP client for the PyPI JSON API with sentinel error
// classification ([integrations.ErrNotFound], [integrations.ErrNetwork]) and
// response caching through a [cache.Cache] backend.
//
// [cache] - Cache backends: file-based for the CLI, Redis for server
// deployments, and a null backend that disables caching.
//
// [archive] - Report persistence keyed by run ID: file-based under the user
// data directory, or MongoDB for server deployments.
//
// [render] - Shareable artifacts from report documents: Graphviz DOT and SVG
// dependency graphs, and GitHub-flavored markdown summaries.
//
// [httputil] - Bounded retry with backoff for transient registry failures.
//
// [buildinfo] - Version metadata stamped at build time.
//
// # Common Workflows
//
// Audit a manifest instead of a published package:
//
//	m, _ := manifest.Read("requirements.txt")
//	run, _ := audit.ResolveSeeds(ctx, client, m.Name, m.Requirements, audit.Options{})
//
// Render a dependency graph:
//
//	rep := run.Export()
//	dot := render.ToDOT(rep, render.Options{})
//	svg, _ := render.RenderSVG(ctx, dot)
//
// Archive a report and load it back:
//
//	store, _ := archive.NewFileStore(dir)
//	_ = store.Save(ctx, rep)
//	rep2, _ := store.Get(ctx, rep.RunID)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/audit/...      # Specific package
//
// [audit]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/audit
// [manifest]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/manifest
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/cache
// [archive]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/archive
// [render]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/render
// [httputil]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pipscope/pkg/buildinfo
package pkg
