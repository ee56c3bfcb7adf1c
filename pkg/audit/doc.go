// Package audit resolves and inspects the transitive dependency graph
// of a Python package.
//
// # Overview
//
// Starting from a root requirement (or a set of manifest entries), the
// resolver walks PyPI metadata breadth-first and produces a [Run]: the
// dependency graph keyed by canonical package name, the depth at which
// each package was first reached, records for packages that could not
// be fetched, and per-package findings (native-code evidence, wheel
// availability, license identification).
//
// # Quick Start
//
//	client := pypi.NewClient(backend, cache.DefaultTTL)
//	run, err := audit.Resolve(ctx, client, "fastapi", audit.Options{Licenses: true})
//	if err != nil {
//	    return err
//	}
//	run.WriteTree(os.Stdout, true, false)
//	report := run.Export()
//
// # Resolution
//
// Resolution is sequential and deterministic: a FIFO queue of declared
// requirements, a visited set keyed by canonical name, and exactly one
// registry fetch per canonical name per run, success or failure. Cycles
// terminate because a visited package is never expanded twice. Progress
// is observable through [Options.OnPackage]; the resolver itself never
// prints.
//
// # Findings
//
// Every fetched package is scored by an ordered rule list looking for
// native-code evidence (keywords, trove classifiers, FFI build
// dependencies, compiled artifacts, wheel compatibility tags, prose).
// Packages at or above the investigation threshold carry their evidence
// into reports and the JSON export. License identification maps
// free-text declarations onto a small family set and is computed only
// when requested.
package audit
