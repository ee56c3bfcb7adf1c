package audit

import (
	"context"
	"errors"

	"github.com/matzehuels/pipscope/pkg/integrations"
	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// Source fetches package metadata from a registry. *pypi.Client
// satisfies it; tests substitute a [SourceFunc].
type Source interface {
	FetchPackage(ctx context.Context, pkg string, refresh bool) (*pypi.Package, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, pkg string, refresh bool) (*pypi.Package, error)

func (f SourceFunc) FetchPackage(ctx context.Context, pkg string, refresh bool) (*pypi.Package, error) {
	return f(ctx, pkg, refresh)
}

// Missing records one package that could not be fetched.
type Missing struct {
	Name       string   // canonical name
	Spec       string   // declaration that first requested it
	Err        string   // fetch error text
	NotFound   bool     // the registry reported the package unknown
	RequiredBy []string // canonical declarers, insertion order, deduplicated
}

func (m *Missing) addReferrer(parent string) {
	if parent == "" {
		return
	}
	for _, r := range m.RequiredBy {
		if r == parent {
			return
		}
	}
	m.RequiredBy = append(m.RequiredBy, parent)
}

// store memoizes registry fetches for one run: exactly one fetch per
// canonical name, success or failure. Findings (classification,
// license) are computed at most once per package.
type store struct {
	source  Source
	refresh bool

	packages     map[string]*pypi.Package
	missing      map[string]*Missing
	missingOrder []string
	findings     map[string]*Classification
	licenses     map[string]*License
}

func newStore(source Source, refresh bool) *store {
	return &store{
		source:   source,
		refresh:  refresh,
		packages: make(map[string]*pypi.Package),
		missing:  make(map[string]*Missing),
		findings: make(map[string]*Classification),
		licenses: make(map[string]*License),
	}
}

// fetch returns the metadata for a canonical name, consulting the memo
// first. The spec is the declaration that requested the package and
// parent is the canonical declarer ("" for the root). Classification
// always runs on fetched metadata; license extraction only when
// wantLicense is set, including lazily on memo hits.
func (s *store) fetch(ctx context.Context, name, spec, parent string, wantLicense bool) (*pypi.Package, bool) {
	if p, ok := s.packages[name]; ok {
		if wantLicense {
			s.ensureLicense(name, p)
		}
		return p, true
	}
	if m, ok := s.missing[name]; ok {
		m.addReferrer(parent)
		return nil, false
	}

	p, err := s.source.FetchPackage(ctx, name, s.refresh)
	if err != nil {
		m := &Missing{
			Name:     name,
			Spec:     spec,
			Err:      err.Error(),
			NotFound: errors.Is(err, integrations.ErrNotFound),
		}
		m.addReferrer(parent)
		s.missing[name] = m
		s.missingOrder = append(s.missingOrder, name)
		return nil, false
	}

	s.packages[name] = p
	s.findings[name] = Classify(p)
	if wantLicense {
		s.ensureLicense(name, p)
	}
	return p, true
}

func (s *store) ensureLicense(name string, p *pypi.Package) {
	if _, ok := s.licenses[name]; !ok {
		s.licenses[name] = ExtractLicense(p)
	}
}

// missingList returns the missing records in insertion order.
func (s *store) missingList() []*Missing {
	out := make([]*Missing, 0, len(s.missingOrder))
	for _, name := range s.missingOrder {
		out = append(out, s.missing[name])
	}
	return out
}
