// Package archive persists audit reports so runs can be listed and
// reopened later. Two backends are provided: a file store for CLI use
// and a MongoDB store for server deployments.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/pipscope/pkg/audit"
)

// ErrNotFound is returned when no archived report matches a run ID.
var ErrNotFound = errors.New("report not found")

// Entry is the listing view of an archived report.
type Entry struct {
	RunID       string        `json:"run_id" bson:"run_id"`
	GeneratedAt time.Time     `json:"generated_at" bson:"generated_at"`
	RootPackage string        `json:"root_package" bson:"root_package"`
	Summary     audit.Summary `json:"summary" bson:"summary"`
}

// Store is the interface for report archives.
type Store interface {
	// Save persists a report, replacing any previous report with the
	// same run ID.
	Save(ctx context.Context, rep *audit.Report) error

	// Get retrieves a report by run ID. Returns ErrNotFound when no
	// report matches.
	Get(ctx context.Context, runID string) (*audit.Report, error)

	// List returns archived reports newest first. A limit of zero or
	// less returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
