package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/pipscope/pkg/audit"
)

// FileStore archives reports as JSON files named <run_id>.json under a
// single directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) reportPath(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// validRunID rejects IDs that would escape the archive directory.
func validRunID(runID string) bool {
	return runID != "" && filepath.Base(runID) == runID && !strings.Contains(runID, "..")
}

func (s *FileStore) Save(ctx context.Context, rep *audit.Report) error {
	if !validRunID(rep.RunID) {
		return fmt.Errorf("invalid run id %q", rep.RunID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(s.reportPath(rep.RunID), data, 0o600); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, runID string) (*audit.Report, error) {
	if !validRunID(runID) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.reportPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var rep audit.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", runID, err)
	}
	return &rep, nil
}

func (s *FileStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].GeneratedAt.After(entries[j].GeneratedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *FileStore) Close(ctx context.Context) error { return nil }

// Path returns the archive directory.
func (s *FileStore) Path() string { return s.dir }

var _ Store = (*FileStore)(nil)
