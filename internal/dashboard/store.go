package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/reporting"
)

// ErrReportNotFound is returned when a name does not match any indexed result file.
var ErrReportNotFound = errors.New("report not found")

// ReportStore provides access to the result files of a directory.
type ReportStore interface {
	// ListReports returns the index entries, newest first.
	ListReports() ([]IndexEntry, error)
	// GetReport returns one report with its aggregate table.
	GetReport(name string) (*ReportDetail, error)
	// Summary returns totals across all reports.
	Summary() (*SummaryResponse, error)
	// Reload rescans the directory and rewrites index.json.
	Reload() error
}

// FileStore serves result files from a directory. The index is built lazily on first use.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	entries []IndexEntry
	byName  map[string]IndexEntry
	loaded  bool
}

// NewFileStore creates a FileStore that reads results from dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, byName: map[string]IndexEntry{}}
}

func (fs *FileStore) load(write bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.entries = nil
	fs.byName = map[string]IndexEntry{}

	if fs.dir == "" {
		fs.loaded = true
		return nil
	}
	if _, err := os.Stat(fs.dir); err != nil {
		if os.IsNotExist(err) {
			fs.loaded = true
			return nil
		}
		return err
	}

	scan := ScanIndex
	if write {
		scan = RebuildIndex
	}
	entries, err := scan(fs.dir)
	if err != nil {
		return err
	}

	fs.entries = entries
	for _, e := range entries {
		fs.byName[e.Filename] = e
	}
	fs.loaded = true
	return nil
}

func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load(false)
}

// Reload forces a fresh scan and rewrites index.json.
func (fs *FileStore) Reload() error {
	return fs.load(true)
}

// ListReports implements ReportStore.
func (fs *FileStore) ListReports() ([]IndexEntry, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	out := make([]IndexEntry, len(fs.entries))
	copy(out, fs.entries)
	return out, nil
}

// GetReport implements ReportStore. Only indexed names are accepted, so a name can
// never reach outside the results directory.
func (fs *FileStore) GetReport(name string) (*ReportDetail, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	entry, ok := fs.byName[name]
	fs.mu.RUnlock()
	if !ok {
		return nil, ErrReportNotFound
	}

	results, err := reporting.LoadResults(filepath.Join(fs.dir, entry.Filename))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	table := aggregate.Compute(results)
	return &ReportDetail{
		IndexEntry:     entry,
		Table:          table,
		Interpretation: reporting.FormatInterpretation(table),
	}, nil
}

// Summary implements ReportStore.
func (fs *FileStore) Summary() (*SummaryResponse, error) {
	entries, err := fs.ListReports()
	if err != nil {
		return nil, err
	}

	resp := &SummaryResponse{}
	seen := map[string]bool{}
	for _, e := range entries {
		resp.TotalReports++
		resp.TotalResponses += e.TotalResponses
		resp.ValidResponses += e.ValidResponses
		for _, m := range e.LLMs {
			seen[m] = true
		}
	}
	if resp.TotalResponses > 0 {
		resp.ValidRate = float64(resp.ValidResponses) / float64(resp.TotalResponses) * 100.0
	}
	resp.Models = sortedSet(seen)
	if len(entries) > 0 {
		resp.Latest = entries[0].Filename
	}
	return resp, nil
}
