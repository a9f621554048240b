package reporting

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

// File naming for one run's artifacts.
const (
	StampLayout   = "20060102_150405"
	ResultsPrefix = "moral_foundations_results_"
	SummaryPrefix = "summary_"
)

// Artifacts holds the output paths of one run.
type Artifacts struct {
	JSON    string
	CSV     string
	HTML    string
	JUnit   string
	Summary string
}

// NewArtifacts names the files for a run finished at t inside dir.
func NewArtifacts(dir string, t time.Time) Artifacts {
	stamp := t.Format(StampLayout)
	base := filepath.Join(dir, ResultsPrefix+stamp)
	return Artifacts{
		JSON:    base + ".json",
		CSV:     base + ".csv",
		HTML:    base + ".html",
		JUnit:   base + ".xml",
		Summary: filepath.Join(dir, SummaryPrefix+stamp+".txt"),
	}
}

// ArtifactsFor derives sibling artifact paths from an existing results file.
func ArtifactsFor(jsonPath string) Artifacts {
	dir, name := filepath.Split(jsonPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	base := filepath.Join(dir, stem)

	summary := base + "_summary.txt"
	if stamp, ok := strings.CutPrefix(stem, ResultsPrefix); ok {
		summary = filepath.Join(dir, SummaryPrefix+stamp+".txt")
	}

	return Artifacts{
		JSON:    jsonPath,
		CSV:     base + ".csv",
		HTML:    base + ".html",
		JUnit:   base + ".xml",
		Summary: summary,
	}
}

// WriteOptions selects which artifacts to produce.
type WriteOptions struct {
	Name      string
	Generated time.Time
	SkipJSON  bool
	SkipCSV   bool
	SkipHTML  bool
	JUnit     bool
}

// Write produces the selected artifacts and returns the paths written, in order.
func (a Artifacts) Write(results []models.QueryResult, opts WriteOptions) ([]string, error) {
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}

	type job struct {
		path   string
		render func(io.Writer) error
	}

	var jobs []job
	if !opts.SkipJSON {
		jobs = append(jobs, job{a.JSON, func(w io.Writer) error { return WriteJSON(w, results) }})
	}
	if !opts.SkipCSV {
		jobs = append(jobs, job{a.CSV, func(w io.Writer) error { return WriteCSV(w, results) }})
	}
	jobs = append(jobs, job{a.Summary, func(w io.Writer) error { return WriteSummary(w, results, opts.Generated) }})
	if !opts.SkipHTML {
		jobs = append(jobs, job{a.HTML, func(w io.Writer) error {
			return WriteHTML(w, results, HTMLOptions{Source: filepath.Base(a.JSON), Generated: opts.Generated})
		}})
	}
	if opts.JUnit {
		jobs = append(jobs, job{a.JUnit, func(w io.Writer) error { return WriteJUnitXML(w, opts.Name, results) }})
	}

	written := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if err := writeFile(j.path, j.render); err != nil {
			return written, err
		}
		written = append(written, j.path)
	}
	return written, nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := render(bw); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return bw.Flush()
}
