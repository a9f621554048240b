// Package dashboard maintains the results index and serves it over HTTP.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/mfqbench/internal/validation"
)

const (
	// IndexFile is the name of the index written into the results directory.
	IndexFile = "index.json"
	// ResultsPattern matches the JSON result files that take part in the index.
	ResultsPattern = "moral_foundations_results_*.json"
)

// IndexEntry describes one result file.
type IndexEntry struct {
	Filename       string   `json:"filename"`
	Filepath       string   `json:"filepath"`
	Timestamp      *string  `json:"timestamp"`
	LLMs           []string `json:"llms"`
	LLMCount       int      `json:"llm_count"`
	Foundations    []string `json:"foundations"`
	QuestionCount  int      `json:"question_count"`
	TotalResponses int      `json:"total_responses"`
	ValidResponses int      `json:"valid_responses"`
	DateGenerated  string   `json:"date_generated"`
}

// indexRecord keeps the timestamp as written so the index shows it verbatim.
type indexRecord struct {
	LLM            string  `json:"llm"`
	Question       string  `json:"question"`
	Foundation     string  `json:"moral_foundation"`
	ExtractedValue *int    `json:"extracted_value"`
	Timestamp      *string `json:"timestamp"`
}

// ScanIndex builds index entries for every result file in dir, newest first.
// Files that cannot be read or decoded are skipped with a warning.
func ScanIndex(dir string) ([]IndexEntry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, ResultsPattern))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	slices.Sort(paths)
	slices.Reverse(paths)

	prefix := webPrefix(dir)
	entries := make([]IndexEntry, 0, len(paths))

	for _, p := range paths {
		entry, ok, err := indexFile(p)
		if err != nil {
			slog.Warn("skipping result file", "file", filepath.Base(p), "error", err)
			continue
		}
		if !ok {
			continue
		}
		entry.Filepath = prefix + entry.Filename
		entries = append(entries, *entry)
	}

	return entries, nil
}

// RebuildIndex scans dir and writes the entries to dir/index.json.
func RebuildIndex(dir string) ([]IndexEntry, error) {
	entries, err := ScanIndex(dir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, IndexFile), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}
	return entries, nil
}

// ReadIndex loads a previously written index.json.
func ReadIndex(dir string) ([]IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	var entries []IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", IndexFile, err)
	}
	return entries, nil
}

// indexFile returns ok=false for a file holding an empty array.
func indexFile(path string) (*IndexEntry, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	var records []indexRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, err
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	if issues := validation.ValidateResultsJSON(data); len(issues) > 0 {
		return nil, false, fmt.Errorf("schema: %s", strings.Join(issues, "; "))
	}

	llms := map[string]bool{}
	foundations := map[string]bool{}
	questions := map[string]bool{}
	valid := 0
	var ts *string

	for _, r := range records {
		llms[r.LLM] = true
		foundations[r.Foundation] = true
		questions[r.Question] = true
		if r.ExtractedValue != nil && *r.ExtractedValue >= 0 {
			valid++
		}
		if ts == nil && r.Timestamp != nil && *r.Timestamp != "" {
			ts = r.Timestamp
		}
	}

	entry := &IndexEntry{
		Filename:       filepath.Base(path),
		Timestamp:      ts,
		LLMs:           sortedSet(llms),
		Foundations:    sortedSet(foundations),
		QuestionCount:  len(questions),
		TotalResponses: len(records),
		ValidResponses: valid,
		DateGenerated:  info.ModTime().Format(time.RFC3339),
	}
	entry.LLMCount = len(entry.LLMs)
	return entry, true, nil
}

// webPrefix maps a results dir to the URL path its files are served under. Relative dirs
// keep their path so a site rooted at the working directory resolves them; absolute dirs
// collapse to their base name.
func webPrefix(dir string) string {
	clean := filepath.Clean(dir)
	if filepath.IsAbs(clean) {
		clean = filepath.Base(clean)
	}
	if clean == "." || clean == string(filepath.Separator) {
		return "/"
	}
	return "/" + strings.TrimPrefix(filepath.ToSlash(clean), "./") + "/"
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
