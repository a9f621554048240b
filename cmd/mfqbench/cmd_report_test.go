package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/mfqbench/internal/reporting"
)

func TestReportCommand_RegeneratesArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := createResultFile(t, dir, "moral_foundations_results_20250701_100000.json", sampleResults(4, 2))

	out, err := executeCommand(t, "report", path, "--junit", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "SUM OF SCORES BY LLM AND MORAL FOUNDATION")
	assert.Contains(t, out, "=== Interpretation ===")

	a := reporting.ArtifactsFor(path)
	assert.Equal(t, filepath.Join(dir, "summary_20250701_100000.txt"), a.Summary)
	assert.FileExists(t, a.Summary)
	assert.FileExists(t, a.HTML)
	assert.FileExists(t, a.JUnit)
	assert.NoFileExists(t, a.CSV)
}

func TestReportCommand_CSVAndNoHTML(t *testing.T) {
	dir := t.TempDir()
	path := createResultFile(t, dir, "run.json", sampleResults(4, 2))

	_, err := executeCommand(t, "report", path, "--csv", "--no-html")
	require.NoError(t, err)

	a := reporting.ArtifactsFor(path)
	assert.FileExists(t, a.CSV)
	assert.FileExists(t, filepath.Join(dir, "run_summary.txt"))
	assert.NoFileExists(t, a.HTML)
}

func TestReportCommand_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"llm": "A"}]`), 0o644))

	_, err := executeCommand(t, "report", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
}

func TestIndexCommand(t *testing.T) {
	dir := t.TempDir()
	createResultFile(t, dir, "moral_foundations_results_20250701_100000.json", sampleResults(4, 2))
	createResultFile(t, dir, "moral_foundations_results_20250702_100000.json", sampleResults(1, 2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "moral_foundations_results_20250703_100000.json"), []byte("[{"), 0o644))

	out, err := executeCommand(t, "index", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 reports")
	assert.FileExists(t, filepath.Join(dir, "index.json"))
}

func TestCacheClearCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json.zst"), []byte("x"), 0o644))

	out, err := executeCommand(t, "cache", "clear", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")
	assert.Contains(t, out, "(1 entries)")

	_, err = os.Stat(filepath.Join(dir, "abc.json.zst"))
	assert.True(t, os.IsNotExist(err))
}
