package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDataset = `Question,Part,Moral,Outputs
"Whether or not someone suffered
emotionally",1,Harm-Care,
Justice is the most important requirement for a society.,2,Fairness-Reciprocity,
`

// createTestSpec writes a dataset, both prompt templates and an analysis.yaml into a temp
// dir, makes it the working directory, and returns the analysis.yaml path.
func createTestSpec(t *testing.T, backends string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mfq.csv"), []byte(testDataset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part1.txt"), []byte("Rate relevance 0-5."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part2.txt"), []byte("Rate agreement 0-5."), 0o644))

	spec := `name: test-mfq
dataset: mfq.csv
prompts:
  part1: part1.txt
  part2: part2.txt
output_dir: results
config:
  parallel: false
  timeout_seconds: 5
backends:
` + backends
	specPath := filepath.Join(dir, "analysis.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(spec), 0o644))
	return specPath
}

const twoMockBackends = `  - {name: A, provider: mock, options: {reply: "4"}}
  - {name: B, provider: mock, options: {fail: timeout}}
`

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// noPrompt fails the test if the interactive limit picker is reached.
func noPrompt(t *testing.T) {
	t.Helper()
	prev := promptLimit
	t.Cleanup(func() { promptLimit = prev })
	promptLimit = func(_ io.Reader, _ io.Writer) (int, bool) {
		t.Fatal("limit picker must not run")
		return 0, false
	}
}
