package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validAnalysisYAML = `name: mfq-30
dataset: moralfoundations30-dataset.csv
prompts:
  part1: moral_foundations_part1_prompt
  part2: moral_foundations_part2_prompt
output_dir: results
config:
  parallel: true
  workers: 4
  timeout_seconds: 120
backends:
  - name: gpt-4
    provider: openai
    model: gpt-4
    temperature: 0.7
  - name: echo
    provider: mock
    options:
      reply: "4"
`

const invalidAnalysisYAML = `dataset: moralfoundations30-dataset.csv
prompts:
  part1: p1
config:
  workers: -1
backends:
  - name: llama
    provider: ollama
    temperature: 3.5
`

func TestValidateAnalysisBytes_Valid(t *testing.T) {
	errs := ValidateAnalysisBytes([]byte(validAnalysisYAML))
	require.Empty(t, errs, "valid spec should have no errors")
}

func TestValidateAnalysisBytes_Invalid(t *testing.T) {
	errs := ValidateAnalysisBytes([]byte(invalidAnalysisYAML))
	require.NotEmpty(t, errs, "invalid spec should have errors")

	joined := strings.Join(errs, "\n")
	require.Contains(t, joined, "/prompts")
	require.Contains(t, joined, "/config/workers")
	require.Contains(t, joined, "/backends/0/provider")
	require.Contains(t, joined, "/backends/0/temperature")
}

func TestValidateAnalysisBytes_BadYAML(t *testing.T) {
	errs := ValidateAnalysisBytes([]byte("prompts: [oops"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestValidateAnalysisFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(validAnalysisYAML), 0644))
	require.NoError(t, ValidateAnalysisFile(good))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(invalidAnalysisYAML), 0644))
	err := ValidateAnalysisFile(bad)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	require.Equal(t, bad, se.Path)
	require.NotEmpty(t, se.Issues)

	require.Error(t, ValidateAnalysisFile(filepath.Join(dir, "missing.yaml")))
}

func TestValidateResultsJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid",
			body: `[{"llm":"gpt-4","question":"q","part":1,"moral_foundation":"Harm-Care","response":"4","extracted_value":4,"timestamp":"2025-01-01T10:00:00"}]`,
		},
		{
			name: "null timestamp",
			body: `[{"llm":"gpt-4","question":"q","part":2,"moral_foundation":"Harm-Care","response":"ERROR: x","extracted_value":-1,"timestamp":null}]`,
		},
		{name: "empty array", body: `[]`},
		{
			name:    "value out of range",
			body:    `[{"llm":"a","question":"q","part":1,"moral_foundation":"f","response":"9","extracted_value":9}]`,
			wantErr: "/0/extracted_value",
		},
		{
			name:    "missing field",
			body:    `[{"llm":"a","question":"q","part":1,"response":"4","extracted_value":4}]`,
			wantErr: "moral_foundation",
		},
		{name: "not an array", body: `{"llm":"a"}`, wantErr: "/"},
		{name: "truncated", body: `[{"llm":`, wantErr: "JSON parse error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateResultsJSON([]byte(tt.body))
			if tt.wantErr == "" {
				require.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			require.Contains(t, strings.Join(errs, "\n"), tt.wantErr)
		})
	}
}
