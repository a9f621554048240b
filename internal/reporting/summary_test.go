package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2025, 6, 15, 14, 5, 9, 0, time.Local)
	require.NoError(t, WriteSummary(&buf, sampleResults(), generated))

	rule := strings.Repeat("=", 80)
	dash := strings.Repeat("-", 80)
	want := rule + "\n" +
		"MORAL FOUNDATIONS LLM ANALYSIS SUMMARY\n" +
		rule + "\n\n" +
		"Analysis Date: 2025-06-15 14:05:09\n" +
		"Total Responses: 6\n" +
		"LLMs Tested: gpt-4, claude-sonnet-4\n" +
		"Questions Analyzed: 3\n\n" +
		dash + "\n" +
		"SUM OF SCORES BY LLM AND MORAL FOUNDATION\n" +
		dash + "\n\n" +
		"\nclaude-sonnet-4:\n" +
		"  Valid responses: 2/3\n" +
		"  Harm-Care: 7\n" +
		"\ngpt-4:\n" +
		"  Valid responses: 2/3\n" +
		"  Fairness-Reciprocity: 3\n" +
		"  Harm-Care: 4\n"

	assert.Equal(t, want, buf.String())
}

func TestWriteSummary_ModelWithoutValidRatings(t *testing.T) {
	results := []models.QueryResult{
		result("A", qSuffer, models.Part1, "Harm-Care", "4", 4),
		result("B", qSuffer, models.Part1, "Harm-Care", "ERROR: timeout", models.Unparseable),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, results, testTime))

	out := buf.String()
	assert.Contains(t, out, "\nB:\n  Valid responses: 0/1\n")
	assert.NotContains(t, out, "B:\n  Valid responses: 0/1\n  Harm-Care")
}
