package reporting

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, []string{"llm", "question", "part", "moral_foundation", "response", "extracted_value", "timestamp"}, rows[0])
	assert.Equal(t, []string{"gpt-4", qSuffer, "1", "Harm-Care", "4", "4", "2025-06-15T12:00:00Z"}, rows[1])
	assert.Equal(t, "-1", rows[4][5])
	assert.Equal(t, "2", rows[5][2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "llm,question,part,moral_foundation,response,extracted_value,timestamp\n", buf.String())
}
