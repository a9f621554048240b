package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spboyer/mfqbench/internal/models"
)

var csvHeader = []string{"llm", "question", "part", "moral_foundation", "response", "extracted_value", "timestamp"}

// WriteCSV writes one row per result under a fixed header.
func WriteCSV(w io.Writer, results []models.QueryResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.LLM,
			r.Question,
			strconv.Itoa(int(r.Part)),
			r.Foundation,
			r.Response,
			strconv.Itoa(r.ExtractedValue),
			r.Timestamp.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
