package reporting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/scoring"
	"github.com/spboyer/mfqbench/internal/validation"
)

// ErrInvalidRating is returned when a stored extracted_value is neither 0-5 nor -1.
var ErrInvalidRating = errors.New("invalid extracted_value")

// WriteJSON writes results as an indented JSON array. Non-ASCII text and HTML characters are
// kept as-is so responses stay readable in the file.
func WriteJSON(w io.Writer, results []models.QueryResult) error {
	if results == nil {
		results = []models.QueryResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// ReadJSON decodes a results array written by WriteJSON or by older versions of the tool.
// Records whose extracted_value is outside 0-5 and not models.Unparseable are rejected.
func ReadJSON(r io.Reader) ([]models.QueryResult, error) {
	var results []models.QueryResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding results: %w", err)
	}
	for i, res := range results {
		v := res.ExtractedValue
		if v != models.Unparseable && (v < scoring.MinRating || v > scoring.MaxRating) {
			return nil, fmt.Errorf("record %d (%s): %w %d", i, res.LLM, ErrInvalidRating, v)
		}
	}
	return results, nil
}

// LoadResults reads a results file from disk. The file is checked against the results
// schema first, and violations come back as a *validation.SchemaError.
func LoadResults(path string) ([]models.QueryResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if issues := validation.ValidateResultsJSON(data); len(issues) > 0 {
		return nil, &validation.SchemaError{Path: path, Issues: issues}
	}

	results, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}
