package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spboyer/mfqbench/internal/models"
)

// Column names of the questionnaire CSV.
const (
	ColumnQuestion = "Question"
	ColumnPart     = "Part"
	ColumnMoral    = "Moral"
	ColumnOutputs  = "Outputs"
)

// LoadQuestions reads the questionnaire CSV. Question text has embedded newlines replaced
// by spaces and is trimmed. Rows keep file order.
func LoadQuestions(path string) ([]models.Question, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 {
		for _, col := range []string{ColumnQuestion, ColumnPart, ColumnMoral} {
			if _, ok := rows[0][col]; !ok {
				return nil, fmt.Errorf("csv: %s is missing required column %q", path, col)
			}
		}
	}

	questions := make([]models.Question, 0, len(rows))

	for i, row := range rows {
		// header is line 1
		line := i + 2

		n, err := strconv.Atoi(strings.TrimSpace(row[ColumnPart]))
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: invalid part %q: %w", line, row[ColumnPart], err)
		}

		part, err := models.ParsePart(n)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", line, err)
		}

		questions = append(questions, models.Question{
			Text:           strings.TrimSpace(strings.ReplaceAll(row[ColumnQuestion], "\n", " ")),
			Part:           part,
			Foundation:     row[ColumnMoral],
			ExpectedOutput: row[ColumnOutputs],
		})
	}

	return questions, nil
}

// Limit returns the first n questions. n <= 0 means all of them.
func Limit(questions []models.Question, n int) []models.Question {
	if n <= 0 || n >= len(questions) {
		return questions
	}
	return questions[:n]
}
