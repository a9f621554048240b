package orchestration

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spboyer/mfqbench/internal/models"
)

// FilterQuestions returns the questions whose moral foundation matches at least one of the
// given glob patterns, case-insensitively. An empty patterns slice returns all questions
// unchanged.
func FilterQuestions(questions []models.Question, patterns []string) ([]models.Question, error) {
	if len(patterns) == 0 {
		return questions, nil
	}

	var matched []models.Question
	for _, q := range questions {
		ok, err := matchesAny(q, patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, q)
		}
	}
	return matched, nil
}

func matchesAny(q models.Question, patterns []string) (bool, error) {
	foundation := strings.ToLower(q.Foundation)
	for _, p := range patterns {
		ok, err := filepath.Match(strings.ToLower(p), foundation)
		if err != nil {
			return false, fmt.Errorf("invalid foundation filter pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
