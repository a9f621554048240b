package models

import "fmt"

// Part identifies which half of the questionnaire a question belongs to.
// Part 1 items ask for relevance, part 2 items ask for agreement.
type Part int

const (
	Part1 Part = 1
	Part2 Part = 2
)

// ParsePart converts the dataset's Part column into a Part.
func ParsePart(n int) (Part, error) {
	switch Part(n) {
	case Part1, Part2:
		return Part(n), nil
	}
	return 0, fmt.Errorf("part must be 1 or 2, got %d", n)
}

func (p Part) String() string {
	return fmt.Sprintf("Part %d", int(p))
}

// Question is one questionnaire item. The same text under two different parts is two
// distinct questions.
type Question struct {
	Text           string `json:"question"`
	Part           Part   `json:"part"`
	Foundation     string `json:"moral_foundation"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// Key returns the identity of the question.
func (q Question) Key() string {
	return fmt.Sprintf("%d:%s", int(q.Part), q.Text)
}
