// Package prompt builds the chat messages sent to a model for one questionnaire item.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spboyer/mfqbench/internal/models"
)

// Role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrEmptyTemplate is returned when an instruction template has no content.
var ErrEmptyTemplate = errors.New("prompt template is empty")

// Composer pairs each question with the instruction template for its part.
type Composer struct {
	part1 string
	part2 string
}

// NewComposer returns a Composer using part1 for Part 1 questions and part2 for
// everything else.
func NewComposer(part1, part2 string) (*Composer, error) {
	if strings.TrimSpace(part1) == "" {
		return nil, fmt.Errorf("part 1: %w", ErrEmptyTemplate)
	}
	if strings.TrimSpace(part2) == "" {
		return nil, fmt.Errorf("part 2: %w", ErrEmptyTemplate)
	}
	return &Composer{part1: part1, part2: part2}, nil
}

// Load reads both templates from disk, trimming surrounding whitespace.
func Load(part1Path, part2Path string) (*Composer, error) {
	part1, err := readTemplate(part1Path)
	if err != nil {
		return nil, err
	}
	part2, err := readTemplate(part2Path)
	if err != nil {
		return nil, err
	}
	return NewComposer(part1, part2)
}

func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt template: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Compose returns the system instruction followed by the question text verbatim.
func (c *Composer) Compose(q models.Question) []Message {
	return []Message{
		{Role: RoleSystem, Content: c.Instruction(q.Part)},
		{Role: RoleUser, Content: q.Text},
	}
}

// Instruction returns the system template for a part.
func (c *Composer) Instruction(p models.Part) string {
	if p == models.Part1 {
		return c.part1
	}
	return c.part2
}
