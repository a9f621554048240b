// Package scoring turns a free-text model reply into a 0-5 Likert rating.
package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spboyer/mfqbench/internal/models"
)

// Rule names the extraction pattern that produced a rating.
type Rule string

const (
	RuleBareDigit   Rule = "bare_digit"
	RuleRatingLabel Rule = "rating_label"
	RuleScoreLabel  Rule = "score_label"
	RuleValueLabel  Rule = "value_label"
	RuleNone        Rule = "none"
)

// MinRating and MaxRating bound a valid rating.
const (
	MinRating = 0
	MaxRating = 5
)

type extractor struct {
	rule Rule
	re   *regexp.Regexp
}

// RE2's \b and \s are ASCII only. Word characters are Unicode letters, numbers and '_',
// and separators are every Unicode space, so "é3" has no bare digit and a no-break space
// may follow a label.
const (
	wordChar = `\p{L}\p{N}_`
	sepChars = `:\s\v\x{1c}-\x{1f}\x{85}\p{Z}`
)

// Patterns are tried in this order and the first match wins. A bare digit takes priority
// over a labelled rating, so "3, though my rating: 5" scores 3. Result files already on disk
// depend on this order.
var extractors = []extractor{
	{RuleBareDigit, regexp.MustCompile(`(?:^|[^` + wordChar + `])([0-5])(?:[^` + wordChar + `]|$)`)},
	{RuleRatingLabel, regexp.MustCompile(`rating[` + sepChars + `]+([0-5])`)},
	{RuleScoreLabel, regexp.MustCompile(`score[` + sepChars + `]+([0-5])`)},
	{RuleValueLabel, regexp.MustCompile(`value[` + sepChars + `]+([0-5])`)},
}

// Extraction is the outcome of scoring one response.
type Extraction struct {
	Value int  `json:"value"`
	Rule  Rule `json:"rule"`
}

// Valid reports whether a rating was found.
func (e Extraction) Valid() bool {
	return e.Value >= MinRating
}

// ExtractRating returns the rating found in text, or models.Unparseable.
func ExtractRating(text string) int {
	return Explain(text).Value
}

// Explain is ExtractRating that also reports which rule fired.
func Explain(text string) Extraction {
	lower := strings.ToLower(text)

	for _, ex := range extractors {
		m := ex.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		v, err := strconv.Atoi(m[1])
		if err != nil || v < MinRating || v > MaxRating {
			continue
		}

		return Extraction{Value: v, Rule: ex.rule}
	}

	return Extraction{Value: models.Unparseable, Rule: RuleNone}
}
