package scoring

import (
	"testing"

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractRating(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		rule Rule
	}{
		{name: "bare digit", text: "4", want: 4, rule: RuleBareDigit},
		{name: "zero is a rating", text: "0", want: 0, rule: RuleBareDigit},
		{name: "digit in a sentence", text: "I would rate this a 3 overall.", want: 3, rule: RuleBareDigit},
		{name: "leftmost bare digit wins", text: "Somewhere between 2 and 4.", want: 2, rule: RuleBareDigit},
		{name: "digit followed by punctuation", text: "5.", want: 5, rule: RuleBareDigit},
		{name: "fraction", text: "Rating: 4/5", want: 4, rule: RuleBareDigit},
		{name: "bare digit shadows labelled rating", text: "I'd say 3, though my rating: 5", want: 3, rule: RuleBareDigit},
		{name: "rating label", text: "RATING:5x", want: 5, rule: RuleRatingLabel},
		{name: "score label", text: "score 3rd", want: 3, rule: RuleScoreLabel},
		{name: "value label", text: "value: 2a", want: 2, rule: RuleValueLabel},
		{name: "empty", text: "", want: models.Unparseable, rule: RuleNone},
		{name: "two digit number", text: "42", want: models.Unparseable, rule: RuleNone},
		{name: "out of range digit", text: "9", want: models.Unparseable, rule: RuleNone},
		{name: "ten", text: "10", want: models.Unparseable, rule: RuleNone},
		{name: "no digits", text: "It depends on the context.", want: models.Unparseable, rule: RuleNone},
		{name: "label without digit", text: "My rating is moderate", want: models.Unparseable, rule: RuleNone},
		{name: "error response", text: "ERROR: connection refused", want: models.Unparseable, rule: RuleNone},
		{name: "accented letter before digit", text: "é3", want: models.Unparseable, rule: RuleNone},
		{name: "accented letter after digit", text: "3é", want: models.Unparseable, rule: RuleNone},
		{name: "non-latin digit before digit", text: "٣3", want: models.Unparseable, rule: RuleNone},
		{name: "no-break space around digit", text: "rated\u00a04\u00a0overall", want: 4, rule: RuleBareDigit},
		{name: "no-break space after label", text: "rating:\u00a05x", want: 5, rule: RuleRatingLabel},
		{name: "em space after label", text: "score\u2003 4th", want: 4, rule: RuleScoreLabel},
		{name: "vertical tab after label", text: "value\v1a", want: 1, rule: RuleValueLabel},
		{name: "leftmost digit after separator", text: "a3 then 2 and 4", want: 2, rule: RuleBareDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRating(tt.text))

			got := Explain(tt.text)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.want >= 0, got.Valid())
		})
	}
}

func TestExtractRating_Range(t *testing.T) {
	inputs := []string{
		"", "0", "1", "5", "6", "99", "score: 7", "rating: 5", "-1", "3.5", "value 0",
		"Strongly agree (5)", "n/a", "1 2 3 4 5 6 7 8 9",
	}

	for _, in := range inputs {
		v := ExtractRating(in)
		assert.True(t, v == models.Unparseable || (v >= MinRating && v <= MaxRating), "input %q gave %d", in, v)
	}
}
