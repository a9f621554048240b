package reporting

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/models"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// WriteSummary writes the plain-text summary: run totals, then per model the valid response
// count and the sum of ratings for each foundation that model answered.
func WriteSummary(w io.Writer, results []models.QueryResult, generated time.Time) error {
	table := aggregate.Compute(results)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nMORAL FOUNDATIONS LLM ANALYSIS SUMMARY\n%s\n\n", heavyRule, heavyRule)
	fmt.Fprintf(&b, "Analysis Date: %s\n", generated.Format(time.DateTime))
	fmt.Fprintf(&b, "Total Responses: %d\n", table.Total)
	fmt.Fprintf(&b, "LLMs Tested: %s\n", strings.Join(modelsInOrder(results), ", "))
	fmt.Fprintf(&b, "Questions Analyzed: %d\n\n", table.Questions)

	fmt.Fprintf(&b, "%s\nSUM OF SCORES BY LLM AND MORAL FOUNDATION\n%s\n\n", lightRule, lightRule)

	for _, m := range table.Models {
		fmt.Fprintf(&b, "\n%s:\n", m)
		fmt.Fprintf(&b, "  Valid responses: %d/%d\n", table.ValidByModel[m], table.TotalByModel[m])
		for _, f := range answeredFoundations(results, m) {
			fmt.Fprintf(&b, "  %s: %d\n", f, table.ByModel[m][f])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// modelsInOrder lists models in first-seen order.
func modelsInOrder(results []models.QueryResult) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range results {
		if !seen[r.LLM] {
			seen[r.LLM] = true
			out = append(out, r.LLM)
		}
	}
	return out
}

// answeredFoundations lists, sorted, the foundations where model gave at least one valid rating.
func answeredFoundations(results []models.QueryResult, model string) []string {
	var out []string
	for _, r := range results {
		if r.LLM == model && r.Valid() && !slices.Contains(out, r.Foundation) {
			out = append(out, r.Foundation)
		}
	}
	slices.Sort(out)
	return out
}
