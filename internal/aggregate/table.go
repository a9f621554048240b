// Package aggregate sums extracted ratings per model and moral foundation.
package aggregate

import (
	"slices"

	"github.com/spboyer/mfqbench/internal/models"
)

// Filter selects which records take part in an aggregation.
type Filter func(models.QueryResult) bool

// OnlyValid keeps records that carry a rating. Compute already excludes unparseable
// records from every sum, so this mainly narrows the Total counts.
func OnlyValid(r models.QueryResult) bool {
	return r.Valid()
}

// ForModels keeps records produced by one of the named models.
func ForModels(names ...string) Filter {
	return func(r models.QueryResult) bool {
		return slices.Contains(names, r.LLM)
	}
}

// ForPart keeps records from one questionnaire part.
func ForPart(p models.Part) Filter {
	return func(r models.QueryResult) bool {
		return r.Part == p
	}
}

// Table is the per-model, per-foundation view of a result set.
type Table struct {
	// Models lists every model seen, sorted.
	Models []string `json:"models"`
	// Foundations lists every foundation with at least one valid rating, sorted.
	Foundations []string `json:"foundations"`

	// ByModel holds a cell for every model and foundation pair, 0 when no valid rating exists.
	ByModel       map[string]map[string]int     `json:"by_model"`
	ByFoundation  map[string]int                `json:"by_foundation"`
	MeanByModel   map[string]map[string]float64 `json:"mean_by_model"`
	StdDevByModel map[string]map[string]float64 `json:"stddev_by_model"`

	// IntervalByModel holds a bootstrap interval around each mean in MeanByModel.
	IntervalByModel map[string]map[string]Interval `json:"interval_by_model"`

	Total        int            `json:"total_responses"`
	Valid        int            `json:"valid_responses"`
	TotalByModel map[string]int `json:"total_by_model"`
	ValidByModel map[string]int `json:"valid_by_model"`
	Questions    int            `json:"question_count"`
}

// Compute aggregates results. A record takes part only when every filter accepts it.
// Unparseable records are counted in the totals but never summed. The input is not
// modified and its order does not affect the output.
func Compute(results []models.QueryResult, filters ...Filter) *Table {
	t := &Table{
		ByModel:       map[string]map[string]int{},
		ByFoundation:  map[string]int{},
		MeanByModel:   map[string]map[string]float64{},
		StdDevByModel: map[string]map[string]float64{},
		TotalByModel:  map[string]int{},
		ValidByModel:  map[string]int{},

		IntervalByModel: map[string]map[string]Interval{},
	}

	ratings := map[string]map[string][]float64{}
	foundations := map[string]bool{}
	questions := map[string]bool{}

outer:
	for _, r := range results {
		for _, f := range filters {
			if !f(r) {
				continue outer
			}
		}

		t.Total++
		t.TotalByModel[r.LLM]++
		questions[r.Question] = true

		if _, ok := ratings[r.LLM]; !ok {
			ratings[r.LLM] = map[string][]float64{}
		}

		if !r.Valid() {
			continue
		}

		t.Valid++
		t.ValidByModel[r.LLM]++
		t.ByFoundation[r.Foundation] += r.ExtractedValue
		foundations[r.Foundation] = true
		ratings[r.LLM][r.Foundation] = append(ratings[r.LLM][r.Foundation], float64(r.ExtractedValue))
	}

	t.Questions = len(questions)
	t.Models = sortedKeys(ratings)
	t.Foundations = sortedKeys(foundations)

	for _, m := range t.Models {
		sums := make(map[string]int, len(t.Foundations))
		means := make(map[string]float64, len(t.Foundations))
		stddevs := make(map[string]float64, len(t.Foundations))
		intervals := make(map[string]Interval, len(t.Foundations))

		for _, f := range t.Foundations {
			values := ratings[m][f]
			// fixed order keeps float results stable under input shuffling
			slices.Sort(values)

			sum := 0
			for _, v := range values {
				sum += int(v)
			}

			sums[f] = sum
			means[f] = Mean(values)
			stddevs[f] = StdDev(values)
			intervals[f] = BootstrapInterval(values, IntervalLevel, 1)
		}

		t.ByModel[m] = sums
		t.MeanByModel[m] = means
		t.StdDevByModel[m] = stddevs
		t.IntervalByModel[m] = intervals
	}

	return t
}

// Sum returns the total of all valid ratings given by a model.
func (t *Table) Sum(model string) int {
	total := 0
	for _, v := range t.ByModel[model] {
		total += v
	}
	return total
}

// ValidRate returns the fraction of a model's responses that carried a rating.
func (t *Table) ValidRate(model string) float64 {
	n := t.TotalByModel[model]
	if n == 0 {
		return 0
	}
	return float64(t.ValidByModel[model]) / float64(n)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
