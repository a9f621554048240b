package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/reporting"
)

var compareOutputFormat string

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <results1.json> <results2.json> [results3.json ...]",
		Short: "Compare per-model foundation sums across result files",
		Long: `Compare results from multiple analysis runs side by side.

Loads two or more results JSON files and reports, for every model and foundation,
the sum of valid ratings in each file and the change from the first file to the last.`,
		Args: cobra.MinimumNArgs(2),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")

	return cmd
}

// cellComparison holds one model/foundation sum across result files. A nil entry means
// the file has no record of the model answering that foundation. An answer without a
// valid rating counts as 0.
type cellComparison struct {
	Model      string `json:"model"`
	Foundation string `json:"foundation"`
	Sums       []*int `json:"sums"`
	Delta      *int   `json:"delta"`
}

// cellKey identifies one model/foundation pair.
type cellKey struct {
	model      string
	foundation string
}

// comparedFile is one loaded results file.
type comparedFile struct {
	table    *aggregate.Table
	answered map[cellKey]bool
}

// comparisonReport is the full comparison output.
type comparisonReport struct {
	Files      []string         `json:"files"`
	Totals     []int            `json:"total_responses"`
	Valid      []int            `json:"valid_responses"`
	ValidRates []float64        `json:"valid_rates"`
	Cells      []cellComparison `json:"cells"`
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table or json", compareOutputFormat)
	}

	files := make([]comparedFile, 0, len(args))
	for _, path := range args {
		results, err := reporting.LoadResults(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		answered := map[cellKey]bool{}
		for _, r := range results {
			answered[cellKey{r.LLM, r.Foundation}] = true
		}
		files = append(files, comparedFile{table: aggregate.Compute(results), answered: answered})
	}

	report := buildComparisonReport(args, files)

	if compareOutputFormat == "json" {
		return printComparisonJSON(cmd.OutOrStdout(), report)
	}
	printComparisonTable(cmd.OutOrStdout(), report)
	return nil
}

func buildComparisonReport(paths []string, files []comparedFile) *comparisonReport {
	report := &comparisonReport{Files: paths}

	modelSet := map[string]bool{}
	foundationSet := map[string]bool{}
	for _, cf := range files {
		t := cf.table
		report.Totals = append(report.Totals, t.Total)
		report.Valid = append(report.Valid, t.Valid)
		rate := 0.0
		if t.Total > 0 {
			rate = float64(t.Valid) / float64(t.Total)
		}
		report.ValidRates = append(report.ValidRates, rate)

		for _, m := range t.Models {
			modelSet[m] = true
		}
		for _, f := range t.Foundations {
			foundationSet[f] = true
		}
	}

	modelNames := keys(modelSet)
	foundations := keys(foundationSet)
	n := len(files)

	for _, m := range modelNames {
		for _, f := range foundations {
			c := cellComparison{Model: m, Foundation: f}
			for _, cf := range files {
				if cf.answered[cellKey{m, f}] {
					v := cf.table.ByModel[m][f]
					c.Sums = append(c.Sums, &v)
				} else {
					c.Sums = append(c.Sums, nil)
				}
			}
			if c.Sums[0] != nil && c.Sums[n-1] != nil {
				d := *c.Sums[n-1] - *c.Sums[0]
				c.Delta = &d
			}
			report.Cells = append(report.Cells, c)
		}
	}

	return report
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func printComparisonTable(out io.Writer, r *comparisonReport) {
	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintln(out, " COMPARISON REPORT")
	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintln(out)

	for i, f := range r.Files {
		fmt.Fprintf(out, "  [%d] %s  (valid %d/%d, %.1f%%)\n", i+1, f, r.Valid[i], r.Totals[i], r.ValidRates[i]*100)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, strings.Repeat("-", 70))
	fmt.Fprintln(out, " SUMS BY LLM AND FOUNDATION")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	fmt.Fprintf(out, "  %s", runewidth.FillRight("LLM / Foundation", 32))
	for i := range r.Files {
		fmt.Fprintf(out, "  %-5s", fmt.Sprintf("[%d]", i+1))
	}
	fmt.Fprintln(out, "  Delta")

	for _, c := range r.Cells {
		label := runewidth.Truncate(c.Model+" / "+reporting.ShortFoundation(c.Foundation), 32, "...")
		fmt.Fprintf(out, "  %s", runewidth.FillRight(label, 32))
		for _, s := range c.Sums {
			if s == nil {
				fmt.Fprintf(out, "  %-5s", "n/a")
			} else {
				fmt.Fprintf(out, "  %-5d", *s)
			}
		}

		switch {
		case c.Delta == nil:
			fmt.Fprintln(out, "   n/a")
		case *c.Delta > 0:
			fmt.Fprintf(out, "  ↑%+d\n", *c.Delta)
		case *c.Delta < 0:
			fmt.Fprintf(out, "  ↓%+d\n", *c.Delta)
		default:
			fmt.Fprintf(out, "   %+d\n", *c.Delta)
		}
	}
	fmt.Fprintln(out)
}

func printComparisonJSON(out io.Writer, r *comparisonReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
