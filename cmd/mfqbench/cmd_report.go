package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/reporting"
)

var (
	reportNoHTML bool
	reportJUnit  bool
	reportCSV    bool
	reportPrint  bool
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Regenerate the summary, HTML and JUnit reports from a results file",
		Long: `Regenerate derived artifacts from a saved results file.

The summary and HTML report are written next to the results file using the same
timestamp. Use --junit for a JUnit XML file and --csv to rewrite the CSV export.`,
		Args: cobra.ExactArgs(1),
		RunE: reportCommandE,
	}

	cmd.Flags().BoolVar(&reportNoHTML, "no-html", false, "Skip the HTML report")
	cmd.Flags().BoolVar(&reportJUnit, "junit", false, "Also write a JUnit XML report")
	cmd.Flags().BoolVar(&reportCSV, "csv", false, "Also rewrite the CSV export")
	cmd.Flags().BoolVar(&reportPrint, "print", false, "Print the summary and interpretation to stdout")

	return cmd
}

func reportCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := args[0]

	results, err := reporting.LoadResults(path)
	if err != nil {
		return fmt.Errorf("reading results: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	written, err := reporting.ArtifactsFor(path).Write(results, reporting.WriteOptions{
		Generated: info.ModTime(),
		SkipJSON:  true,
		SkipCSV:   !reportCSV,
		SkipHTML:  reportNoHTML,
		JUnit:     reportJUnit,
	})
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(out, "✓ Saved %s\n", p)
	}

	if reportPrint {
		fmt.Fprintln(out)
		if err := reporting.WriteSummary(out, results, info.ModTime()); err != nil {
			return err
		}
		fmt.Fprintln(out)
		table := aggregate.Compute(results)
		fmt.Fprint(out, reporting.FormatInterpretation(table))
	}
	return nil
}
