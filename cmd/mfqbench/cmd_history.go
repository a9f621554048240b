package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/reporting"
	"github.com/spboyer/mfqbench/internal/store"
)

var (
	historyDBPath string
	historyJSON   bool
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Long: `List the runs recorded with "mfqbench run --db", most recent first.

With a run id, print that run's summary and interpretation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: historyCommandE,
	}

	cmd.Flags().StringVar(&historyDBPath, "db", "", "SQLite history file (default from .mfqbench.yaml)")
	cmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON")

	return cmd
}

func historyCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := historyDBPath
	if path == "" {
		pc, err := loadProjectConfig()
		if err != nil {
			return err
		}
		path = pc.Paths.History
	}
	if path == "" {
		return fmt.Errorf("no history database: pass --db or set paths.history in .mfqbench.yaml")
	}

	h, err := store.Open(path)
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck

	ctx := context.Background()

	if len(args) == 1 {
		results, err := h.Results(ctx, args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		if historyJSON {
			return reporting.WriteJSON(out, results)
		}
		if err := reporting.WriteSummary(out, results, time.Now()); err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, reporting.FormatInterpretation(aggregate.Compute(results)))
		return nil
	}

	runs, err := h.ListRuns(ctx)
	if err != nil {
		return err
	}
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []store.RunRecord{}
		}
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-19s  %-12s  %s\n", "ID", "Started", "Valid", "Models")
	for _, r := range runs {
		valid := fmt.Sprintf("%d/%d", r.Valid, r.Total)
		if r.Interrupted {
			valid += "*"
		}
		fmt.Fprintf(out, "%-36s  %-19s  %-12s  %s\n", r.ID, r.Started.Local().Format(time.DateTime), valid, strings.Join(r.Models, ", "))
	}
	return nil
}
