package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/dashboard"
)

func newIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index [dir]",
		Short: "Rebuild the dashboard index of a results directory",
		Long: `Scan a results directory for moral_foundations_results_*.json files and write
index.json, newest first. Files that cannot be read are skipped with a warning.

The directory defaults to paths.results from .mfqbench.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resultsDirArg(args)
			if err != nil {
				return err
			}

			entries, err := dashboard.RebuildIndex(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated dashboard index with %d reports\n", len(entries))
			return nil
		},
	}
}

// resultsDirArg returns the first argument or the project's results directory.
func resultsDirArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	pc, err := loadProjectConfig()
	if err != nil {
		return "", err
	}
	return pc.Paths.Results, nil
}
