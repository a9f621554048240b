package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/cache"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long: `Manage the response cache.

The cache stores model replies so repeated runs with identical prompts replay them
instead of querying the backend. Entries are keyed by backend, model, temperature
and the composed prompt. Only successful replies are cached.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the response cache",
		Long: `Clear all cached model replies.

The next run with --cache will query every backend again.`,
		RunE: cacheClearE,
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default from .mfqbench.yaml or .mfqbench-cache)")

	return cmd
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	dir := cacheDir
	if dir == "" {
		pc, err := loadProjectConfig()
		if err != nil {
			return err
		}
		dir = pc.Cache.Dir
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	n := c.Len()
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s (%d entries)\n", absDir, n)
	return nil
}
