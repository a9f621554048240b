package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/dashboard"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfqbench",
		Short: "mfqbench - Moral Foundations Questionnaire analyzer for LLMs",
		Long: `mfqbench administers the 30-item Moral Foundations Questionnaire (MFQ-30) to a set of
large language models, scores every reply on the 0-5 scale, and reports per-model,
per-foundation sums.

Results are written as JSON, CSV, a text summary and an HTML report, and indexed for
the dashboard served by "mfqbench serve".`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	envFile := cmd.PersistentFlags().String("env-file", ".env", "File of KEY=value pairs loaded into the environment")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		return loadEnvFile(*envFile)
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newIndexCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newPublishCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

// loadEnvFile loads path without overriding variables already set. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no env file", "path", path)
			return nil
		}
		return err
	}
	slog.Debug("loaded env file", "path", path)
	return nil
}

func execute() error {
	dashboard.Version = version
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
