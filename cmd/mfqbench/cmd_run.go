package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/cache"
	"github.com/spboyer/mfqbench/internal/config"
	"github.com/spboyer/mfqbench/internal/dashboard"
	"github.com/spboyer/mfqbench/internal/llm"
	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/orchestration"
	"github.com/spboyer/mfqbench/internal/projectconfig"
	"github.com/spboyer/mfqbench/internal/prompt"
	"github.com/spboyer/mfqbench/internal/reporting"
	"github.com/spboyer/mfqbench/internal/store"
)

var (
	limit             int
	parallel          bool
	workers           int
	outputDir         string
	enableCache       bool
	runCacheDir       string
	historyDB         string
	modelFilters      []string
	foundationFilters []string
	datasetPath       string
	verbose           bool
	noHTML            bool
	junit             bool
	assumeYes         bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [analysis.yaml]",
		Short: "Administer the questionnaire to every configured model",
		Long: `Administer the Moral Foundations Questionnaire to every configured model.

Each model answers every question once. Replies are scored on the 0-5 scale; replies
without a rating and backend failures are recorded with value -1. After the run the
JSON, CSV, summary and HTML artifacts are written to the output directory and the
dashboard index is rebuilt.

Without a spec file the project's spec (paths.spec in .mfqbench.yaml) is used when it
exists, and otherwise the default backends gpt-4, gpt-3.5-turbo, claude-sonnet-4 and
gemini-2.5-pro, each enabled when its API key is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Ask only the first N questions (0 = all)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Query models concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent queries (default: 4, requires --parallel)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for result artifacts")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Replay identical prompts from the response cache")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Cache directory (default from .mfqbench.yaml or .mfqbench-cache)")
	cmd.Flags().StringVar(&historyDB, "db", "", "SQLite file to record the run in")
	cmd.Flags().StringArrayVar(&modelFilters, "model", nil, "Only query this backend (can be repeated)")
	cmd.Flags().StringArrayVar(&foundationFilters, "foundation", nil, "Only ask questions whose foundation matches this glob (can be repeated)")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Questionnaire CSV (overrides analysis.yaml)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every prompt reply as it arrives")
	cmd.Flags().BoolVar(&noHTML, "no-html", false, "Skip the HTML report")
	cmd.Flags().BoolVar(&junit, "junit", false, "Also write a JUnit XML report")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask how many questions to run")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	pc, err := loadProjectConfig()
	if err != nil {
		return err
	}

	var specArg string
	if len(args) == 1 {
		specArg = args[0]
	}
	spec, specDir, err := resolveSpec(specArg, pc)
	if err != nil {
		return err
	}
	if datasetPath != "" {
		spec.Dataset = datasetPath
	}
	if len(spec.Backends) == 0 {
		spec.Backends = models.DefaultAnalysisSpec().Backends
	}

	opts := []config.Option{
		config.WithSpecDir(specDir),
		config.WithModels(modelFilters...),
	}
	if outputDir != "" {
		opts = append(opts, config.WithOutputDir(outputDir))
	}
	if parallel {
		opts = append(opts, config.WithConcurrent(true))
	}
	if workers > 0 {
		opts = append(opts, config.WithWorkers(workers))
	}
	if enableCache {
		opts = append(opts, config.WithCache(true))
	}
	if verbose || (pc.Defaults.Verbose != nil && *pc.Defaults.Verbose) {
		opts = append(opts, config.WithVerbose(true))
	}

	specLimit := spec.Config.Limit
	if specLimit == 0 {
		specLimit = pc.Defaults.Limit
	}
	questionLimit, err := chooseLimit(cmd, specLimit)
	if err != nil {
		return err
	}
	opts = append(opts, config.WithLimit(questionLimit))

	cfg := config.NewAnalysisConfig(spec, opts...)

	composer, err := prompt.Load(spec.Prompts.Part1, spec.Prompts.Part2)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry, err := llm.NewRegistry(ctx, spec.Backends, llm.WithTimeout(cfg.Timeout()))
	if err != nil {
		return err
	}
	defer registry.Close() //nolint:errcheck

	var runnerOpts []orchestration.RunnerOption
	if len(foundationFilters) > 0 {
		runnerOpts = append(runnerOpts, orchestration.WithFoundationFilters(foundationFilters...))
	}
	if cfg.CacheEnabled() {
		dir := runCacheDir
		if dir == "" {
			dir = pc.Cache.Dir
		}
		absCacheDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		runnerOpts = append(runnerOpts, orchestration.WithCache(cache.New(absCacheDir)))
		if cfg.Verbose() {
			fmt.Fprintf(out, "Cache enabled: %s\n", absCacheDir)
		}
	}

	runner := orchestration.NewRunner(cfg, composer, registry, runnerOpts...)
	progress := newProgressReporter(out, cfg.Verbose(), isTerminal(out))
	runner.OnProgress(progress.handle)

	printBanner(out, spec, cfg, registry)

	run, err := runner.Run(ctx)
	progress.stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if run.Interrupted {
		fmt.Fprintf(out, "\nInterrupted: %d of %d queries were attempted.\n", len(run.Results), run.Questions*len(run.Models))
	}

	if len(run.Results) == 0 {
		return fmt.Errorf("no queries were attempted")
	}

	table := run.Table()
	printScoreTable(out, table)

	artifacts := reporting.NewArtifacts(cfg.OutputDir(), run.Finished)
	written, err := artifacts.Write(run.Results, reporting.WriteOptions{
		Name:      spec.Name,
		Generated: run.Finished,
		SkipHTML:  noHTML,
		JUnit:     junit,
	})
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	fmt.Fprintln(out)
	for _, p := range written {
		fmt.Fprintf(out, "✓ Saved %s\n", p)
	}

	entries, err := dashboard.RebuildIndex(cfg.OutputDir())
	if err != nil {
		return fmt.Errorf("updating dashboard index: %w", err)
	}
	fmt.Fprintf(out, "✓ Updated dashboard index with %d reports\n", len(entries))

	if db := historyPath(pc); db != "" {
		if err := recordHistory(db, run); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Recorded run %s in %s\n", run.ID, db)
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, reporting.FormatInterpretation(table))

	fmt.Fprintf(out, "\n%s\nAnalysis complete!\n%s\n", strings.Repeat("=", 80), strings.Repeat("=", 80))

	if table.Valid == 0 {
		return &NoValidResponsesError{
			Message: fmt.Sprintf("analysis completed but none of %d responses carried a rating", table.Total),
		}
	}
	return nil
}

func historyPath(pc *projectconfig.ProjectConfig) string {
	if historyDB != "" {
		return historyDB
	}
	return pc.Paths.History
}

func recordHistory(path string, run *orchestration.Run) error {
	h, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer h.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

func printBanner(out io.Writer, spec *models.AnalysisSpec, cfg *config.AnalysisConfig, registry *llm.Registry) {
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, "MORAL FOUNDATIONS LLM ANALYZER")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Run: %s\n", spec.Name)
	fmt.Fprintf(out, "Dataset: %s\n", spec.Dataset)

	names := registry.Names()
	if m := cfg.Models(); len(m) > 0 {
		names = m
	}
	fmt.Fprintf(out, "LLMs: %s\n", strings.Join(names, ", "))
	if cfg.Limit() > 0 {
		fmt.Fprintf(out, "Limit: first %d questions\n", cfg.Limit())
	}
	if cfg.Concurrent() {
		fmt.Fprintf(out, "Parallel: %d workers\n", cfg.Workers())
	}
	fmt.Fprintln(out)
}
