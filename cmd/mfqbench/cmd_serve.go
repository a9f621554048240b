package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/spboyer/mfqbench/internal/webserver"
)

var (
	servePort       int
	serveResultsDir string
	serveNoBrowser  bool
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the results dashboard",
		Long: `Start an HTTP server on 127.0.0.1 that serves the results dashboard.

The dashboard lists every indexed results file and shows per-model foundation sums.
Result artifacts (HTML reports, CSV, JSON) are served from the results directory.

API endpoints:
  GET  /api/health          Health check
  GET  /api/summary         Totals across all reports
  GET  /api/reports         Index entries, newest first
  GET  /api/reports/{name}  Aggregate table for one results file
  POST /api/reports/reload  Rescan the directory and rewrite index.json`,
		Args: cobra.NoArgs,
		RunE: serveCommandE,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from .mfqbench.yaml or 3000)")
	cmd.Flags().StringVar(&serveResultsDir, "results-dir", "", "Directory of result files to serve")
	cmd.Flags().BoolVar(&serveNoBrowser, "no-browser", false, "Do not open a browser")

	return cmd
}

func serveCommandE(cmd *cobra.Command, _ []string) error {
	pc, err := loadProjectConfig()
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port = pc.Server.Port
	}
	dir := serveResultsDir
	if dir == "" {
		dir = pc.Server.ResultsDir
	}

	srv, err := webserver.New(webserver.Config{
		Port:       port,
		ResultsDir: dir,
		NoBrowser:  serveNoBrowser,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return srv.ListenAndServe(ctx)
}
