// Package webserver serves the results dashboard and its REST API.
package webserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spboyer/mfqbench/internal/dashboard"
	"github.com/spboyer/mfqbench/internal/projectconfig"
)

// Config holds the dashboard server configuration.
type Config struct {
	Port int
	// ResultsDir holds the moral_foundations_results_*.json files and index.json.
	ResultsDir string
	NoBrowser  bool
	Logger     *slog.Logger
	// Out receives the startup banner. Defaults to os.Stdout.
	Out io.Writer
}

// Server serves one results directory.
type Server struct {
	cfg    Config
	srv    *http.Server
	store  *dashboard.FileStore
	logger *slog.Logger
}

// New validates cfg and builds a server over cfg.ResultsDir. Nothing is read from disk
// until the first request or Refresh.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Port == 0 {
		cfg.Port = projectconfig.DefaultServerPort
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "."
	}

	mux := http.NewServeMux()
	s := &Server{
		cfg:    cfg,
		store:  dashboard.NewFileStore(cfg.ResultsDir),
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	registerRoutes(mux, s.store, cfg.ResultsDir)
	return s, nil
}

// Refresh rescans the results directory, rewrites index.json and returns the number of
// indexed reports. A missing directory yields zero reports.
func (s *Server) Refresh() (int, error) {
	if err := s.store.Reload(); err != nil {
		return 0, fmt.Errorf("rebuilding index for %s: %w", s.cfg.ResultsDir, err)
	}
	entries, err := s.store.ListReports()
	if err != nil {
		return 0, err
	}
	s.logger.Info("dashboard index rebuilt", "results_dir", s.cfg.ResultsDir, "reports", len(entries))
	return len(entries), nil
}

// ListenAndServe refreshes the index, starts the HTTP server and optionally opens a
// browser. It returns once ctx is cancelled and the server has shut down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	n, err := s.Refresh()
	if err != nil {
		s.logger.Warn("serving without a fresh index", "error", err)
	}

	url := fmt.Sprintf("http://localhost:%d", s.cfg.Port)
	s.logger.Info("dashboard starting", "address", s.srv.Addr, "url", url)
	fmt.Fprintf(s.cfg.Out, "mfqbench dashboard: %s (%d reports in %s)\n", url, n, s.cfg.ResultsDir)

	if !s.cfg.NoBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := openBrowser(url); err != nil {
				s.logger.Debug("failed to open browser", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("dashboard shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard server: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
