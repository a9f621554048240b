package config

import (
	"testing"
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

func TestNewAnalysisConfig_DefaultValues(t *testing.T) {
	cfg := NewAnalysisConfig(nil)

	if cfg.Spec() != nil {
		t.Fatalf("Spec() = %v, want nil", cfg.Spec())
	}
	if cfg.OutputDir() != "" {
		t.Fatalf("OutputDir() = %q, want empty", cfg.OutputDir())
	}
	if cfg.Verbose() {
		t.Fatalf("Verbose() = true, want false")
	}
	if cfg.Limit() != 0 {
		t.Fatalf("Limit() = %d, want 0", cfg.Limit())
	}
	if cfg.Concurrent() {
		t.Fatalf("Concurrent() = true, want false")
	}
	if cfg.Workers() != 1 {
		t.Fatalf("Workers() = %d, want 1", cfg.Workers())
	}
	if cfg.Timeout() != 0 {
		t.Fatalf("Timeout() = %s, want 0", cfg.Timeout())
	}
}

func TestNewAnalysisConfig_SeedsFromSpec(t *testing.T) {
	spec := &models.AnalysisSpec{
		OutputDir: "results",
		Config: models.Config{
			Concurrent: true,
			Workers:    6,
			Limit:      5,
			TimeoutSec: 30,
			Cache:      true,
		},
	}

	cfg := NewAnalysisConfig(spec)

	if cfg.Spec() != spec {
		t.Fatalf("Spec() = %p, want %p", cfg.Spec(), spec)
	}
	if cfg.OutputDir() != "results" {
		t.Fatalf("OutputDir() = %q, want %q", cfg.OutputDir(), "results")
	}
	if !cfg.Concurrent() || cfg.Workers() != 6 || cfg.Limit() != 5 || !cfg.CacheEnabled() {
		t.Fatalf("config not seeded from spec: %+v", cfg)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("Timeout() = %s, want 30s", cfg.Timeout())
	}
}

func TestNewAnalysisConfig_AppliesFunctionalOptions(t *testing.T) {
	spec := &models.AnalysisSpec{Config: models.Config{Limit: 5, Workers: 2}}

	cfg := NewAnalysisConfig(
		spec,
		WithSpecDir("/tmp/specs"),
		WithOutputDir("/tmp/out"),
		WithVerbose(true),
		WithLimit(10),
		WithConcurrent(true),
		WithWorkers(8),
		WithTimeout(time.Minute),
		WithCache(true),
		WithModels("gpt-4", "claude-sonnet-4"),
	)

	if cfg.SpecDir() != "/tmp/specs" {
		t.Fatalf("SpecDir() = %q, want %q", cfg.SpecDir(), "/tmp/specs")
	}
	if cfg.OutputDir() != "/tmp/out" {
		t.Fatalf("OutputDir() = %q, want %q", cfg.OutputDir(), "/tmp/out")
	}
	if !cfg.Verbose() {
		t.Fatalf("Verbose() = false, want true")
	}
	if cfg.Limit() != 10 {
		t.Fatalf("Limit() = %d, want 10", cfg.Limit())
	}
	if !cfg.Concurrent() {
		t.Fatalf("Concurrent() = false, want true")
	}
	if cfg.Workers() != 8 {
		t.Fatalf("Workers() = %d, want 8", cfg.Workers())
	}
	if cfg.Timeout() != time.Minute {
		t.Fatalf("Timeout() = %s, want 1m", cfg.Timeout())
	}
	if !cfg.CacheEnabled() {
		t.Fatalf("CacheEnabled() = false, want true")
	}
	if got := cfg.Models(); len(got) != 2 || got[0] != "gpt-4" {
		t.Fatalf("Models() = %v", got)
	}
}

func TestOptionOrder_LastOptionWins(t *testing.T) {
	cfg := NewAnalysisConfig(
		nil,
		WithVerbose(true),
		WithVerbose(false),
		WithLimit(5),
		WithLimit(0),
	)

	if cfg.Verbose() {
		t.Fatalf("Verbose() = true, want false")
	}
	if cfg.Limit() != 0 {
		t.Fatalf("Limit() = %d, want 0", cfg.Limit())
	}
}
