// Package config holds the resolved settings of one analysis run.
package config

import (
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

// AnalysisConfig is built once from the run spec plus command-line overrides and then
// passed to the runner. It is never mutated after construction.
type AnalysisConfig struct {
	spec       *models.AnalysisSpec
	specDir    string
	outputDir  string
	verbose    bool
	limit      int
	concurrent bool
	workers    int
	timeout    time.Duration
	cache      bool
	models     []string
}

// Option configures an AnalysisConfig.
type Option func(*AnalysisConfig)

// NewAnalysisConfig seeds the config from spec and applies opts in order, so later
// options win.
func NewAnalysisConfig(spec *models.AnalysisSpec, opts ...Option) *AnalysisConfig {
	cfg := &AnalysisConfig{spec: spec}

	if spec != nil {
		cfg.outputDir = spec.OutputDir
		cfg.limit = spec.Config.Limit
		cfg.concurrent = spec.Config.Concurrent
		cfg.workers = spec.Config.Workers
		cfg.cache = spec.Config.Cache
		if spec.Config.TimeoutSec > 0 {
			cfg.timeout = time.Duration(spec.Config.TimeoutSec) * time.Second
		}
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func WithSpecDir(dir string) Option {
	return func(c *AnalysisConfig) { c.specDir = dir }
}

func WithOutputDir(dir string) Option {
	return func(c *AnalysisConfig) { c.outputDir = dir }
}

func WithVerbose(v bool) Option {
	return func(c *AnalysisConfig) { c.verbose = v }
}

// WithLimit truncates the question list. Zero or less means all questions.
func WithLimit(n int) Option {
	return func(c *AnalysisConfig) { c.limit = n }
}

func WithConcurrent(v bool) Option {
	return func(c *AnalysisConfig) { c.concurrent = v }
}

func WithWorkers(n int) Option {
	return func(c *AnalysisConfig) { c.workers = n }
}

// WithTimeout bounds each individual query.
func WithTimeout(d time.Duration) Option {
	return func(c *AnalysisConfig) { c.timeout = d }
}

func WithCache(v bool) Option {
	return func(c *AnalysisConfig) { c.cache = v }
}

// WithModels restricts the run to the named backends.
func WithModels(names ...string) Option {
	return func(c *AnalysisConfig) { c.models = names }
}

func (c *AnalysisConfig) Spec() *models.AnalysisSpec { return c.spec }
func (c *AnalysisConfig) SpecDir() string            { return c.specDir }
func (c *AnalysisConfig) OutputDir() string          { return c.outputDir }
func (c *AnalysisConfig) Verbose() bool              { return c.verbose }
func (c *AnalysisConfig) Limit() int                 { return c.limit }
func (c *AnalysisConfig) Concurrent() bool           { return c.concurrent }
func (c *AnalysisConfig) Timeout() time.Duration     { return c.timeout }
func (c *AnalysisConfig) CacheEnabled() bool         { return c.cache }
func (c *AnalysisConfig) Models() []string           { return c.models }

// Workers returns the parallel worker count, at least 1.
func (c *AnalysisConfig) Workers() int {
	if c.workers < 1 {
		return 1
	}
	return c.workers
}
