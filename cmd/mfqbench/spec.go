package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/projectconfig"
	"github.com/spboyer/mfqbench/internal/validation"
)

// loadProjectConfig loads .mfqbench.yaml from the working directory or a parent.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	pc, err := projectconfig.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return pc, nil
}

// resolveSpec returns the analysis spec and the directory relative paths resolve against.
// An explicit path must exist. Without one the project's spec file is used when present,
// and the built-in default run otherwise.
func resolveSpec(path string, pc *projectconfig.ProjectConfig) (*models.AnalysisSpec, string, error) {
	explicit := path != ""
	if !explicit {
		path = pc.Paths.Spec
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			spec, err := loadSpecFile(path)
			if err != nil {
				return nil, "", err
			}
			if spec.OutputDir == "" {
				spec.OutputDir = resolveAgainst(filepath.Dir(path), pc.Paths.Results)
			}
			if spec.Config.Workers == 0 {
				spec.Config.Workers = pc.Defaults.Workers
			}
			return spec, absDir(filepath.Dir(path)), nil
		} else if explicit {
			return nil, "", fmt.Errorf("failed to load spec: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	spec := models.DefaultAnalysisSpec()
	spec.OutputDir = pc.Paths.Results
	spec.Config.Workers = pc.Defaults.Workers
	spec.Config.TimeoutSec = pc.Defaults.Timeout
	spec.Config.Limit = pc.Defaults.Limit
	if pc.Defaults.Parallel != nil {
		spec.Config.Concurrent = *pc.Defaults.Parallel
	}
	if pc.Cache.Enabled != nil {
		spec.Config.Cache = *pc.Cache.Enabled
	}
	spec.ResolvePaths(wd)
	return spec, wd, nil
}

func loadSpecFile(path string) (*models.AnalysisSpec, error) {
	if err := validation.ValidateAnalysisFile(path); err != nil {
		return nil, err
	}
	spec, err := models.LoadAnalysisSpec(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	return spec, nil
}

func resolveAgainst(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
