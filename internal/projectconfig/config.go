// Package projectconfig provides the ProjectConfig struct and loader for
// .mfqbench.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up from the working directory.
const FileName = ".mfqbench.yaml"

// Default values for project configuration. New() is the only place that applies them.
const (
	DefaultSpecFile   = "analysis.yaml"
	DefaultResultsDir = "results"

	DefaultTimeout = 120
	DefaultWorkers = 4

	DefaultCacheDir = ".mfqbench-cache"

	DefaultServerPort = 3000

	DefaultPublishContainer = "mfq-results"
)

// PathsConfig holds file and directory locations.
type PathsConfig struct {
	Spec    string `yaml:"spec,omitempty"`
	Results string `yaml:"results,omitempty"`
	History string `yaml:"history,omitempty"`
}

// DefaultsConfig holds default run parameters.
type DefaultsConfig struct {
	Timeout  int   `yaml:"timeout,omitempty"`
	Parallel *bool `yaml:"parallel,omitempty"`
	Workers  int   `yaml:"workers,omitempty"`
	Limit    int   `yaml:"limit,omitempty"`
	Verbose  *bool `yaml:"verbose,omitempty"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Port       int    `yaml:"port,omitempty"`
	ResultsDir string `yaml:"results_dir,omitempty"`
}

// PublishConfig holds Azure Blob Storage settings for `mfqbench publish`.
type PublishConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .mfqbench.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Publish  PublishConfig  `yaml:"publish,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Spec:    DefaultSpecFile,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			Timeout:  DefaultTimeout,
			Parallel: boolPtr(false),
			Workers:  DefaultWorkers,
			Verbose:  boolPtr(false),
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
		Server: ServerConfig{
			Port:       DefaultServerPort,
			ResultsDir: DefaultResultsDir,
		},
		Publish: PublishConfig{
			Container: DefaultPublishContainer,
		},
	}
}

// Load finds .mfqbench.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .mfqbench.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range 10 {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	setString(&dst.Paths.Spec, src.Paths.Spec)
	setString(&dst.Paths.Results, src.Paths.Results)
	setString(&dst.Paths.History, src.Paths.History)

	setInt(&dst.Defaults.Timeout, src.Defaults.Timeout)
	setInt(&dst.Defaults.Workers, src.Defaults.Workers)
	setInt(&dst.Defaults.Limit, src.Defaults.Limit)
	if src.Defaults.Parallel != nil {
		dst.Defaults.Parallel = src.Defaults.Parallel
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}

	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	setString(&dst.Cache.Dir, src.Cache.Dir)

	setInt(&dst.Server.Port, src.Server.Port)
	setString(&dst.Server.ResultsDir, src.Server.ResultsDir)

	setString(&dst.Publish.AccountURL, src.Publish.AccountURL)
	setString(&dst.Publish.Container, src.Publish.Container)
	setString(&dst.Publish.Prefix, src.Publish.Prefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func boolPtr(b bool) *bool {
	return &b
}
