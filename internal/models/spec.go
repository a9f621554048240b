package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in a backend definition.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCopilot   = "copilot"
	ProviderMock      = "mock"
)

// AnalysisSpec represents a complete analysis run definition (analysis.yaml).
type AnalysisSpec struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Dataset     string        `yaml:"dataset" json:"dataset"`
	Prompts     PromptPaths   `yaml:"prompts" json:"prompts"`
	OutputDir   string        `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
	Config      Config        `yaml:"config" json:"config"`
	Backends    []BackendSpec `yaml:"backends" json:"backends"`
}

// PromptPaths locates the two instruction templates.
type PromptPaths struct {
	Part1 string `yaml:"part1" json:"part1"`
	Part2 string `yaml:"part2" json:"part2"`
}

// Config controls execution behavior
type Config struct {
	Concurrent bool `yaml:"parallel" json:"parallel"`
	Workers    int  `yaml:"workers,omitempty" json:"workers,omitempty"`
	Limit      int  `yaml:"limit,omitempty" json:"limit,omitempty"`
	TimeoutSec int  `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	Cache      bool `yaml:"cache,omitempty" json:"cache,omitempty"`
}

// BackendSpec declares one model to query. Options are provider specific and decoded by
// the llm package.
type BackendSpec struct {
	Name        string         `yaml:"name" json:"name"`
	Provider    string         `yaml:"provider" json:"provider"`
	Model       string         `yaml:"model,omitempty" json:"model,omitempty"`
	Temperature *float64       `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Options     map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// ModelID returns the provider model identifier, falling back to the backend name.
func (b BackendSpec) ModelID() string {
	if b.Model != "" {
		return b.Model
	}
	return b.Name
}

// DefaultTemperature is the sampling temperature used when a backend does not set one.
const DefaultTemperature = 0.7

// EffectiveTemperature returns the configured temperature or DefaultTemperature.
func (b BackendSpec) EffectiveTemperature() float64 {
	if b.Temperature != nil {
		return *b.Temperature
	}
	return DefaultTemperature
}

// DefaultAnalysisSpec returns the run used when no analysis.yaml is given: the full
// questionnaire against every hosted provider the tool knows about.
func DefaultAnalysisSpec() *AnalysisSpec {
	return &AnalysisSpec{
		Name:    "mfq-30",
		Dataset: "moralfoundations30-dataset.csv",
		Prompts: PromptPaths{
			Part1: "moral_foundations_part1_prompt",
			Part2: "moral_foundations_part2_prompt",
		},
		OutputDir: "results",
		Config: Config{
			Workers:    4,
			TimeoutSec: 120,
		},
		Backends: []BackendSpec{
			{Name: "gpt-4", Provider: ProviderOpenAI, Model: "gpt-4"},
			{Name: "gpt-3.5-turbo", Provider: ProviderOpenAI, Model: "gpt-3.5-turbo"},
			{Name: "claude-sonnet-4", Provider: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
			{Name: "gemini-2.5-pro", Provider: ProviderGemini, Model: "gemini-2.5-pro"},
		},
	}
}

// LoadAnalysisSpec loads a spec from a YAML file. Relative dataset, prompt and output paths
// are resolved against the analysis file's directory.
func LoadAnalysisSpec(path string) (*AnalysisSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec AnalysisSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if spec.Config.TimeoutSec == 0 {
		spec.Config.TimeoutSec = 120
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	spec.ResolvePaths(filepath.Dir(path))

	return &spec, nil
}

// ResolvePaths makes relative file references absolute against baseDir.
func (s *AnalysisSpec) ResolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	s.Dataset = resolve(s.Dataset)
	s.Prompts.Part1 = resolve(s.Prompts.Part1)
	s.Prompts.Part2 = resolve(s.Prompts.Part2)
	s.OutputDir = resolve(s.OutputDir)
}

// Validate checks that the analysis spec is valid
func (s *AnalysisSpec) Validate() error {
	if s.Dataset == "" {
		return fmt.Errorf("dataset is required")
	}
	if s.Prompts.Part1 == "" || s.Prompts.Part2 == "" {
		return fmt.Errorf("prompts.part1 and prompts.part2 are required")
	}
	if s.Config.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Config.Workers)
	}
	if s.Config.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", s.Config.Limit)
	}
	if s.Config.TimeoutSec < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", s.Config.TimeoutSec)
	}

	seen := map[string]bool{}
	for i, b := range s.Backends {
		if b.Name == "" {
			return fmt.Errorf("backends[%d]: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("backends[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true

		switch b.Provider {
		case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderCopilot, ProviderMock:
		default:
			return fmt.Errorf("backends[%d] (%s): unknown provider %q", i, b.Name, b.Provider)
		}

		if t := b.EffectiveTemperature(); t < 0 || t > 2 {
			return fmt.Errorf("backends[%d] (%s): temperature must be between 0 and 2, got %g", i, b.Name, t)
		}
	}
	return nil
}
