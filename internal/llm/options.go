package llm

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options are the provider specific settings found under a backend's "options" key.
type Options struct {
	BaseURL           string `mapstructure:"base_url"`
	MaxTokens         int    `mapstructure:"max_tokens"`
	APIKeyEnv         string `mapstructure:"api_key_env"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	MaxRetries        int    `mapstructure:"max_retries"`

	// Reply and Fail drive the mock provider.
	Reply string `mapstructure:"reply"`
	Fail  string `mapstructure:"fail"`
}

// DecodeOptions converts the free-form options map into Options.
func DecodeOptions(raw map[string]any) (Options, error) {
	var opts Options
	if len(raw) == 0 {
		return opts, nil
	}

	// weak typing lets `reply: 4` in YAML decode into a string
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Options{}, err
	}

	if err := dec.Decode(raw); err != nil {
		return Options{}, fmt.Errorf("decoding backend options: %w", err)
	}

	if opts.MaxTokens < 0 {
		return Options{}, fmt.Errorf("max_tokens must not be negative, got %d", opts.MaxTokens)
	}
	if opts.RequestsPerMinute < 0 {
		return Options{}, fmt.Errorf("requests_per_minute must not be negative, got %d", opts.RequestsPerMinute)
	}

	return opts, nil
}
