package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

// ErrNoBackends is returned when no backend could be configured.
var ErrNoBackends = errors.New("no LLM backends available: set at least one API key (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY)")

// Registry maps backend names to clients. It is built once before a run and only read
// afterwards.
type Registry struct {
	clients map[string]Client
}

// FromClients builds a registry from ready-made clients.
func FromClients(clients ...Client) (*Registry, error) {
	if len(clients) == 0 {
		return nil, ErrNoBackends
	}

	r := &Registry{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if _, dup := r.clients[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate backend name %q", c.Name())
		}
		r.clients[c.Name()] = c
	}
	return r, nil
}

// Names returns the backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Len returns the number of backends.
func (r *Registry) Len() int {
	return len(r.clients)
}

// Only returns a registry restricted to the given names. Unknown names are an error.
func (r *Registry) Only(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}

	var picked []Client
	for _, name := range names {
		c, ok := r.clients[name]
		if !ok {
			return nil, fmt.Errorf("unknown model %q (available: %v)", name, r.Names())
		}
		picked = append(picked, c)
	}
	return FromClients(picked...)
}

// Close releases clients that hold resources, such as the Copilot CLI process.
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.Names() {
		c := r.clients[name]
		if rl, ok := c.(*RateLimited); ok {
			c = rl.Unwrap()
		}
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	getenv  func(string) string
	timeout time.Duration
}

// WithGetenv replaces os.Getenv for API key lookups.
func WithGetenv(fn func(string) string) RegistryOption {
	return func(o *registryOptions) {
		o.getenv = fn
	}
}

// WithTimeout sets the HTTP timeout of the hosted providers.
func WithTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// apiKeyEnv lists the environment variables checked for each provider, in order.
var apiKeyEnv = map[string][]string{
	models.ProviderOpenAI:    {"OPENAI_API_KEY"},
	models.ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	models.ProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
}

// NewRegistry creates a client for every backend whose credentials are present. Backends
// with a missing key are skipped with a warning. An invalid backend definition is an error.
func NewRegistry(ctx context.Context, backends []models.BackendSpec, opts ...RegistryOption) (*Registry, error) {
	o := registryOptions{getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}

	var clients []Client

	for _, b := range backends {
		options, err := DecodeOptions(b.Options)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Name, err)
		}

		key, keyVar, needsKey := lookupKey(b.Provider, options, o.getenv)
		if needsKey && key == "" {
			slog.Warn("skipping backend, API key not set", "backend", b.Name, "env", keyVar)
			continue
		}

		client, err := newClient(ctx, b, options, key, o.timeout)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Name, err)
		}

		clients = append(clients, NewRateLimited(client, options.RequestsPerMinute))
	}

	return FromClients(clients...)
}

func lookupKey(provider string, options Options, getenv func(string) string) (key, envVar string, needed bool) {
	vars, needed := apiKeyEnv[provider]
	if !needed {
		return "", "", false
	}

	if options.APIKeyEnv != "" {
		vars = []string{options.APIKeyEnv}
	}

	for _, v := range vars {
		if k := getenv(v); k != "" {
			return k, v, true
		}
	}
	return "", vars[0], true
}

func newClient(ctx context.Context, b models.BackendSpec, options Options, key string, timeout time.Duration) (Client, error) {
	switch b.Provider {
	case models.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			Name:        b.Name,
			APIKey:      key,
			BaseURL:     options.BaseURL,
			Model:       b.ModelID(),
			Temperature: b.EffectiveTemperature(),
			MaxTokens:   options.MaxTokens,
			MaxRetries:  options.MaxRetries,
			Timeout:     timeout,
		}), nil
	case models.ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			Name:        b.Name,
			APIKey:      key,
			BaseURL:     options.BaseURL,
			Model:       b.ModelID(),
			Temperature: b.EffectiveTemperature(),
			MaxTokens:   options.MaxTokens,
			MaxRetries:  options.MaxRetries,
			Timeout:     timeout,
		}), nil
	case models.ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			Name:        b.Name,
			APIKey:      key,
			BaseURL:     options.BaseURL,
			Model:       b.ModelID(),
			Temperature: b.EffectiveTemperature(),
			MaxTokens:   options.MaxTokens,
		})
	case models.ProviderCopilot:
		return NewCopilotClient(CopilotConfig{Name: b.Name, Model: b.Model}), nil
	case models.ProviderMock:
		return NewMockClient(b.Name, options.Reply, options.Fail), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", b.Provider)
	}
}
