package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
}

// OpenAIClient talks to an OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	retryDelay time.Duration
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Name() string { return c.cfg.Name }

func (c *OpenAIClient) Invoke(ctx context.Context, system, user string) Result {
	start := time.Now()

	if c.cfg.APIKey == "" {
		return Failure(errors.New("openai: API key not configured"))
	}

	resp, err := postJSON[openAIResponse](ctx, c.httpClient, httpRequest{
		provider: "openai",
		url:      c.cfg.BaseURL + "/chat/completions",
		headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
		},
		body: openAIRequest{
			Model: c.cfg.Model,
			Messages: []openAIMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: user},
			},
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		},
		maxRetries: c.cfg.MaxRetries,
		baseDelay:  c.retryDelay,
	})
	if err != nil {
		return Result{Err: err, Duration: time.Since(start)}
	}

	if resp.Error != nil {
		return Result{Err: errors.New("openai: API error: " + resp.Error.Message), Duration: time.Since(start)}
	}

	if len(resp.Choices) == 0 {
		return Result{Err: errors.New("openai: no completion returned"), Duration: time.Since(start)}
	}

	return Result{Text: strings.TrimSpace(resp.Choices[0].Message.Content), Duration: time.Since(start)}
}
