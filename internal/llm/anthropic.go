package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion          = "2023-06-01"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
}

// AnthropicClient talks to the Anthropic messages API.
type AnthropicClient struct {
	cfg        AnthropicConfig
	httpClient *http.Client
	retryDelay time.Duration
}

// NewAnthropicClient creates a new Anthropic client. The messages API requires
// max_tokens, so a default is filled in when none is configured.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultAnthropicMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &AnthropicClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) Name() string { return c.cfg.Name }

func (c *AnthropicClient) Invoke(ctx context.Context, system, user string) Result {
	start := time.Now()

	if c.cfg.APIKey == "" {
		return Failure(errors.New("anthropic: API key not configured"))
	}

	resp, err := postJSON[anthropicResponse](ctx, c.httpClient, httpRequest{
		provider: "anthropic",
		url:      c.cfg.BaseURL + "/messages",
		headers: map[string]string{
			"x-api-key":         c.cfg.APIKey,
			"anthropic-version": anthropicVersion,
		},
		body: anthropicRequest{
			Model:       c.cfg.Model,
			System:      system,
			Messages:    []anthropicMessage{{Role: "user", Content: user}},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		},
		maxRetries: c.cfg.MaxRetries,
		baseDelay:  c.retryDelay,
	})
	if err != nil {
		return Result{Err: err, Duration: time.Since(start)}
	}

	if resp.Error != nil {
		return Result{Err: errors.New("anthropic: API error: " + resp.Error.Message), Duration: time.Since(start)}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return Result{Err: errors.New("anthropic: no text content returned"), Duration: time.Since(start)}
	}

	return Result{Text: strings.TrimSpace(sb.String()), Duration: time.Since(start)}
}
