package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotConfig configures a CopilotClient.
type CopilotConfig struct {
	Name  string
	Model string

	// NewClient overrides how the SDK client is created. Tests use it to inject fakes.
	NewClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// CopilotClient answers questions through a GitHub Copilot CLI session. Each question
// gets a fresh session so earlier answers cannot leak into later ones.
type CopilotClient struct {
	name  string
	model string

	client copilotClient

	startOnce sync.Once
	startErr  error
}

// NewCopilotClient creates a Copilot backend. The CLI process starts lazily on the
// first Invoke.
func NewCopilotClient(cfg CopilotConfig) *CopilotClient {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	newClient := newCopilotClient
	if cfg.NewClient != nil {
		newClient = cfg.NewClient
	}

	return &CopilotClient{
		name:   cfg.Name,
		model:  cfg.Model,
		client: newClient(copilotOptions),
	}
}

func (c *CopilotClient) Name() string { return c.name }

func (c *CopilotClient) Invoke(ctx context.Context, system, user string) Result {
	c.startOnce.Do(func() {
		// autostart races when sessions are created from several goroutines
		c.startErr = c.client.Start(ctx)
	})

	if c.startErr != nil {
		return Failure(fmt.Errorf("copilot failed to start: %w", c.startErr))
	}

	start := time.Now()

	session, err := c.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               c.model,
		OnPermissionRequest: approvePermissions,
	})
	if err != nil {
		return Result{Err: fmt.Errorf("copilot: failed to create session: %w", err), Duration: time.Since(start)}
	}

	var (
		mu    sync.Mutex
		parts []string
	)

	unsubscribe := session.On(func(event copilot.SessionEvent) {
		logSessionEvent(c.model, event)
		if event.Type != copilot.AssistantMessage || event.Data.Content == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		parts = append(parts, *event.Data.Content)
	})
	defer unsubscribe()

	_, err = session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: copilotPrompt(system, user),
	})
	if err != nil {
		return Result{Err: fmt.Errorf("copilot: %w", err), Duration: time.Since(start)}
	}

	mu.Lock()
	text := strings.TrimSpace(strings.Join(parts, ""))
	mu.Unlock()

	if text == "" {
		return Result{Err: errors.New("copilot: no assistant message returned"), Duration: time.Since(start)}
	}

	return Result{Text: text, Duration: time.Since(start)}
}

// Close stops the Copilot CLI process.
func (c *CopilotClient) Close() error {
	if err := c.client.Stop(); err != nil {
		slog.Info("failed to stop copilot client", "error", err)
		return err
	}
	return nil
}

// copilotPrompt folds the instruction into the user turn. Sessions carry Copilot's own
// system prompt, so the questionnaire instruction travels with the question.
func copilotPrompt(system, user string) string {
	return system + "\n\n" + user
}

func approvePermissions(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}

func logSessionEvent(model string, event copilot.SessionEvent) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{"model", model, "type", event.Type}
	attrs = addIf(attrs, "content", event.Data.Content)
	attrs = addIf(attrs, "deltaContent", event.Data.DeltaContent)
	attrs = addIf(attrs, "reasoningText", event.Data.ReasoningText)

	slog.Debug("copilot event", attrs...)
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name, *v)
	}
	return attrs
}
