package llm

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spboyer/mfqbench/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestNewRegistry_SkipsMissingKeys(t *testing.T) {
	logs := captureLogs(t)

	reg, err := NewRegistry(context.Background(), models.DefaultAnalysisSpec().Backends,
		WithGetenv(envMap(map[string]string{"ANTHROPIC_API_KEY": "sk-ant"})))
	require.NoError(t, err)

	assert.Equal(t, []string{"claude-sonnet-4"}, reg.Names())
	assert.Contains(t, logs.String(), "skipping backend")
	assert.Contains(t, logs.String(), "OPENAI_API_KEY")
	assert.Contains(t, logs.String(), "GOOGLE_API_KEY")
}

func TestNewRegistry_NoKeys(t *testing.T) {
	captureLogs(t)

	_, err := NewRegistry(context.Background(), models.DefaultAnalysisSpec().Backends, WithGetenv(envMap(nil)))
	require.ErrorIs(t, err, ErrNoBackends)
}

func TestNewRegistry_GeminiKeyFallback(t *testing.T) {
	reg, err := NewRegistry(context.Background(),
		[]models.BackendSpec{{Name: "gemini-2.5-pro", Provider: models.ProviderGemini, Model: "gemini-2.5-pro"}},
		WithGetenv(envMap(map[string]string{"GEMINI_API_KEY": "g"})))
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestNewRegistry_CustomKeyEnv(t *testing.T) {
	reg, err := NewRegistry(context.Background(),
		[]models.BackendSpec{{
			Name:     "local",
			Provider: models.ProviderOpenAI,
			Options:  map[string]any{"api_key_env": "LOCAL_LLM_KEY", "base_url": "http://localhost:8080/v1"},
		}},
		WithGetenv(envMap(map[string]string{"LOCAL_LLM_KEY": "x"})))
	require.NoError(t, err)

	c, ok := reg.Get("local")
	require.True(t, ok)
	oc, ok := c.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8080/v1", oc.cfg.BaseURL)
	assert.Equal(t, "local", oc.cfg.Model)
}

func TestNewRegistry_MockAndRateLimit(t *testing.T) {
	reg, err := NewRegistry(context.Background(),
		[]models.BackendSpec{
			{Name: "echo", Provider: models.ProviderMock, Options: map[string]any{"reply": 4}},
			{Name: "slow", Provider: models.ProviderMock, Options: map[string]any{"requests_per_minute": 600}},
		},
		WithGetenv(envMap(nil)))
	require.NoError(t, err)

	echo, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "4", echo.Invoke(context.Background(), "s", "u").Text)

	slow, ok := reg.Get("slow")
	require.True(t, ok)
	_, limited := slow.(*RateLimited)
	assert.True(t, limited)

	require.NoError(t, reg.Close())
}

func TestNewRegistry_BadOptions(t *testing.T) {
	_, err := NewRegistry(context.Background(),
		[]models.BackendSpec{{Name: "echo", Provider: models.ProviderMock, Options: map[string]any{"colour": "blue"}}},
		WithGetenv(envMap(nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend echo")
}

func TestRegistry_Only(t *testing.T) {
	reg, err := FromClients(NewMockClient("a", "1", ""), NewMockClient("b", "2", ""), NewMockClient("c", "3", ""))
	require.NoError(t, err)

	sub, err := reg.Only("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, sub.Names())

	same, err := reg.Only()
	require.NoError(t, err)
	assert.Equal(t, 3, same.Len())

	_, err = reg.Only("z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "z"`)
}

func TestFromClients_Duplicate(t *testing.T) {
	_, err := FromClients(NewMockClient("a", "", ""), NewMockClient("a", "", ""))
	require.Error(t, err)

	_, err = FromClients()
	require.ErrorIs(t, err, ErrNoBackends)
}
