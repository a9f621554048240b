package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_Invoke(t *testing.T) {
	var got anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Rating: "},{"type":"text","text":"3"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{
		Name:        "claude-sonnet-4",
		APIKey:      "sk-ant",
		BaseURL:     srv.URL,
		Model:       "claude-sonnet-4-20250514",
		Temperature: 0.7,
	})

	res := client.Invoke(context.Background(), "Rate agreement", "Justice is the most important requirement")
	require.False(t, res.Failed(), "unexpected error: %v", res.Err)
	assert.Equal(t, "Rating: 3", res.Text)

	assert.Equal(t, "claude-sonnet-4-20250514", got.Model)
	assert.Equal(t, "Rate agreement", got.System)
	assert.Equal(t, defaultAnthropicMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, anthropicMessage{Role: "user", Content: "Justice is the most important requirement"}, got.Messages[0])
}

func TestAnthropicClient_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"tool_use"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{Name: "c", APIKey: "k", BaseURL: srv.URL, Model: "c"})
	res := client.Invoke(context.Background(), "s", "u")
	require.True(t, res.Failed())
	assert.Contains(t, res.Err.Error(), "no text content")
}

func TestAnthropicClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient(AnthropicConfig{Name: "c", APIKey: "bad", BaseURL: srv.URL, Model: "c"})
	res := client.Invoke(context.Background(), "s", "u")
	require.True(t, res.Failed())

	var se *StatusError
	require.ErrorAs(t, res.Err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}
