package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// MockClient is an offline backend. It answers every question with a fixed reply, or
// fails every call when Fail is set. Useful for dry runs and tests.
type MockClient struct {
	name  string
	reply string
	fail  string
	calls atomic.Int64
}

// NewMockClient creates a mock backend. An empty reply echoes the question.
func NewMockClient(name, reply, fail string) *MockClient {
	return &MockClient{name: name, reply: reply, fail: fail}
}

func (m *MockClient) Name() string { return m.name }

func (m *MockClient) Invoke(ctx context.Context, system, user string) Result {
	start := time.Now()
	m.calls.Add(1)

	if err := ctx.Err(); err != nil {
		return Failure(err)
	}

	if m.fail != "" {
		return Result{Err: errors.New(m.fail), Duration: time.Since(start)}
	}

	text := m.reply
	if text == "" {
		text = fmt.Sprintf("Mock response for: %s", user)
	}

	return Result{Text: text, Duration: time.Since(start)}
}

// Calls returns how many times Invoke ran.
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}
