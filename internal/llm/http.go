package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
)

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, truncateBody(e.Body, 300))
}

// retryable reports whether the status is worth another attempt.
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type httpRequest struct {
	provider   string
	url        string
	headers    map[string]string
	body       any
	maxRetries int
	baseDelay  time.Duration
}

// postJSON sends body as JSON and decodes a 200 response into T. Rate limits, 5xx answers
// and transport errors are retried with exponential backoff.
func postJSON[T any](ctx context.Context, client *http.Client, req httpRequest) (*T, error) {
	payload, err := json.Marshal(req.body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", req.provider, err)
	}

	retries := req.maxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	delay := req.baseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			backoff := delay << uint(attempt-1)
			slog.Debug("retrying request", "provider", req.provider, "attempt", attempt, "backoff", backoff, "error", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, retry, err := doPost[T](ctx, client, req, payload)
		if err == nil {
			return out, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !retry {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s: max retries exceeded: %w", req.provider, lastErr)
}

// doPost performs a single attempt. retry reports whether a failure is transient.
func doPost[T any](ctx context.Context, client *http.Client, req httpRequest, payload []byte) (out *T, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to create request: %w", req.provider, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, true, fmt.Errorf("%s: request failed: %w", req.provider, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to read response: %w", req.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Provider: req.provider, StatusCode: resp.StatusCode, Body: string(body)}
		return nil, se.retryable(), se
	}

	out = new(T)
	if err := json.Unmarshal(body, out); err != nil {
		return nil, false, fmt.Errorf("%s: failed to parse response: %w", req.provider, err)
	}

	return out, false, nil
}

func truncateBody(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
