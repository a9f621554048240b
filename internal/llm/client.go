// Package llm holds the chat backends a questionnaire run can query.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

//go:generate go tool mockgen -destination mocks/mock_client.go -package mocks . Client

// Client sends one system instruction plus one user message to a model and returns the
// reply. Implementations never panic on provider errors. They report them in the Result.
type Client interface {
	// Name is the label results are recorded under.
	Name() string

	// Invoke runs a single chat completion.
	Invoke(ctx context.Context, system, user string) Result
}

// Result is the outcome of one Invoke. Exactly one of Text or Err is meaningful.
type Result struct {
	Text     string
	Err      error
	Duration time.Duration
	// Cached is set when the text was replayed from the response cache.
	Cached bool
}

// Success wraps a reply.
func Success(text string) Result {
	return Result{Text: text}
}

// Failure wraps a backend error.
func Failure(err error) Result {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result{Err: err}
}

// Failed reports whether the backend call failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Response is the text recorded for this result: the reply, or "ERROR: <reason>".
func (r Result) Response() string {
	if r.Err != nil {
		return models.ErrorPrefix + r.Err.Error()
	}
	return r.Text
}
