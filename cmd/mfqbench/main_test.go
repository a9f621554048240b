package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoValidResponsesError(t *testing.T) {
	err := &NoValidResponsesError{Message: "none of 4 responses carried a rating"}
	assert.Equal(t, "none of 4 responses carried a rating", err.Error())
}

func TestErrorTypeDetection(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", &NoValidResponsesError{Message: "x"})

	var target *NoValidResponsesError
	assert.True(t, errors.As(wrapped, &target))
	assert.False(t, errors.As(errors.New("config error"), &target))
}
