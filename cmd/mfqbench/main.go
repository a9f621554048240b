package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess         = 0 // Run completed with at least one rating
	ExitNoValidResponse = 1 // Run completed but no response carried a rating
	ExitError           = 2 // Configuration or runtime error
)

// NoValidResponsesError indicates that the run completed and its artifacts were
// written, but not a single response could be scored.
type NoValidResponsesError struct {
	Message string
}

func (e *NoValidResponsesError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var noValid *NoValidResponsesError
		if errors.As(err, &noValid) {
			os.Exit(ExitNoValidResponse)
		}

		os.Exit(ExitError)
	}
}
