package main

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// promptLimit is a test hook for replacing the question-limit picker in tests.
// It returns the chosen limit and whether a choice was made.
var promptLimit = defaultPromptLimit

// chooseLimit returns --limit when given, then the configured limit, and otherwise asks
// on an interactive terminal. Zero means every question.
func chooseLimit(cmd *cobra.Command, configured int) (int, error) {
	if cmd.Flags().Changed("limit") {
		return limit, nil
	}
	if configured > 0 || assumeYes {
		return configured, nil
	}
	if picked, ok := promptLimit(cmd.InOrStdin(), cmd.OutOrStdout()); ok {
		return picked, nil
	}
	return 0, nil
}

func defaultPromptLimit(in io.Reader, out io.Writer) (int, bool) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	choice := "0"
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How many questions?").
				Options(
					huh.NewOption("Analyze all questions (30 questions)", "0"),
					huh.NewOption("Test with first 5 questions", "5"),
					huh.NewOption("Test with first 10 questions", "10"),
				).
				Value(&choice),
		),
	).WithInput(in).WithOutput(out).Run()
	if err != nil {
		return 0, false
	}

	n, err := strconv.Atoi(choice)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
