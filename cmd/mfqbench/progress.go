package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/orchestration"
	"github.com/spboyer/mfqbench/internal/reporting"
	"github.com/spboyer/mfqbench/internal/spinner"
)

// progressReporter prints runner events. On a terminal without --verbose it animates a
// spinner instead of printing a line per query.
type progressReporter struct {
	out     io.Writer
	verbose bool
	tty     bool

	mu      sync.Mutex
	spin    *spinner.Spinner
	invalid int
}

func newProgressReporter(out io.Writer, verbose, tty bool) *progressReporter {
	return &progressReporter{out: out, verbose: verbose, tty: tty}
}

func (p *progressReporter) handle(event orchestration.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.EventType == orchestration.EventQueryComplete && event.Status != models.StatusValid {
		p.invalid++
	}

	switch {
	case p.verbose:
		verboseProgressListener(p.out, event)
	case p.tty:
		p.animate(event)
	default:
		simpleProgressListener(p.out, event)
	}
}

func (p *progressReporter) animate(event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventRunStart:
		p.spin = spinner.Start(p.out, fmt.Sprintf("Querying %d model(s) with %d question(s)...", len(modelsOf(event)), event.TotalQuestions))
	case orchestration.EventQueryComplete:
		if p.spin != nil {
			p.spin.Update(fmt.Sprintf("[%d/%d] %s: %s", event.QueryNum, event.TotalQueries, event.Model, truncate(event.Question, 50)))
		}
	case orchestration.EventRunComplete:
		if p.spin != nil {
			p.spin.Stop()
			p.spin = nil
		}
		fmt.Fprintf(p.out, "✓ %d queries in %v (%d without a rating)\n", event.QueryNum, time.Duration(event.DurationMs)*time.Millisecond, p.invalid)
	}
}

// stop clears a spinner left running by an aborted run.
func (p *progressReporter) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin != nil {
		p.spin.Stop()
		p.spin = nil
	}
}

func modelsOf(event orchestration.ProgressEvent) []string {
	m, _ := event.Details["models"].([]string)
	return m
}

func verboseProgressListener(out io.Writer, event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventRunStart:
		fmt.Fprintf(out, "Starting analysis: %d question(s) x %d model(s)...\n\n", event.TotalQuestions, len(modelsOf(event)))
	case orchestration.EventQuestionStart:
		fmt.Fprintf(out, "[%d/%d] %s\n", event.QuestionNum, event.TotalQuestions, event.Question)
		fmt.Fprintf(out, "  Foundation: %s\n", event.Foundation)
	case orchestration.EventQueryComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		cached := ""
		if event.Cached {
			cached = " [cached]"
		}
		fmt.Fprintf(out, "  Querying %s... %s%s (%v)\n", event.Model, valueLabel(event), cached, duration)
		if resp, ok := event.Details["response"].(string); ok && resp != "" {
			fmt.Fprintf(out, "    Response: %s\n", truncate(oneLine(resp), 100))
		}
	case orchestration.EventRunComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Fprintf(out, "\nAnalysis completed in %v\n\n", duration)
	}
}

func simpleProgressListener(out io.Writer, event orchestration.ProgressEvent) {
	if event.EventType != orchestration.EventQueryComplete {
		return
	}
	icon := "✓"
	if event.Status != models.StatusValid {
		icon = "✗"
	}
	fmt.Fprintf(out, "%s [%d/%d] %s: %s → %s\n", icon, event.QueryNum, event.TotalQueries, event.Model,
		truncate(event.Question, 60), valueLabel(event))
}

func valueLabel(event orchestration.ProgressEvent) string {
	switch event.Status {
	case models.StatusValid:
		return fmt.Sprintf("%d (%s)", event.Value, event.Rule)
	case models.StatusError:
		if msg, ok := event.Details["error"].(string); ok {
			return "error: " + truncate(msg, 60)
		}
		return "error"
	default:
		return "no rating"
	}
}

// truncate shortens s to maxWidth display columns, appending "..." if truncated.
func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// printScoreTable renders per-model sums with one column per foundation.
func printScoreTable(out io.Writer, t *aggregate.Table) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, " SUM OF SCORES BY LLM AND MORAL FOUNDATION")
	fmt.Fprintln(out, strings.Repeat("=", 80))

	if len(t.Models) == 0 {
		fmt.Fprintln(out, "No responses.")
		return
	}

	modelWidth := len("LLM")
	for _, m := range t.Models {
		modelWidth = max(modelWidth, runewidth.StringWidth(m))
	}

	headers := make([]string, len(t.Foundations))
	widths := make([]int, len(t.Foundations))
	for i, f := range t.Foundations {
		headers[i] = reporting.ShortFoundation(f)
		widths[i] = max(runewidth.StringWidth(headers[i]), 3)
	}

	var b strings.Builder
	b.WriteString(runewidth.FillRight("LLM", modelWidth))
	for i, h := range headers {
		b.WriteString("  " + runewidth.FillLeft(h, widths[i]))
	}
	b.WriteString("  Valid")
	fmt.Fprintln(out, b.String())
	fmt.Fprintln(out, strings.Repeat("-", runewidth.StringWidth(b.String())))

	for _, m := range t.Models {
		b.Reset()
		b.WriteString(runewidth.FillRight(m, modelWidth))
		for i, f := range t.Foundations {
			b.WriteString("  " + runewidth.FillLeft(fmt.Sprint(t.ByModel[m][f]), widths[i]))
		}
		fmt.Fprintf(&b, "  %d/%d", t.ValidByModel[m], t.TotalByModel[m])
		fmt.Fprintln(out, b.String())
	}
}
