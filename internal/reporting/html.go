package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/spboyer/mfqbench/internal/aggregate"
	"github.com/spboyer/mfqbench/internal/models"
	"github.com/spboyer/mfqbench/internal/scoring"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

// goldmark's default renderer drops raw HTML, so model output cannot inject markup.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

const questionPreviewLen = 100

var shortFoundations = strings.NewReplacer(
	"Fairness-Reciprocity", "Fairness",
	"Purity-Sancity", "Purity",
	"Harm-Care", "Harm",
)

// ShortFoundation shortens the long foundation labels used on chart axes.
func ShortFoundation(f string) string {
	return shortFoundations.Replace(f)
}

// HTMLOptions controls the standalone report.
type HTMLOptions struct {
	Title     string
	Source    string
	Generated time.Time
}

type chartData struct {
	Labels []string         `json:"labels"`
	Models []string         `json:"models"`
	Series map[string][]int `json:"series"`
}

type responseView struct {
	LLM       string
	Valid     bool
	Value     int
	Rule      scoring.Rule
	Body      template.HTML
	Timestamp string
}

type questionGroup struct {
	Index      int
	Text       string
	Short      string
	Foundation string
	Part       models.Part
	Responses  []responseView
}

type htmlReport struct {
	Title     string
	Source    string
	Generated string
	Table     *aggregate.Table
	Chart     chartData
	Groups    []questionGroup
}

// WriteHTML renders a self-contained HTML report with a chart, a score table and one
// collapsible block per distinct question.
func WriteHTML(w io.Writer, results []models.QueryResult, opts HTMLOptions) error {
	if opts.Title == "" {
		opts.Title = "Moral Foundations Analysis Report"
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}

	table := aggregate.Compute(results)

	groups, err := groupByQuestion(results)
	if err != nil {
		return err
	}

	report := htmlReport{
		Title:     opts.Title,
		Source:    opts.Source,
		Generated: opts.Generated.Format("January 02, 2006 at 03:04 PM"),
		Table:     table,
		Chart:     buildChart(table),
		Groups:    groups,
	}

	if err := reportTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return nil
}

func buildChart(t *aggregate.Table) chartData {
	c := chartData{
		Labels: make([]string, 0, len(t.Foundations)),
		Models: t.Models,
		Series: make(map[string][]int, len(t.Models)),
	}
	for _, f := range t.Foundations {
		c.Labels = append(c.Labels, ShortFoundation(f))
	}
	for _, m := range t.Models {
		row := make([]int, 0, len(t.Foundations))
		for _, f := range t.Foundations {
			row = append(row, t.ByModel[m][f])
		}
		c.Series[m] = row
	}
	return c
}

// groupByQuestion groups results by question text in first-seen order, with each group's
// responses sorted by model.
func groupByQuestion(results []models.QueryResult) ([]questionGroup, error) {
	var groups []questionGroup
	index := map[string]int{}

	for _, r := range results {
		i, ok := index[r.Question]
		if !ok {
			i = len(groups)
			index[r.Question] = i
			groups = append(groups, questionGroup{
				Index:      i + 1,
				Text:       r.Question,
				Short:      preview(r.Question, questionPreviewLen),
				Foundation: r.Foundation,
				Part:       r.Part,
			})
		}

		body, err := renderMarkdown(r.Response)
		if err != nil {
			return nil, err
		}

		view := responseView{
			LLM:       r.LLM,
			Valid:     r.Valid(),
			Value:     r.ExtractedValue,
			Body:      body,
			Timestamp: r.Timestamp.String(),
		}
		if view.Valid && !r.Failed() {
			view.Rule = scoring.Explain(r.Response).Rule
		}
		groups[i].Responses = append(groups[i].Responses, view)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Responses, func(a, b responseView) int {
			return strings.Compare(a.LLM, b.LLM)
		})
	}
	return groups, nil
}

func renderMarkdown(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering response markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark escapes raw HTML
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
