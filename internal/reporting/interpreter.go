package reporting

import (
	"fmt"
	"strings"

	"github.com/spboyer/mfqbench/internal/aggregate"
)

// InterpretValidRate returns a plain-language label for the share of replies that carried a
// usable rating (0-1).
func InterpretValidRate(rate float64) string {
	pct := rate * 100
	switch {
	case pct >= 100:
		return fmt.Sprintf("Every reply was scored (%.0f%%)", pct)
	case pct >= 90:
		return fmt.Sprintf("Nearly every reply was scored (%.0f%%)", pct)
	case pct >= 50:
		return fmt.Sprintf("Many replies had no rating (%.0f%% scored)", pct)
	default:
		return fmt.Sprintf("Most replies had no rating (%.0f%% scored)", pct)
	}
}

// InterpretLean names the foundation a model rated highest on average, or "" when it gave
// no valid ratings.
func InterpretLean(t *aggregate.Table, model string) string {
	best, bestMean := "", -1.0
	for _, f := range t.Foundations {
		if m := t.MeanByModel[model][f]; m > bestMean {
			best, bestMean = f, m
		}
	}
	if t.ValidByModel[model] == 0 {
		return ""
	}
	return best
}

// FormatInterpretation produces a short plain-language reading of an aggregate table.
func FormatInterpretation(t *aggregate.Table) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")

	if t.Total > 0 {
		fmt.Fprintf(&b, "Extraction: %s\n", InterpretValidRate(float64(t.Valid)/float64(t.Total)))
	}

	for _, m := range t.Models {
		icon := "✓"
		if t.ValidByModel[m] < t.TotalByModel[m] {
			icon = "✗"
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", icon, m, InterpretValidRate(t.ValidRate(m)))
		if lean := InterpretLean(t, m); lean != "" {
			fmt.Fprintf(&b, "    Highest mean rating: %s (%.2f)\n", lean, t.MeanByModel[m][lean])
		}
	}

	return b.String()
}
