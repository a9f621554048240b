package reporting

import (
	"time"

	"github.com/spboyer/mfqbench/internal/models"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func result(llm, question string, part models.Part, foundation, response string, value int) models.QueryResult {
	return models.QueryResult{
		LLM:            llm,
		Question:       question,
		Part:           part,
		Foundation:     foundation,
		Response:       response,
		ExtractedValue: value,
		Timestamp:      models.NewTimestamp(testTime),
	}
}

const (
	qSuffer     = "Whether or not someone suffered emotionally"
	qFair       = "Whether or not some people were treated differently than others"
	qCompassion = "Compassion for those who are suffering is the most crucial virtue."
)

func sampleResults() []models.QueryResult {
	return []models.QueryResult{
		result("gpt-4", qSuffer, models.Part1, "Harm-Care", "4", 4),
		result("claude-sonnet-4", qSuffer, models.Part1, "Harm-Care", "**5** - extremely relevant", 5),
		result("gpt-4", qFair, models.Part1, "Fairness-Reciprocity", "Rating: 3", 3),
		result("claude-sonnet-4", qFair, models.Part1, "Fairness-Reciprocity", "I can't answer that.", models.Unparseable),
		result("gpt-4", qCompassion, models.Part2, "Harm-Care", "ERROR: openai: API request failed with status 500: oops", models.Unparseable),
		result("claude-sonnet-4", qCompassion, models.Part2, "Harm-Care", "<script>alert(1)</script> 2", 2),
	}
}
