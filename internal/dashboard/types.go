package dashboard

import "github.com/spboyer/mfqbench/internal/aggregate"

// ReportDetail is the API response for a single result file.
type ReportDetail struct {
	IndexEntry
	Table          *aggregate.Table `json:"table"`
	Interpretation string           `json:"interpretation"`
}

// SummaryResponse holds totals across every indexed result file.
type SummaryResponse struct {
	TotalReports   int      `json:"total_reports"`
	TotalResponses int      `json:"total_responses"`
	ValidResponses int      `json:"valid_responses"`
	ValidRate      float64  `json:"valid_rate"`
	Models         []string `json:"models"`
	Latest         string   `json:"latest,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
