package review

import "time"

// Report is the result of reviewing one snippet from the command line.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"runId"`
	Language string    `json:"language,omitempty"`
	Provider string    `json:"provider"`
	Review   string    `json:"review"`
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
	Timing   Timing    `json:"timing"`
}

// Timing records how long the review took.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
}

// NewReport combines a review result with the rule engine's structured
// findings for the same snippet.
func NewReport(code, language string, res Result, elapsed time.Duration) *Report {
	findings := Evaluate(code, language)
	return &Report{
		Tool:     "acra",
		Language: language,
		Provider: res.Provider,
		Review:   res.Text,
		Findings: findings,
		Summary:  ComputeSummary(findings),
		Timing:   Timing{TotalMs: elapsed.Milliseconds()},
	}
}
