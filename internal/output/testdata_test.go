package output

import (
	"time"

	"github.com/dshills/acra/internal/review"
)

func sampleReport() *review.Report {
	code := "var x = eval(input) // TODO"
	r := review.NewReport(code, "javascript", review.Result{
		Text:     "Basic Review (javascript):\n- Code is fine otherwise.",
		Provider: "rules",
	}, 42*time.Millisecond)
	r.Version = "1.0"
	r.RunID = "test-run"
	return r
}

func emptyReport() *review.Report {
	return &review.Report{
		Tool:     "acra",
		Version:  "1.0",
		Provider: "gemini",
		Findings: []review.Finding{},
		Summary:  review.ComputeSummary(nil),
	}
}
