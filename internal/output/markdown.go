package output

import (
	"io"
	"strings"

	"github.com/dshills/acra/internal/review"
)

// MarkdownWriter outputs a markdown report suitable for pasting into a PR
// comment or issue.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	total := totalFindings(report.Summary)

	ew.printf("## ACRA Code Review\n\n")
	if report.Language != "" {
		ew.printf("Language: `%s` | ", report.Language)
	}
	ew.printf("Provider: `%s`\n\n", report.Provider)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Danger   | %d    |\n", report.Summary.Counts.Danger)
	ew.printf("| Warn     | %d    |\n", report.Summary.Counts.Warn)
	ew.printf("| Info     | %d    |\n", report.Summary.Counts.Info)
	ew.printf("| **Total** | **%d** |\n\n", total)

	if total == 0 {
		ew.println("No issues found. :white_check_mark:\n")
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(findings))
		for _, f := range findings {
			ew.printf("- **`%s`** %s\n", f.Rule, f.Message)
		}
		ew.printf("\n</details>\n\n")
	}

	if strings.TrimSpace(report.Review) != "" {
		ew.printf("### Review\n\n%s\n\n", report.Review)
	}

	ew.printf("*Reviewed in %dms*\n", report.Timing.TotalMs)
	return ew.err
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityDanger:
		return ":red_circle:"
	case review.SeverityWarn:
		return ":orange_circle:"
	case review.SeverityInfo:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
