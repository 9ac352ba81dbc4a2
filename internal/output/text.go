package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/acra/internal/review"
)

// TextWriter outputs a human-readable text report. Colors are used only
// when the destination is a color-capable terminal.
type TextWriter struct{}

type textStyles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	rule   lipgloss.Style
	danger lipgloss.Style
	warn   lipgloss.Style
	info   lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#888888")),
		rule:   r.NewStyle().Foreground(lipgloss.Color("#444444")),
		danger: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5A623")),
		info:   r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
	}
}

func (s textStyles) severity(sev review.Severity) lipgloss.Style {
	switch sev {
	case review.SeverityDanger:
		return s.danger
	case review.SeverityWarn:
		return s.warn
	default:
		return s.info
	}
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	st := newTextStyles(w)
	divider := st.rule.Render(strings.Repeat("─", 60))

	title := "ACRA Code Review"
	if report.Language != "" {
		title += " (" + report.Language + ")"
	}
	ew.println(st.title.Render(title))
	ew.println(st.muted.Render("Provider: " + report.Provider))
	ew.println(divider)

	total := totalFindings(report.Summary)
	ew.printf("Findings: %d total", total)
	if total > 0 {
		ew.printf(" (%d danger, %d warn, %d info)",
			report.Summary.Counts.Danger,
			report.Summary.Counts.Warn,
			report.Summary.Counts.Info,
		)
	}
	ew.println("")
	ew.println(divider)

	if total == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	grouped := groupBySeverity(report.Findings)
	for _, sev := range severityOrder {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}
		label := severityIcon(sev) + " " + strings.ToUpper(string(sev))
		ew.printf("\n%s\n", st.severity(sev).Render(label))
		for _, f := range findings {
			ew.printf("  %-10s %s\n", f.Rule, f.Message)
		}
	}

	if strings.TrimSpace(report.Review) != "" {
		ew.printf("\n%s\n", st.title.Render("Review"))
		for _, para := range strings.Split(report.Review, "\n") {
			for _, line := range wrapText(para, 76) {
				ew.printf("  %s\n", line)
			}
		}
	}

	ew.printf("\n%s\n", divider)
	ew.println(st.muted.Render(fmt.Sprintf("Completed in %dms", report.Timing.TotalMs)))

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityDanger:
		return "[!!]"
	case review.SeverityWarn:
		return "[!]"
	case review.SeverityInfo:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
