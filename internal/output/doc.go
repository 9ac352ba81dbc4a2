// Package output formats snippet review reports for display or machine
// consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output styled with lipgloss (default)
//   - json: the full structured report
//   - markdown: a summary table plus one collapsible section per severity
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*review.Report]. [WriteReport]
// handles destination selection.
package output
