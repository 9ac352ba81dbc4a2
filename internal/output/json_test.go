package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dshills/acra/internal/review"
)

func TestJSONWriter(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed review.Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Tool != "acra" {
		t.Errorf("Tool = %q, want %q", parsed.Tool, "acra")
	}
	if parsed.RunID != "test-run" {
		t.Errorf("RunID = %q", parsed.RunID)
	}
	if len(parsed.Findings) != len(report.Findings) {
		t.Errorf("Findings count = %d, want %d", len(parsed.Findings), len(report.Findings))
	}
	if parsed.Summary.HighestSeverity != review.SeverityDanger {
		t.Errorf("HighestSeverity = %q", parsed.Summary.HighestSeverity)
	}
	if parsed.Review != report.Review {
		t.Errorf("Review = %q", parsed.Review)
	}
}

func TestJSONWriter_EmptyFindingsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"findings": []`)) {
		t.Errorf("expected an empty findings array, got:\n%s", buf.String())
	}
}

func TestJSONWriter_KeepsCodeCharacters(t *testing.T) {
	report := emptyReport()
	report.Review = "Prefer `a < b && b > c` over nested ifs."

	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, report); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("a < b && b > c")) {
		t.Errorf("review text was escaped:\n%s", buf.String())
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("}\n")) {
		t.Errorf("output should end with a newline")
	}
}
