package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/acra/internal/review"
)

// JSONWriter emits the report as indented JSON. Review text keeps code
// characters such as <, > and & unescaped so it can be read as is.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, report *review.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
