package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/artpar/api2html/domain/schema"
)

// JSONFormatter writes one JSON object per line, one line per fragment.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "Newline-delimited JSON, one object per schema"
}

// Begin writes nothing; the stream has no envelope.
func (f *JSONFormatter) Begin(w io.Writer, doc *schema.Document) error {
	return nil
}

// Render writes the fragment for s as a single JSON line.
func (f *JSONFormatter) Render(w io.Writer, template string, s *schema.Schema, includeDescription bool) error {
	return json.NewEncoder(w).Encode(NewFragment(template, s, includeDescription))
}

// End writes nothing.
func (f *JSONFormatter) End(w io.Writer) error {
	return nil
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
