package formatter

import (
	"fmt"
	"io"

	"github.com/artpar/api2html/domain/schema"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes a multi-document YAML stream, one document per fragment.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML stream, one document per schema"
}

// Begin writes nothing.
func (f *YAMLFormatter) Begin(w io.Writer, doc *schema.Document) error {
	return nil
}

// Render writes the fragment for s as its own YAML document.
func (f *YAMLFormatter) Render(w io.Writer, template string, s *schema.Schema, includeDescription bool) error {
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	return f.encode(w, NewFragment(template, s, includeDescription))
}

// End writes nothing.
func (f *YAMLFormatter) End(w io.Writer) error {
	return nil
}

// encode writes YAML to the writer.
func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewYAMLFormatter()); err != nil {
		fmt.Printf("failed to register yaml formatter: %v\n", err)
	}
}
