package formatter

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/artpar/api2html/domain/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLFormatter writes a standalone HTML page with one table per fragment.
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTMLFormatter creates a new HTML formatter from the embedded templates.
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{
		tmpl: template.Must(template.New("").ParseFS(templateFS, "templates/*.html")),
	}
}

// Name returns the formatter name.
func (f *HTMLFormatter) Name() string {
	return "html"
}

// Description returns the formatter description.
func (f *HTMLFormatter) Description() string {
	return "Standalone HTML page with one table per schema"
}

// Begin writes the page head.
func (f *HTMLFormatter) Begin(w io.Writer, doc *schema.Document) error {
	if doc == nil {
		doc = &schema.Document{}
	}
	return f.tmpl.ExecuteTemplate(w, "begin", doc)
}

// Render writes one table for s using the named template.
func (f *HTMLFormatter) Render(w io.Writer, name string, s *schema.Schema, includeDescription bool) error {
	if f.tmpl.Lookup(name) == nil {
		return fmt.Errorf("html: unknown template %q", name)
	}
	return f.tmpl.ExecuteTemplate(w, name, NewFragment(name, s, includeDescription))
}

// End closes the page.
func (f *HTMLFormatter) End(w io.Writer) error {
	return f.tmpl.ExecuteTemplate(w, "end", nil)
}

func init() {
	if err := Register(NewHTMLFormatter()); err != nil {
		fmt.Printf("failed to register html formatter: %v\n", err)
	}
}
