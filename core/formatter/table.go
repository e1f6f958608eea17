package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/artpar/api2html/domain/schema"
	"github.com/artpar/api2html/ports"
)

// TableFormatter writes aligned plain-text tables for terminals.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text tables"
}

// Begin writes the document title, if any.
func (f *TableFormatter) Begin(w io.Writer, doc *schema.Document) error {
	if doc == nil || doc.Title == "" {
		return nil
	}
	title := doc.Title
	if doc.Version != "" {
		title += " " + doc.Version
	}
	_, err := fmt.Fprintf(w, "# %s\n\n", title)
	return err
}

// Render writes one table for s.
func (f *TableFormatter) Render(w io.Writer, template string, s *schema.Schema, includeDescription bool) error {
	frag := NewFragment(template, s, includeDescription)

	fmt.Fprintf(w, "== %s (%s) ==\n", frag.Title, frag.ID)
	if frag.Description != "" {
		fmt.Fprintln(w, frag.Description)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch template {
	case ports.TemplateObject:
		header := "NAME\tTYPE\tREQUIRED\tVALUES"
		if includeDescription {
			header += "\tDESCRIPTION"
		}
		fmt.Fprintln(tw, header)
		for _, field := range frag.Fields {
			row := fmt.Sprintf("%s\t%s\t%s\t%s", field.Name, typeWithFormat(field.Type, field.Format), yesNo(field.Required), dash(field.Values))
			if includeDescription {
				row += "\t" + dash(field.Description)
			}
			fmt.Fprintln(tw, row)
		}

	case ports.TemplateComposed:
		header := "ONE OF\tVALUES"
		if includeDescription {
			header += "\tDESCRIPTION"
		}
		fmt.Fprintln(tw, header)
		for _, alt := range frag.Alternatives {
			row := fmt.Sprintf("%s\t%s", alt.Type, dash(alt.Values))
			if includeDescription {
				row += "\t" + dash(alt.Description)
			}
			fmt.Fprintln(tw, row)
		}

	default:
		return fmt.Errorf("table: unknown template %q", template)
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// End writes nothing.
func (f *TableFormatter) End(w io.Writer) error {
	return nil
}

func typeWithFormat(t, format string) string {
	if format == "" {
		return t
	}
	return t + " (" + format + ")"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	if err := Register(NewTableFormatter()); err != nil {
		fmt.Printf("failed to register table formatter: %v\n", err)
	}
}
