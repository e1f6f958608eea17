package formatter

import (
	"github.com/artpar/api2html/domain/schema"
)

// Fragment is the view of one render instruction handed to every formatter.
type Fragment struct {
	Template    string `json:"template" yaml:"template"`
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Fields       []Field       `json:"fields,omitempty" yaml:"fields,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`

	// IncludeDescription tells templates whether to lay out description columns.
	IncludeDescription bool `json:"-" yaml:"-"`
}

// Field is one property row of an object fragment.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	Values      string `json:"values,omitempty" yaml:"values,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Link        string `json:"link,omitempty" yaml:"link,omitempty"`
}

// Alternative is one option of a composed fragment.
type Alternative struct {
	Type        string `json:"type" yaml:"type"`
	Values      string `json:"values,omitempty" yaml:"values,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Link        string `json:"link,omitempty" yaml:"link,omitempty"`
}

// NewFragment builds the view of s for the named template. Descriptions are
// left out unless includeDescription is set.
func NewFragment(template string, s *schema.Schema, includeDescription bool) Fragment {
	f := Fragment{
		Template:           template,
		ID:                 s.ID,
		Title:              s.Title,
		Kind:               string(s.Kind),
		IncludeDescription: includeDescription,
	}
	if includeDescription {
		f.Description = s.Description
	}

	for _, p := range s.Properties {
		field := Field{
			Name:     p.Name,
			Type:     p.Schema.TypeName(),
			Format:   p.Schema.Format,
			Required: p.Required,
			Values:   enumValues(p.Schema),
			Link:     linkTarget(p.Schema),
		}
		if includeDescription {
			field.Description = p.Schema.Description
		}
		f.Fields = append(f.Fields, field)
	}

	for _, alt := range s.Alternatives {
		a := Alternative{
			Type:   alt.TypeName(),
			Values: enumValues(alt),
			Link:   linkTarget(alt),
		}
		if includeDescription {
			a.Description = alt.Description
		}
		f.Alternatives = append(f.Alternatives, a)
	}

	return f
}

// enumValues returns the joined members of s, or of the innermost array items.
func enumValues(s *schema.Schema) string {
	s = innermost(s)
	if s.IsEnum() {
		return s.Enums
	}
	return ""
}

// linkTarget returns the id of the fragment that documents s, if there is one.
func linkTarget(s *schema.Schema) string {
	s = innermost(s)
	if s.IsCompound() {
		return s.ID
	}
	return ""
}

// innermost follows array items down to the element schema. Arrays of
// themselves stop at the first repeat.
func innermost(s *schema.Schema) *schema.Schema {
	seen := map[*schema.Schema]bool{}
	for s.Kind == schema.KindArray && s.Items != nil && !seen[s] {
		seen[s] = true
		s = s.Items
	}
	return s
}
