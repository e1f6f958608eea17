// Package schema provides the schema value types shared by the parser, the resolver
// and the renderers, plus the pure title assignment rules.
//
// Two shapes exist. RawSchema is what the document parser produces: it may carry a
// $ref and is never modified after parsing. Schema is the resolved form: built fresh
// from a RawSchema, it holds direct pointers to its children and has no reference
// field at all, so a resolved graph cannot contain a dangling reference.
package schema

// Kind classifies a schema shape.
type Kind string

const (
	KindString   Kind = "string"
	KindBoolean  Kind = "boolean"
	KindArray    Kind = "array"
	KindObject   Kind = "object"
	KindComposed Kind = "composed" // oneOf / anyOf / allOf

	// Scalar kinds outside the documented set. They are titled like any
	// other named type and never rendered on their own.
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
)

// RawSchema is a schema definition exactly as declared in the source document.
type RawSchema struct {
	ID          string // $id
	Title       string
	Description string
	Kind        Kind
	Format      string
	Enum        []string

	Items      *RawSchema
	Properties []NamedRaw // document order
	Required   []string
	OneOf      []*RawSchema

	// Ref is set when the definition is only a pointer ($ref) to another schema.
	Ref string
}

// IsReference reports whether the raw schema is a pure $ref.
func (r *RawSchema) IsReference() bool {
	return r != nil && r.Ref != ""
}

// NamedRaw pairs a raw schema with the name it was declared under.
type NamedRaw struct {
	Name   string
	Schema *RawSchema
}

// Document is the parsed input: document metadata and the schemas declared under
// components.schemas, in document order.
type Document struct {
	Title   string
	Version string
	Schemas []NamedRaw
}

// Schema is a resolved, normalized schema.
type Schema struct {
	ID          string
	Kind        Kind
	Title       string
	Description string
	Format      string

	Properties   []Property // object only, sorted by Name
	Items        *Schema    // array only
	Alternatives []*Schema  // composed only

	// EnumValues holds the filtered enumeration members; Enums is the same list
	// joined with ", " for display.
	EnumValues []string
	Enums      string
}

// Property is a named field of an object schema.
type Property struct {
	Name     string
	Schema   *Schema
	Required bool
}

// IsEnum reports whether the schema is a string enumeration.
func (s *Schema) IsEnum() bool {
	return s.Kind == KindString && len(s.EnumValues) > 0
}

// IsCompound reports whether the schema is rendered as its own unit: an object
// with properties or a composed schema with alternatives.
func (s *Schema) IsCompound() bool {
	switch s.Kind {
	case KindObject:
		return len(s.Properties) > 0
	case KindComposed:
		return len(s.Alternatives) > 0
	default:
		return false
	}
}

// TypeName returns the name shown for the schema where it is used as a field type.
func (s *Schema) TypeName() string {
	if s == nil {
		return ""
	}
	return s.typeName(map[*Schema]bool{})
}

func (s *Schema) typeName(seen map[*Schema]bool) string {
	if s.Kind == KindArray {
		// An array that contains itself is named once.
		if s.Items == nil || seen[s] {
			return "Array"
		}
		seen[s] = true
		return "Array<" + s.Items.typeName(seen) + ">"
	}
	if s.Title != "" {
		return s.Title
	}
	return string(s.Kind)
}
