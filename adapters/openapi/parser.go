// Package openapi reads OpenAPI 3 documents (YAML or JSON) into raw schemas.
//
// Only the parts needed for schema documentation are decoded: info.title,
// info.version and components.schemas. Declaration order is preserved.
package openapi

import (
	"fmt"
	"os"

	"github.com/artpar/api2html/domain/schema"
	"github.com/artpar/api2html/ports"
	"gopkg.in/yaml.v3"
)

// Parser decodes OpenAPI documents.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// Ensure interface compliance.
var _ ports.DocumentParser = (*Parser)(nil)

// ParseFile parses the document at path.
func (p *Parser) ParseFile(path string) (*schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	doc, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a document from YAML or JSON bytes.
func (p *Parser) Parse(data []byte) (*schema.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	doc := &schema.Document{}
	if len(root.Content) == 0 {
		return doc, nil
	}

	top := resolveAlias(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse document: top level must be a mapping, got %s", kindName(top))
	}

	if info := lookup(top, "info"); info != nil {
		doc.Title = scalar(lookup(info, "title"))
		doc.Version = scalar(lookup(info, "version"))
	}

	schemas := lookup(lookup(top, "components"), "schemas")
	if schemas == nil {
		return doc, nil
	}
	if schemas.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("components.schemas: must be a mapping, got %s", kindName(schemas))
	}

	for i := 0; i+1 < len(schemas.Content); i += 2 {
		name := schemas.Content[i].Value
		raw, err := parseSchema(schemas.Content[i+1], "components.schemas."+name)
		if err != nil {
			return nil, err
		}
		doc.Schemas = append(doc.Schemas, schema.NamedRaw{Name: name, Schema: raw})
	}

	return doc, nil
}

func parseSchema(n *yaml.Node, path string) (*schema.RawSchema, error) {
	n = resolveAlias(n)

	// JSON Schema boolean schemas and null accept anything.
	if n.Kind == yaml.ScalarNode && (n.Tag == "!!bool" || n.Tag == "!!null") {
		return &schema.RawSchema{Kind: schema.KindObject}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: schema must be a mapping, got %s", path, kindName(n))
	}

	raw := &schema.RawSchema{}
	var (
		typeName    string
		composition bool
		hasItems    bool
	)

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, resolveAlias(n.Content[i+1])
		at := path + "." + key

		switch key {
		case "$ref":
			raw.Ref = val.Value
		case "$id":
			raw.ID = val.Value
		case "title":
			raw.Title = val.Value
		case "description":
			raw.Description = val.Value
		case "format":
			raw.Format = val.Value
		case "type":
			t, err := parseType(val, at)
			if err != nil {
				return nil, err
			}
			typeName = t
		case "enum":
			values, err := scalars(val, at)
			if err != nil {
				return nil, err
			}
			raw.Enum = values
		case "required":
			values, err := scalars(val, at)
			if err != nil {
				return nil, err
			}
			raw.Required = values
		case "items":
			hasItems = true
			// 3.1 allows items: false for tuples with no additional items.
			if val.Kind == yaml.ScalarNode && val.Tag == "!!bool" {
				continue
			}
			items, err := parseSchema(val, at)
			if err != nil {
				return nil, err
			}
			raw.Items = items
		case "properties":
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("%s: must be a mapping, got %s", at, kindName(val))
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				ps, err := parseSchema(val.Content[j+1], at+"."+name)
				if err != nil {
					return nil, err
				}
				raw.Properties = append(raw.Properties, schema.NamedRaw{Name: name, Schema: ps})
			}
		case "oneOf":
			composition = true
			alts, err := schemaList(val, at)
			if err != nil {
				return nil, err
			}
			raw.OneOf = alts
		case "anyOf", "allOf":
			composition = true
		}
	}

	if raw.Ref != "" {
		// Siblings of $ref are ignored.
		return &schema.RawSchema{Ref: raw.Ref}, nil
	}

	kind, err := classify(typeName, composition, len(raw.Properties) > 0, hasItems)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	raw.Kind = kind
	return raw, nil
}

// classify decides the kind of a schema from its declared keywords.
func classify(typeName string, composition, hasProperties, hasItems bool) (schema.Kind, error) {
	switch {
	case composition:
		return schema.KindComposed, nil
	case typeName != "":
		switch typeName {
		case "string":
			return schema.KindString, nil
		case "boolean":
			return schema.KindBoolean, nil
		case "array":
			return schema.KindArray, nil
		case "object", "null":
			return schema.KindObject, nil
		case "integer":
			return schema.KindInteger, nil
		case "number":
			return schema.KindNumber, nil
		default:
			return "", fmt.Errorf("unsupported type %q", typeName)
		}
	case hasProperties:
		return schema.KindObject, nil
	case hasItems:
		return schema.KindArray, nil
	default:
		return schema.KindObject, nil
	}
}

// parseType reads a type keyword: a single name, or a 3.1 list from which the
// first non-null entry is taken.
func parseType(n *yaml.Node, path string) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		names, err := scalars(n, path)
		if err != nil {
			return "", err
		}
		for _, t := range names {
			if t != "null" {
				return t, nil
			}
		}
		return "null", nil
	default:
		return "", fmt.Errorf("%s: must be a string or a list, got %s", path, kindName(n))
	}
}

func schemaList(n *yaml.Node, path string) ([]*schema.RawSchema, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: must be a list, got %s", path, kindName(n))
	}
	out := make([]*schema.RawSchema, 0, len(n.Content))
	for i, c := range n.Content {
		s, err := parseSchema(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// scalars reads a list of scalars as strings. A YAML null member reads as "null".
func scalars(n *yaml.Node, path string) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s: must be a list, got %s", path, kindName(n))
	}
	out := make([]string, 0, len(n.Content))
	for i, c := range n.Content {
		c = resolveAlias(c)
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s[%d]: must be a scalar, got %s", path, i, kindName(c))
		}
		if c.Tag == "!!null" {
			out = append(out, "null")
			continue
		}
		out = append(out, c.Value)
	}
	return out, nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolveAlias(n.Content[i+1])
		}
	}
	return nil
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}
