// Package resolver turns the raw schemas of a document into a closed, normalized
// schema graph.
//
// Resolution runs in two steps. Every non-reference top-level schema is first
// registered as a node (id, kind and title), so that any $ref in the document can
// be answered with the node for its target, including forward and self references.
// Each registered node is then normalized once: its nested references are replaced
// with the registered target nodes and inline children are built as fresh nodes.
// A reference site never re-descends into its target, so reference cycles survive
// only as pointers back to registered nodes and resolution always terminates.
package resolver

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/api2html/domain/schema"
	"github.com/rs/zerolog"
)

// RefPrefix is the only reference scheme understood by the resolver.
const RefPrefix = "#/components/schemas/"

// Resolver resolves the schemas of one document.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	doc    *schema.Document
	logger zerolog.Logger

	raw   map[string]*schema.RawSchema // declared key -> raw definition
	nodes map[string]*schema.Schema    // declared key -> registered node (non-references only)
}

// New creates a resolver for doc.
func New(doc *schema.Document, logger zerolog.Logger) *Resolver {
	return &Resolver{
		doc:    doc,
		logger: logger,
	}
}

// ResolveAll resolves every schema of the document and returns the canonical
// mapping, keyed by the capitalized declared name.
func (r *Resolver) ResolveAll() (*schema.Mapping, error) {
	r.register()

	named, err := r.resolveNamed("", r.doc.Schemas, false)
	if err != nil {
		return nil, err
	}

	m := schema.NewMapping()
	for _, n := range named {
		m.Set(n.key, n.schema)
	}

	r.logger.Debug().Int("schemas", m.Len()).Msg("schemas resolved")
	return m, nil
}

// Resolve returns the registered schema a reference points to. References to
// entries that are themselves references are followed.
func (r *Resolver) Resolve(ref string) (*schema.Schema, error) {
	return r.resolveFrom("", ref)
}

// RefID returns the schema name a reference points to.
func RefID(ref string) (string, error) {
	id, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok || id == "" {
		return "", &schema.ReferenceError{Ref: ref, Err: schema.ErrInvalidReference}
	}
	// JSON pointer escaping
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(id), nil
}

func (r *Resolver) register() {
	r.raw = make(map[string]*schema.RawSchema, len(r.doc.Schemas))
	r.nodes = make(map[string]*schema.Schema, len(r.doc.Schemas))

	for _, e := range r.doc.Schemas {
		r.raw[e.Name] = e.Schema
		if e.Schema.IsReference() {
			continue
		}
		node := newNode(e.Name, e.Schema)
		schema.AssignTitle(e.Name, e.Schema, node)
		r.nodes[e.Name] = node
	}
}

func (r *Resolver) resolveFrom(from, ref string) (*schema.Schema, error) {
	seen := make(map[string]bool)
	next := ref
	for {
		id, err := RefID(next)
		if err != nil {
			return nil, &schema.ReferenceError{From: from, Ref: next, Err: schema.ErrInvalidReference}
		}
		if node, ok := r.nodes[id]; ok {
			return node, nil
		}
		raw, ok := r.raw[id]
		if !ok || seen[id] {
			return nil, &schema.ReferenceError{From: from, Ref: ref, Err: schema.ErrDanglingReference}
		}
		seen[id] = true
		next = raw.Ref
	}
}

type named struct {
	key    string
	name   string
	schema *schema.Schema
}

// resolveNamed resolves a collection of named schemas. Top-level schemas are
// keyed by their capitalized name and normalized in place; fields (forFields)
// are keyed by their un-capitalized name and built as fresh child nodes of parent.
// The result is sorted by key.
func (r *Resolver) resolveNamed(parent string, entries []schema.NamedRaw, forFields bool) ([]named, error) {
	byKey := make(map[string]named, len(entries))

	for _, e := range entries {
		var (
			node *schema.Schema
			err  error
		)
		switch {
		case e.Schema.IsReference():
			from := parent
			if !forFields {
				from = e.Name
			}
			node, err = r.resolveFrom(from, e.Schema.Ref)
			if !forFields && errors.Is(err, schema.ErrDanglingReference) {
				err = &schema.ReferenceError{From: e.Name, Ref: e.Schema.Ref, Err: schema.ErrUnresolvableReference}
			}
		case forFields:
			node, err = r.child(parent, parent+"."+e.Name, e.Name, e.Schema)
		default:
			node = r.nodes[e.Name]
			err = r.normalize(e.Name, e.Schema, node)
		}
		if err != nil {
			return nil, err
		}

		key := schema.Capitalize(e.Name)
		if forFields {
			key = schema.Uncapitalize(e.Name)
		}
		if prev, ok := byKey[key]; ok {
			r.logger.Warn().
				Str("key", key).
				Str("previous", prev.name).
				Str("name", e.Name).
				Str("parent", parent).
				Msg("names collide after re-casing, keeping the last one")
		}
		byKey[key] = named{key: key, name: e.Name, schema: node}
	}

	out := make([]named, 0, len(byKey))
	for _, n := range byKey {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

// child resolves a nested schema: references resolve to the registered target,
// inline definitions become a fresh node identified by path and titled from name,
// the same way registration titles top-level nodes.
func (r *Resolver) child(parent, path, name string, raw *schema.RawSchema) (*schema.Schema, error) {
	if raw.IsReference() {
		return r.resolveFrom(parent, raw.Ref)
	}
	node := newNode(path, raw)
	schema.AssignTitle(name, raw, node)
	if err := r.normalize(name, raw, node); err != nil {
		return nil, err
	}
	return node, nil
}

// normalize fills node's children from raw and titles it. Compound schemas with
// children are not titled here: they keep the title they were created with.
func (r *Resolver) normalize(name string, raw *schema.RawSchema, node *schema.Schema) error {
	switch node.Kind {
	case schema.KindArray:
		if raw.Items != nil {
			items, err := r.child(node.ID, node.ID+"[]", name+"Item", raw.Items)
			if err != nil {
				return err
			}
			node.Items = items
		}

	case schema.KindComposed:
		if len(raw.OneOf) > 0 {
			node.Alternatives = make([]*schema.Schema, 0, len(raw.OneOf))
			for i, alt := range raw.OneOf {
				c, err := r.child(node.ID, node.ID+"|"+strconv.Itoa(i), name+"Option"+strconv.Itoa(i+1), alt)
				if err != nil {
					return err
				}
				node.Alternatives = append(node.Alternatives, c)
			}
			return nil
		}

	case schema.KindObject:
		if len(raw.Properties) > 0 {
			props, err := r.resolveNamed(node.ID, raw.Properties, true)
			if err != nil {
				return err
			}
			required := make(map[string]bool, len(raw.Required))
			for _, n := range raw.Required {
				required[n] = true
			}
			node.Properties = make([]schema.Property, 0, len(props))
			for _, p := range props {
				node.Properties = append(node.Properties, schema.Property{
					Name:     p.key,
					Schema:   p.schema,
					Required: required[p.name],
				})
			}
			return nil
		}

	case schema.KindString, schema.KindBoolean, schema.KindInteger, schema.KindNumber:

	default:
		return fmt.Errorf("schema %s: unsupported kind %q", node.ID, node.Kind)
	}

	schema.AssignTitle(name, raw, node)
	return nil
}

func newNode(id string, raw *schema.RawSchema) *schema.Schema {
	if raw.ID != "" {
		id = raw.ID
	}
	return &schema.Schema{
		ID:          id,
		Kind:        raw.Kind,
		Title:       raw.Title,
		Description: raw.Description,
		Format:      raw.Format,
	}
}
