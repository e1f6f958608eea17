package render_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/artpar/api2html/core/render"
	"github.com/artpar/api2html/core/resolver"
	"github.com/artpar/api2html/domain/schema"
	"github.com/rs/zerolog"
)

type call struct {
	template string
	id       string
	desc     bool
}

// recorder is a renderer that records every call and writes one line per call.
type recorder struct {
	calls []call
	fail  string
}

func (r *recorder) Begin(w io.Writer, doc *schema.Document) error { return nil }
func (r *recorder) End(w io.Writer) error                         { return nil }

func (r *recorder) Render(w io.Writer, template string, s *schema.Schema, includeDescription bool) error {
	if s.ID == r.fail {
		return errors.New("boom")
	}
	r.calls = append(r.calls, call{template, s.ID, includeDescription})
	_, err := fmt.Fprintf(w, "%s %s %s\n", template, s.ID, s.Title)
	return err
}

func (r *recorder) ids() []string {
	var out []string
	for _, c := range r.calls {
		out = append(out, c.template+":"+c.id)
	}
	return out
}

func ref(id string) *schema.RawSchema {
	return &schema.RawSchema{Ref: resolver.RefPrefix + id}
}

func obj(props ...schema.NamedRaw) *schema.RawSchema {
	return &schema.RawSchema{Kind: schema.KindObject, Properties: props}
}

func prop(name string, raw *schema.RawSchema) schema.NamedRaw {
	return schema.NamedRaw{Name: name, Schema: raw}
}

func resolve(t *testing.T, entries ...schema.NamedRaw) *schema.Mapping {
	t.Helper()
	m, err := resolver.New(&schema.Document{Schemas: entries}, zerolog.Nop()).ResolveAll()
	if err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	return m
}

func TestRenderSelection_SharedSchemaRenderedOnce(t *testing.T) {
	m := resolve(t,
		prop("A", obj(prop("shared", ref("Shared")))),
		prop("B", obj(prop("shared", ref("Shared")))),
		prop("Shared", obj(prop("name", &schema.RawSchema{Kind: schema.KindString}))),
	)

	rec := &recorder{}
	var logs bytes.Buffer
	d := render.NewDispatcher(rec, render.Options{IncludeDescription: true}, zerolog.New(&logs))

	pass, err := d.RenderSelection(io.Discard, m, nil)
	if err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}

	want := []string{"object:A", "object:Shared", "object:B"}
	if got := rec.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if pass.Duplicates != 2 {
		// Shared is reached again from B and again as a selected id.
		t.Errorf("Duplicates = %d, want 2", pass.Duplicates)
	}
	if !strings.Contains(logs.String(), "rendered already") {
		t.Errorf("expected duplicate notice, got %q", logs.String())
	}
	for _, c := range rec.calls {
		if !c.desc {
			t.Errorf("includeDescription not passed through for %s", c.id)
		}
	}
}

func TestRender_SelfReferenceTerminates(t *testing.T) {
	m := resolve(t, prop("Node", obj(prop("next", ref("Node")))))

	rec := &recorder{}
	d := render.NewDispatcher(rec, render.Options{}, zerolog.Nop())
	if _, err := d.RenderSelection(io.Discard, m, nil); err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}
	if got := rec.ids(); !reflect.DeepEqual(got, []string{"object:Node"}) {
		t.Errorf("calls = %v", got)
	}
}

func TestRender_MutualCycleThroughArray(t *testing.T) {
	m := resolve(t,
		prop("Parent", obj(prop("children", &schema.RawSchema{Kind: schema.KindArray, Items: ref("Child")}))),
		prop("Child", obj(prop("parent", ref("Parent")))),
	)

	rec := &recorder{}
	d := render.NewDispatcher(rec, render.Options{}, zerolog.Nop())
	if _, err := d.RenderSelection(io.Discard, m, []string{"Parent"}); err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}
	if got := rec.ids(); !reflect.DeepEqual(got, []string{"object:Parent", "object:Child"}) {
		t.Errorf("calls = %v", got)
	}
}

func TestRender_Composed(t *testing.T) {
	m := resolve(t,
		prop("Cat", obj(prop("meow", &schema.RawSchema{Kind: schema.KindBoolean}))),
		prop("Dog", obj(prop("bark", &schema.RawSchema{Kind: schema.KindBoolean}))),
		prop("Pet", &schema.RawSchema{Kind: schema.KindComposed, OneOf: []*schema.RawSchema{ref("Dog"), ref("Cat")}}),
	)

	rec := &recorder{}
	d := render.NewDispatcher(rec, render.Options{}, zerolog.Nop())
	if _, err := d.RenderSelection(io.Discard, m, []string{"Pet"}); err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}
	want := []string{"composed:Pet", "object:Dog", "object:Cat"}
	if got := rec.ids(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestRender_NothingForLeavesAndEmptyContainers(t *testing.T) {
	tests := []struct {
		name string
		s    *schema.Schema
	}{
		{"empty object", &schema.Schema{ID: "E", Kind: schema.KindObject, Title: "E"}},
		{"empty composed", &schema.Schema{ID: "C", Kind: schema.KindComposed, Title: "C"}},
		{"string", &schema.Schema{ID: "S", Kind: schema.KindString, Title: "String"}},
		{"boolean", &schema.Schema{ID: "B", Kind: schema.KindBoolean, Title: "boolean"}},
		{"integer", &schema.Schema{ID: "I", Kind: schema.KindInteger, Title: "I"}},
		{"array without items", &schema.Schema{ID: "L", Kind: schema.KindArray, Title: "L"}},
		{"array of strings", &schema.Schema{ID: "L", Kind: schema.KindArray, Items: &schema.Schema{ID: "L[]", Kind: schema.KindString}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := render.NewDispatcher(rec, render.Options{}, zerolog.Nop())
			pass := render.NewPass()
			if err := d.Render(io.Discard, tt.s, pass); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if len(rec.calls) != 0 || len(pass.Processed) != 0 {
				t.Errorf("expected no render instruction, got %v", rec.ids())
			}
		})
	}
}

func TestRender_ArrayPassThrough(t *testing.T) {
	item := &schema.Schema{ID: "Item", Kind: schema.KindObject, Properties: []schema.Property{
		{Name: "x", Schema: &schema.Schema{ID: "Item.x", Kind: schema.KindString}},
	}}
	list := &schema.Schema{ID: "List", Kind: schema.KindArray, Items: &schema.Schema{ID: "List[]", Kind: schema.KindArray, Items: item}}

	rec := &recorder{}
	d := render.NewDispatcher(rec, render.Options{}, zerolog.Nop())
	if err := d.Render(io.Discard, list, render.NewPass()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := rec.ids(); !reflect.DeepEqual(got, []string{"object:Item"}) {
		t.Errorf("calls = %v", got)
	}
}

func TestRender_ArraySelfReferenceTerminates(t *testing.T) {
	m := resolve(t, prop("Loop", &schema.RawSchema{Kind: schema.KindArray, Items: ref("Loop")}))

	loop, _ := m.Get("Loop")
	if loop.Items != loop {
		t.Fatal("fixture: Loop.items should be Loop itself")
	}

	rec := &recorder{}
	var logs bytes.Buffer
	d := render.NewDispatcher(rec, render.Options{}, zerolog.New(&logs))
	if _, err := d.RenderSelection(io.Discard, m, nil); err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %v, want none", rec.ids())
	}
	if !strings.Contains(logs.String(), "refers back to itself") {
		t.Errorf("expected self-reference warning, got %q", logs.String())
	}
}

func TestRenderSelection_MissingIDIsSkipped(t *testing.T) {
	m := resolve(t,
		prop("A", obj(prop("x", &schema.RawSchema{Kind: schema.KindString}))),
		prop("B", obj(prop("y", &schema.RawSchema{Kind: schema.KindString}))),
	)

	rec := &recorder{}
	var logs bytes.Buffer
	d := render.NewDispatcher(rec, render.Options{}, zerolog.New(&logs))

	pass, err := d.RenderSelection(io.Discard, m, []string{"B", "Nope", "A"})
	if err != nil {
		t.Fatalf("RenderSelection failed: %v", err)
	}
	if got := rec.ids(); !reflect.DeepEqual(got, []string{"object:B", "object:A"}) {
		t.Errorf("calls = %v", got)
	}
	if !reflect.DeepEqual(pass.Missing, []string{"Nope"}) {
		t.Errorf("Missing = %v", pass.Missing)
	}
	if !strings.Contains(logs.String(), "cannot find schema") || !strings.Contains(logs.String(), `"level":"warn"`) {
		t.Errorf("expected warning, got %q", logs.String())
	}
}

func TestRenderSelection_Deterministic(t *testing.T) {
	m := resolve(t,
		prop("Zoo", obj(prop("animals", &schema.RawSchema{Kind: schema.KindArray, Items: ref("Animal")}), prop("keeper", ref("Person")))),
		prop("Animal", &schema.RawSchema{Kind: schema.KindComposed, OneOf: []*schema.RawSchema{ref("Cat"), ref("Person")}}),
		prop("Cat", obj(prop("owner", ref("Person")))),
		prop("Person", obj(prop("pets", &schema.RawSchema{Kind: schema.KindArray, Items: ref("Animal")}))),
	)

	run := func() string {
		var buf bytes.Buffer
		d := render.NewDispatcher(&recorder{}, render.Options{}, zerolog.Nop())
		if _, err := d.RenderSelection(&buf, m, nil); err != nil {
			t.Fatalf("RenderSelection failed: %v", err)
		}
		return buf.String()
	}

	first, second := run(), run()
	if first != second {
		t.Errorf("output differs between runs:\n%s\n---\n%s", first, second)
	}
	if strings.Count(first, "\n") != 4 {
		t.Errorf("expected 4 fragments, got:\n%s", first)
	}
}

func TestRender_RendererErrorPropagates(t *testing.T) {
	m := resolve(t,
		prop("A", obj(prop("b", ref("B")))),
		prop("B", obj(prop("x", &schema.RawSchema{Kind: schema.KindString}))),
	)

	d := render.NewDispatcher(&recorder{fail: "B"}, render.Options{}, zerolog.Nop())
	_, err := d.RenderSelection(io.Discard, m, nil)
	if err == nil || !strings.Contains(err.Error(), "render B with object template") {
		t.Errorf("expected wrapped renderer error, got %v", err)
	}
}

func TestProcessedSet(t *testing.T) {
	p := make(render.ProcessedSet)
	if !p.Add("a") {
		t.Error("first Add should report true")
	}
	if p.Add("a") {
		t.Error("second Add should report false")
	}
	if !p.Has("a") || p.Has("b") {
		t.Error("Has reported wrong membership")
	}
}
