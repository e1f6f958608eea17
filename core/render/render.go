// Package render walks resolved schema graphs and emits one render instruction per
// unique compound schema.
package render

import (
	"fmt"
	"io"

	"github.com/artpar/api2html/domain/schema"
	"github.com/artpar/api2html/ports"
	"github.com/rs/zerolog"
)

// Options configures what is passed through to the renderer.
type Options struct {
	IncludeDescription bool
}

// ProcessedSet records the ids of schemas already emitted during a pass.
type ProcessedSet map[string]struct{}

// Add records id and reports whether it was absent.
func (p ProcessedSet) Add(id string) bool {
	if _, ok := p[id]; ok {
		return false
	}
	p[id] = struct{}{}
	return true
}

// Has reports whether id was already emitted.
func (p ProcessedSet) Has(id string) bool {
	_, ok := p[id]
	return ok
}

// Pass holds the state of one render pass. It is created empty, grows while the
// pass runs and is discarded afterwards.
type Pass struct {
	Processed ProcessedSet

	Rendered   []string // emitted ids, in emission order
	Templates  []string // template used for each emitted id
	Duplicates int
	Missing    []string

	arrays map[string]bool // array ids on the current path
}

// NewPass creates an empty render pass.
func NewPass() *Pass {
	return &Pass{
		Processed: make(ProcessedSet),
		arrays:    make(map[string]bool),
	}
}

// Dispatcher walks schemas in pre-order and drives a renderer.
type Dispatcher struct {
	renderer ports.Renderer
	opts     Options
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher writing through renderer.
func NewDispatcher(renderer ports.Renderer, opts Options, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// RenderSelection renders the selected ids of m, in order. An empty selection
// renders every id of m in sorted order. Ids missing from m are logged and skipped.
func (d *Dispatcher) RenderSelection(w io.Writer, m *schema.Mapping, selection []string) (*Pass, error) {
	if len(selection) == 0 {
		selection = m.Keys()
	}

	pass := NewPass()
	for _, id := range selection {
		s, ok := m.Get(id)
		if !ok {
			d.logger.Warn().Err(schema.ErrMissingSelection).Str("id", id).Msg("cannot find schema")
			pass.Missing = append(pass.Missing, id)
			continue
		}
		if err := d.Render(w, s, pass); err != nil {
			return pass, err
		}
	}
	return pass, nil
}

// Render walks s:
//   - array: pass-through to its items
//   - composed with alternatives: emit "composed", then each alternative
//   - object with properties: emit "object", then each property
//   - anything else: nothing
//
// A schema whose id is already in the pass is neither emitted nor descended into.
func (d *Dispatcher) Render(w io.Writer, s *schema.Schema, pass *Pass) error {
	switch s.Kind {
	case schema.KindArray:
		if s.Items == nil {
			return nil
		}
		if pass.arrays[s.ID] {
			d.logger.Warn().Str("id", s.ID).Msg("array refers back to itself, not descending again")
			return nil
		}
		pass.arrays[s.ID] = true
		defer delete(pass.arrays, s.ID)
		return d.Render(w, s.Items, pass)

	case schema.KindComposed:
		if len(s.Alternatives) == 0 {
			return nil
		}
		if ok, err := d.emit(w, ports.TemplateComposed, s, pass); !ok || err != nil {
			return err
		}
		for _, alt := range s.Alternatives {
			if err := d.Render(w, alt, pass); err != nil {
				return err
			}
		}
		return nil

	case schema.KindObject:
		if len(s.Properties) == 0 {
			return nil
		}
		if ok, err := d.emit(w, ports.TemplateObject, s, pass); !ok || err != nil {
			return err
		}
		for _, p := range s.Properties {
			if err := d.Render(w, p.Schema, pass); err != nil {
				return err
			}
		}
		return nil

	case schema.KindString, schema.KindBoolean, schema.KindInteger, schema.KindNumber:
		return nil

	default:
		return fmt.Errorf("render %s: unsupported kind %q", s.ID, s.Kind)
	}
}

// emit renders s unless its id was already processed. It reports whether the
// caller should descend into the children.
func (d *Dispatcher) emit(w io.Writer, template string, s *schema.Schema, pass *Pass) (bool, error) {
	if !pass.Processed.Add(s.ID) {
		d.logger.Info().Str("id", s.ID).Msg("schema rendered already")
		pass.Duplicates++
		return false, nil
	}

	if err := d.renderer.Render(w, template, s, d.opts.IncludeDescription); err != nil {
		return false, fmt.Errorf("render %s with %s template: %w", s.ID, template, err)
	}
	pass.Rendered = append(pass.Rendered, s.ID)
	pass.Templates = append(pass.Templates, template)
	return true, nil
}
