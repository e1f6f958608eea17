// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and core/formatter.
package ports

import (
	"io"

	"github.com/artpar/api2html/domain/schema"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Document Ports
// -----------------------------------------------------------------------------

// DocumentParser reads an API description document into raw schemas.
type DocumentParser interface {
	// ParseFile parses the document at path.
	ParseFile(path string) (*schema.Document, error)

	// Parse parses a document from memory.
	Parse(data []byte) (*schema.Document, error)
}

// Template names passed to Renderer.Render.
const (
	TemplateComposed = "composed"
	TemplateObject   = "object"
)

// Renderer turns resolved schemas into formatted text.
type Renderer interface {
	// Begin writes whatever precedes the first fragment.
	Begin(w io.Writer, doc *schema.Document) error

	// Render writes one fragment for s using the named template.
	Render(w io.Writer, template string, s *schema.Schema, includeDescription bool) error

	// End writes whatever follows the last fragment.
	End(w io.Writer) error
}
