package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidReference means a $ref does not use the #/components/schemas/ scheme.
	ErrInvalidReference = errors.New("invalid schema reference")

	// ErrDanglingReference means a $ref names a schema that is not declared.
	ErrDanglingReference = errors.New("dangling schema reference")

	// ErrUnresolvableReference means a top-level entry is a $ref that cannot be resolved.
	ErrUnresolvableReference = fmt.Errorf("unresolvable top-level entry: %w", ErrDanglingReference)

	// ErrMissingSelection means a selected id is absent from the resolved mapping.
	ErrMissingSelection = errors.New("selected schema not found")
)

// ReferenceError reports a $ref that could not be resolved.
type ReferenceError struct {
	From string // id of the schema holding the reference, if known
	Ref  string
	Err  error
}

func (e *ReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Ref)
	}
	return fmt.Sprintf("%s: %v: %q", e.From, e.Err, e.Ref)
}

func (e *ReferenceError) Unwrap() error { return e.Err }
