package lexis

import (
	"errors"
	"fmt"
)

// Graph errors.
var (
	// ErrUnknownReference is returned when an etymon or transform id does not resolve.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrDuplicateID is returned when two entries share an identifier.
	ErrDuplicateID = errors.New("duplicate lexis id")

	// ErrEmptyID is returned when an entry has no identifier.
	ErrEmptyID = errors.New("lexis id cannot be empty")
)

// ReferenceError locates a dangling reference in source data.
type ReferenceError struct {
	// Kind is what was referenced: "lexis", "etymon" or "transform".
	Kind string
	// From is the id of the entry holding the reference. Empty for direct lookups.
	From string
	// Ref is the id that could not be resolved.
	Ref string
}

func (e *ReferenceError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("%s: %s %q", ErrUnknownReference, e.Kind, e.Ref)
	}
	return fmt.Sprintf("%s: %s %q referenced by %q", ErrUnknownReference, e.Kind, e.Ref, e.From)
}

func (e *ReferenceError) Unwrap() error { return ErrUnknownReference }
