package match

import "errors"

// Predicate validation errors.
var (
	// ErrUnknownField is returned when a predicate names a field the engine does not recognize.
	ErrUnknownField = errors.New("unknown predicate field")

	// ErrMalformedArguments is returned when a predicate or primitive violates its argument schema.
	ErrMalformedArguments = errors.New("malformed arguments")
)
