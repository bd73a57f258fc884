package script

import "errors"

// Script runtime errors.
var (
	// ErrForbiddenImport is returned when a script imports a package outside the allow-list.
	ErrForbiddenImport = errors.New("forbidden import")

	// ErrMissingFunction is returned when a script does not declare Transform.
	ErrMissingFunction = errors.New("script does not declare Transform")

	// ErrBadSignature is returned when Transform has the wrong type.
	ErrBadSignature = errors.New("Transform has incorrect signature (expected: func(string, map[string]interface{}) (string, error))")

	// ErrPanic is returned when a script panics.
	ErrPanic = errors.New("script panicked")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script timed out")
)
