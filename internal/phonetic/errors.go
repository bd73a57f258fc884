package phonetic

import (
	"errors"
	"fmt"
	"strings"
)

// Phonetic engine errors.
var (
	// ErrUnknownGroupOrKey is returned when a pattern references an undeclared
	// group or a generation key has no shapes.
	ErrUnknownGroupOrKey = errors.New("unknown phonetic group or key")

	// ErrRecursionLimitExceeded is returned when group expansion nests past the depth bound.
	ErrRecursionLimitExceeded = errors.New("phonetic recursion limit exceeded")

	// ErrEmptyPattern is returned when a pattern has no symbols.
	ErrEmptyPattern = errors.New("empty phonetic pattern")

	// ErrDuplicateKey is returned when merging rulesets that declare the same group or shape.
	ErrDuplicateKey = errors.New("duplicate phonetic key")
)

// UnknownError names the undeclared symbol and where it was used.
type UnknownError struct {
	Name string
	In   string
}

func (e *UnknownError) Error() string {
	if e.In == "" {
		return fmt.Sprintf("%s: %q", ErrUnknownGroupOrKey, e.Name)
	}
	return fmt.Sprintf("%s: %q referenced from %s", ErrUnknownGroupOrKey, e.Name, e.In)
}

func (e *UnknownError) Unwrap() error { return ErrUnknownGroupOrKey }

// RecursionError reports the group chain that hit the depth bound.
type RecursionError struct {
	Key   string
	Chain []string
	Limit int
}

func (e *RecursionError) Error() string {
	chain := e.Chain
	if len(chain) > 8 {
		chain = append(append([]string{}, chain[:4]...), append([]string{"..."}, chain[len(chain)-4:]...)...)
	}
	return fmt.Sprintf("%s: key %q exceeded depth %d via %s", ErrRecursionLimitExceeded, e.Key, e.Limit, strings.Join(chain, " -> "))
}

func (e *RecursionError) Unwrap() error { return ErrRecursionLimitExceeded }
