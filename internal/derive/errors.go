package derive

import (
	"errors"
	"fmt"
	"strings"
)

// Evaluation errors.
var (
	// ErrCycleDetected is returned when a lexis is reached again while it is being resolved.
	ErrCycleDetected = errors.New("etymology cycle detected")

	// ErrUnderspecifiedLexis is returned for a lexis with no word, generation key or etymons.
	ErrUnderspecifiedLexis = errors.New("lexis has no word, generation key or etymons")

	// ErrDepthLimitExceeded is returned when an etymon chain is deeper than the configured bound.
	ErrDepthLimitExceeded = errors.New("etymology depth limit exceeded")
)

// CycleError carries the id chain that closed the cycle. The first and last
// ids are the same.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// NodeError attributes a failure to the lexis being resolved.
type NodeError struct {
	ID  string
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("lexis %q: %v", e.ID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
