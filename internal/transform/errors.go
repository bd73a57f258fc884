package transform

import (
	"errors"
	"fmt"

	"kirum/internal/lexis"
	"kirum/internal/match"
)

// Transform errors. ErrUnknownReference and ErrMalformedArguments are shared
// with the packages that also raise them, so errors.Is works across layers.
var (
	ErrUnknownReference   = lexis.ErrUnknownReference
	ErrMalformedArguments = match.ErrMalformedArguments

	// ErrScriptTransformFailure is returned when the script runtime reports an error.
	ErrScriptTransformFailure = errors.New("script transform failed")

	// ErrNoScriptRuntime is returned when a script transform is loaded without a runtime to run it.
	ErrNoScriptRuntime = errors.New("no script runtime configured")

	// ErrNameEmpty is returned when registering a transform without a name.
	ErrNameEmpty = errors.New("transform name cannot be empty")

	// ErrAlreadyRegistered is returned when registering a duplicate transform name.
	ErrAlreadyRegistered = errors.New("transform already registered")
)

// ArgumentError reports a primitive whose arguments violate its schema.
type ArgumentError struct {
	Transform string
	Kind      Kind
	Arg       string
	Reason    string
}

func (e *ArgumentError) Error() string {
	where := string(e.Kind)
	if e.Transform != "" {
		where = fmt.Sprintf("%s in transform %q", e.Kind, e.Transform)
	}
	return fmt.Sprintf("%s: %s: %s %s", ErrMalformedArguments, where, e.Arg, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrMalformedArguments }

// ScriptError reports a failed script transform with the node and file involved.
type ScriptError struct {
	NodeID    string
	Transform string
	File      string
	Err       error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: lexis %q, transform %q, file %s: %v", ErrScriptTransformFailure, e.NodeID, e.Transform, e.File, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

func (e *ScriptError) Is(target error) bool { return target == ErrScriptTransformFailure }
