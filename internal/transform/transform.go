// Package transform holds the primitive string operations, named transforms
// built from them, and the executor that runs them against a word.
package transform

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"kirum/internal/lexis"
	"kirum/internal/match"
)

// Transform is a named, ordered list of primitives. When, if set, is matched
// against the source lexis the word is transformed from.
type Transform struct {
	Name  string
	When  match.Predicate
	Funcs []Func
}

// Validate checks the name, every primitive and the conditional.
func (t Transform) Validate() error {
	if t.Name == "" {
		return ErrNameEmpty
	}
	for _, f := range t.Funcs {
		if err := f.Validate(); err != nil {
			if ae, ok := err.(*ArgumentError); ok {
				ae.Transform = t.Name
			}
			return err
		}
	}
	if err := match.Validate(t.When); err != nil {
		return fmt.Errorf("transform %q conditional: %w", t.Name, err)
	}
	return nil
}

// Equal reports whether t and o define the same transform. Nil and empty
// primitive lists compare equal.
func (t Transform) Equal(o Transform) bool {
	return t.Name == o.Name &&
		slices.EqualFunc(t.Funcs, o.Funcs, Func.Equal) &&
		match.Equal(t.When, o.When)
}

// UsesScripts reports whether any primitive is a script transform.
func (t Transform) UsesScripts() bool {
	for _, f := range t.Funcs {
		if f.Kind == KindScript {
			return true
		}
	}
	return false
}

func (t Transform) String() string {
	parts := make([]string, len(t.Funcs))
	for i, f := range t.Funcs {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s[%s]", t.Name, strings.Join(parts, ", "))
}

// ScriptInput is the metadata a script transform receives alongside the word.
type ScriptInput struct {
	Word         string
	PartOfSpeech lexis.PartOfSpeech
	Language     string
	Tags         []string
	Archaic      bool
	Historical   []string
}

// InputFor builds a ScriptInput from the word and source lexis.
func InputFor(word string, src *lexis.Lexis) ScriptInput {
	in := ScriptInput{Word: word}
	if src != nil {
		in.PartOfSpeech = src.POS
		in.Language = src.Language
		in.Tags = append([]string(nil), src.Tags...)
		in.Archaic = src.Archaic
		in.Historical = append([]string(nil), src.Historical...)
	}
	return in
}

// Scripter runs a user script as a single transform primitive.
type Scripter interface {
	TransformWord(ctx context.Context, file string, in ScriptInput) (string, error)
}

// ScripterFunc adapts a function to the Scripter interface.
type ScripterFunc func(ctx context.Context, file string, in ScriptInput) (string, error)

func (f ScripterFunc) TransformWord(ctx context.Context, file string, in ScriptInput) (string, error) {
	return f(ctx, file, in)
}
