// Package match evaluates conditional predicates against lexis fields.
//
// A predicate is a small closed tree: FieldMatch leaves compare one field with
// a literal, Not negates, All conjoins. Trees are validated once, when the
// transform that owns them is loaded, so evaluation itself cannot fail.
package match

import (
	"fmt"
	"slices"
	"strings"

	"kirum/internal/lexis"
)

// Op selects how a field is compared.
type Op int

const (
	// OpEquals compares a scalar exactly, or requires every literal to be present in a set field.
	OpEquals Op = iota
	// OpOneOf requires the scalar to be one of the literals, or a set field to share at least one.
	OpOneOf
)

func (o Op) String() string {
	if o == OpOneOf {
		return "oneof"
	}
	return "equals"
}

// Comparator is an Op with its literal operands.
type Comparator struct {
	Op     Op
	Values []string
}

// Equals builds an equals comparator.
func Equals(values ...string) Comparator {
	return Comparator{Op: OpEquals, Values: values}
}

// OneOf builds a oneof comparator.
func OneOf(values ...string) Comparator {
	return Comparator{Op: OpOneOf, Values: values}
}

// Predicate is satisfied by some lexis snapshots. The set of implementations
// is closed: FieldMatch, Not and All.
type Predicate interface {
	Match(l *lexis.Lexis) bool
	String() string
	validate() error
}

// Validate checks field names and comparator shapes throughout the tree.
// A nil predicate is valid and matches everything.
func Validate(p Predicate) error {
	if p == nil {
		return nil
	}
	return p.validate()
}

// Matches evaluates p, treating nil as always true.
func Matches(p Predicate, l *lexis.Lexis) bool {
	if p == nil {
		return true
	}
	return p.Match(l)
}

// FieldMatch compares one named field.
type FieldMatch struct {
	Field string
	Cmp   Comparator
}

// Field builds a FieldMatch.
func Field(name string, cmp Comparator) FieldMatch {
	return FieldMatch{Field: name, Cmp: cmp}
}

func (f FieldMatch) Match(l *lexis.Lexis) bool {
	fd, ok := lookupField(f.Field)
	if !ok {
		return false
	}
	values := fd.get(l)
	if fd.kind == scalarField {
		v := values[0]
		if f.Cmp.Op == OpOneOf {
			return slices.Contains(f.Cmp.Values, v)
		}
		return len(f.Cmp.Values) == 1 && f.Cmp.Values[0] == v
	}
	if f.Cmp.Op == OpOneOf {
		for _, want := range f.Cmp.Values {
			if slices.Contains(values, want) {
				return true
			}
		}
		return false
	}
	for _, want := range f.Cmp.Values {
		if !slices.Contains(values, want) {
			return false
		}
	}
	return true
}

func (f FieldMatch) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Cmp.Op, f.Cmp.Values)
}

func (f FieldMatch) validate() error {
	fd, ok := lookupField(f.Field)
	if !ok {
		return fmt.Errorf("%w: %q (known: %s)", ErrUnknownField, f.Field, strings.Join(Fields(), ", "))
	}
	if len(f.Cmp.Values) == 0 {
		return fmt.Errorf("%w: %s on %q needs at least one value", ErrMalformedArguments, f.Cmp.Op, f.Field)
	}
	if fd.kind == scalarField && f.Cmp.Op == OpEquals && len(f.Cmp.Values) > 1 {
		return fmt.Errorf("%w: equals on scalar field %q takes a single value, got %d", ErrMalformedArguments, f.Field, len(f.Cmp.Values))
	}
	if f.Cmp.Op != OpEquals && f.Cmp.Op != OpOneOf {
		return fmt.Errorf("%w: unknown comparator %d on %q", ErrMalformedArguments, int(f.Cmp.Op), f.Field)
	}
	return nil
}

// Not inverts its inner predicate.
type Not struct {
	Inner Predicate
}

// Negate wraps p in Not.
func Negate(p Predicate) Not {
	return Not{Inner: p}
}

func (n Not) Match(l *lexis.Lexis) bool {
	return !n.Inner.Match(l)
}

func (n Not) String() string {
	return "not(" + n.Inner.String() + ")"
}

func (n Not) validate() error {
	if n.Inner == nil {
		return fmt.Errorf("%w: not requires an inner predicate", ErrMalformedArguments)
	}
	return n.Inner.validate()
}

// All is satisfied when every member is. An empty All matches everything.
type All []Predicate

func (a All) Match(l *lexis.Lexis) bool {
	for _, p := range a {
		if !p.Match(l) {
			return false
		}
	}
	return true
}

func (a All) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return "all(" + strings.Join(parts, ", ") + ")"
}

func (a All) validate() error {
	for _, p := range a {
		if p == nil {
			return fmt.Errorf("%w: nil member in all", ErrMalformedArguments)
		}
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether a and b are the same predicate tree. Nil and empty
// value lists compare equal.
func Equal(a, b Predicate) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case FieldMatch:
		y, ok := b.(FieldMatch)
		return ok && x.Field == y.Field && x.Cmp.Op == y.Cmp.Op && slices.Equal(x.Cmp.Values, y.Cmp.Values)
	case Not:
		y, ok := b.(Not)
		return ok && Equal(x.Inner, y.Inner)
	case All:
		y, ok := b.(All)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return false
}
