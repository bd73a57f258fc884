package transform

import (
	"context"
	"fmt"
	"strings"

	"kirum/internal/lexis"
	"kirum/internal/match"
)

// EtymonMode selects which of a node's etymons a global rule's etymon
// predicate is matched against.
type EtymonMode string

const (
	// EtymonFirst matches the etymon with the lowest agglutination order.
	EtymonFirst EtymonMode = "first"
	// EtymonAny matches if any etymon satisfies the predicate.
	EtymonAny EtymonMode = "any"
	// EtymonAll matches only if every etymon satisfies the predicate.
	EtymonAll EtymonMode = "all"
)

// ParseEtymonMode validates a mode name; the empty string means EtymonFirst.
func ParseEtymonMode(s string) (EtymonMode, error) {
	switch m := EtymonMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return EtymonFirst, nil
	case EtymonFirst, EtymonAny, EtymonAll:
		return m, nil
	}
	return "", fmt.Errorf("%w: etymon mode %q is not one of first, any, all", ErrMalformedArguments, s)
}

// Global is a lexicon-wide rule. Lexis is matched against the node being
// finalized and Etymon against its upstream etymons. A nil predicate is not
// declared. Rules with neither predicate never fire.
type Global struct {
	Name   string
	Lexis  match.Predicate
	Etymon match.Predicate
	Mode   EtymonMode
	Funcs  []Func
}

// Validate checks the rule's primitives and predicates.
func (g Global) Validate() error {
	if g.Lexis == nil && g.Etymon == nil {
		return fmt.Errorf("%w: global %q declares no conditional", ErrMalformedArguments, g.Name)
	}
	if _, err := ParseEtymonMode(string(g.Mode)); err != nil {
		return err
	}
	t := Transform{Name: g.label(), Funcs: g.Funcs}
	if err := t.Validate(); err != nil {
		return err
	}
	if err := match.Validate(g.Lexis); err != nil {
		return fmt.Errorf("global %q lexis conditional: %w", g.label(), err)
	}
	if err := match.Validate(g.Etymon); err != nil {
		return fmt.Errorf("global %q etymon conditional: %w", g.label(), err)
	}
	return nil
}

func (g Global) label() string {
	if g.Name != "" {
		return g.Name
	}
	return "global"
}

// Matches reports whether the rule fires for target with the given
// etymons, ordered by agglutination order.
func (g Global) Matches(target *lexis.Lexis, etymons []*lexis.Lexis) bool {
	if g.Lexis == nil && g.Etymon == nil {
		return false
	}
	if g.Lexis != nil && !g.Lexis.Match(target) {
		return false
	}
	if g.Etymon == nil {
		return true
	}
	if len(etymons) == 0 {
		return false
	}

	switch g.Mode {
	case EtymonAny:
		for _, e := range etymons {
			if g.Etymon.Match(e) {
				return true
			}
		}
		return false
	case EtymonAll:
		for _, e := range etymons {
			if !g.Etymon.Match(e) {
				return false
			}
		}
		return true
	}
	return g.Etymon.Match(etymons[0])
}

// Applier runs global rules, in declared order, against a finalized word.
type Applier struct {
	rules []Global
	exec  *Executor
}

// NewApplier validates rules and binds them to an executor.
func NewApplier(rules []Global, exec *Executor) (*Applier, error) {
	for i, g := range rules {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("global rule %d: %w", i, err)
		}
	}
	return &Applier{rules: append([]Global(nil), rules...), exec: exec}, nil
}

// Len returns the number of rules.
func (a *Applier) Len() int { return len(a.rules) }

// UsesScripts reports whether any rule contains a script primitive.
func (a *Applier) UsesScripts() bool {
	for _, g := range a.rules {
		if (Transform{Funcs: g.Funcs}).UsesScripts() {
			return true
		}
	}
	return false
}

// Apply runs every matching rule against word. The target lexis is the
// metadata source for script primitives.
func (a *Applier) Apply(ctx context.Context, word string, target *lexis.Lexis, etymons []*lexis.Lexis) (string, error) {
	for _, g := range a.rules {
		if !g.Matches(target, etymons) {
			continue
		}
		var err error
		word, err = a.exec.Run(ctx, Steps(Transform{Name: g.label(), Funcs: g.Funcs}), word, target, target.ID)
		if err != nil {
			return "", err
		}
	}
	return word, nil
}
