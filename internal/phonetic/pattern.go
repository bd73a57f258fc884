package phonetic

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/shlex"
	"github.com/rivo/uniseg"
)

// Symbol is one element of a pattern: a literal phoneme or a group reference.
type Symbol struct {
	Value string
	Ref   bool
}

// Pattern is a sequence of symbols expanded left to right.
type Pattern []Symbol

// ParsePattern parses a word shape. A pattern containing whitespace is split
// into tokens (shell-style, so quoted tokens may hold spaces); otherwise every
// grapheme is its own token. A token is a group reference when it has letters
// and none of them is lowercase.
func ParsePattern(s string) (Pattern, error) {
	var tokens []string
	if strings.ContainsFunc(strings.TrimSpace(s), unicode.IsSpace) {
		var err error
		tokens, err = shlex.Split(s)
		if err != nil {
			return nil, fmt.Errorf("failed to split pattern %q: %w", s, err)
		}
	} else {
		g := uniseg.NewGraphemes(strings.TrimSpace(s))
		for g.Next() {
			tokens = append(tokens, g.Str())
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyPattern, s)
	}

	p := make(Pattern, len(tokens))
	for i, tok := range tokens {
		p[i] = Symbol{Value: tok, Ref: isReference(tok)}
	}
	return p, nil
}

// MustParsePattern is ParsePattern for static patterns; it panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePatterns parses each string with ParsePattern.
func ParsePatterns(ss ...string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(ss))
	for _, s := range ss {
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func isReference(tok string) bool {
	letters := false
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Value
	}
	return strings.Join(parts, " ")
}
