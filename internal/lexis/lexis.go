// Package lexis holds the lexical entries of a language family and the
// etymological edges between them.
//
// Nodes live in an arena keyed by their stable identifier; edges are stored
// on the derived entry as etymon id lists, so the graph never holds pointer
// cycles and can be cloned cheaply.
package lexis

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// PartOfSpeech classifies a lexis. The zero value is None.
type PartOfSpeech int

const (
	None PartOfSpeech = iota
	Noun
	Verb
	Adjective
)

var posNames = map[PartOfSpeech]string{
	None:      "none",
	Noun:      "noun",
	Verb:      "verb",
	Adjective: "adjective",
}

func (p PartOfSpeech) String() string {
	if name, ok := posNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PartOfSpeech(%d)", int(p))
}

// ParsePartOfSpeech parses the lowercase name of a part of speech.
// The empty string parses as None.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "noun":
		return Noun, nil
	case "verb":
		return Verb, nil
	case "adjective", "adj":
		return Adjective, nil
	}
	return None, fmt.Errorf("invalid part of speech value %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p PartOfSpeech) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PartOfSpeech) UnmarshalText(b []byte) error {
	parsed, err := ParsePartOfSpeech(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Etymon is a directed edge from a derived lexis to one ancestor.
type Etymon struct {
	// ID of the ancestor lexis.
	ID string
	// Transforms are catalog names applied in order. Empty means the word is
	// borrowed unchanged.
	Transforms []string
	// Order ranks this etymon when the word is agglutinated from several.
	Order int
}

// Lexis is a single lexical entry.
type Lexis struct {
	ID         string
	Word       string // literal word; a non-empty value makes this a derivation root
	Language   string
	Type       string
	Definition string
	POS        PartOfSpeech
	Archaic    bool
	Tags       []string
	Generate   string   // phonetic ruleset key
	Historical []string // provenance markers, exported to scripts
	Etymons    []Etymon
}

// HasTag reports whether the lexis carries the tag.
func (l *Lexis) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

// IsRoot reports whether the lexis supplies its own word.
func (l *Lexis) IsRoot() bool {
	return l.Word != ""
}

// Clone returns a deep copy.
func (l Lexis) Clone() Lexis {
	out := l
	out.Tags = slices.Clone(l.Tags)
	out.Historical = slices.Clone(l.Historical)
	if l.Etymons != nil {
		out.Etymons = make([]Etymon, len(l.Etymons))
		for i, e := range l.Etymons {
			e.Transforms = slices.Clone(e.Transforms)
			out.Etymons[i] = e
		}
	}
	return out
}

// OrderedEtymons returns the etymons sorted by agglutination order.
// Ties keep declaration order.
func (l *Lexis) OrderedEtymons() []Etymon {
	out := slices.Clone(l.Etymons)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (l Lexis) String() string {
	word := l.Word
	if word == "" {
		word = "None"
	}
	s := fmt.Sprintf("%s (%s)", word, l.Language)
	if l.POS != None {
		s = fmt.Sprintf("%s: (%s)", s, l.POS)
	}
	return s + " " + l.Definition
}

// Derivative is shorthand for a child entry declared inline on its parent.
type Derivative struct {
	Lexis      Lexis
	Transforms []string
}

// DerivativeID names the n-th derivative of parent.
func DerivativeID(parent string, n int) string {
	return fmt.Sprintf("%s-autoderive-%d", parent, n)
}
