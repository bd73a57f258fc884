package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rivo/uniseg"
)

// Kind names a primitive operation.
type Kind string

const (
	KindLetterReplace Kind = "letter_replace"
	KindLetterRemove  Kind = "letter_remove"
	KindDedouble      Kind = "dedouble"
	KindDouble        Kind = "double"
	KindPrefix        Kind = "prefix"
	KindPostfix       Kind = "postfix"
	KindMatchReplace  Kind = "match_replace"
	KindLetterArray   Kind = "letter_array"
	KindLoanword      Kind = "loanword"
	KindScript        Kind = "script_transform"
)

// Kinds lists every primitive kind.
var Kinds = []Kind{
	KindLetterReplace, KindLetterRemove, KindDedouble, KindDouble, KindPrefix,
	KindPostfix, KindMatchReplace, KindLetterArray, KindLoanword, KindScript,
}

// Position selects which occurrence a primitive acts on.
type Position string

const (
	First Position = "first"
	Last  Position = "last"
	All   Position = "all"
)

// ParsePosition validates a position name.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(strings.TrimSpace(s))); p {
	case First, Last, All:
		return p, nil
	}
	return "", fmt.Errorf("%w: position %q is not one of first, last, all", ErrMalformedArguments, s)
}

// ArrayValue is one element of a letter_array: either an index into the
// current word's letters or a literal letter.
type ArrayValue struct {
	Index   int
	Letter  string
	IsIndex bool
}

// Index builds an ArrayValue that copies the letter at i.
func Index(i int) ArrayValue { return ArrayValue{Index: i, IsIndex: true} }

// Letter builds an ArrayValue that emits s.
func Letter(s string) ArrayValue { return ArrayValue{Letter: s} }

// Func is one primitive operation. Kind selects the variant; only the fields
// that variant uses are meaningful.
type Func struct {
	Kind     Kind
	Old      string // letter_replace, match_replace
	New      string // letter_replace, match_replace
	Letter   string // letter_remove, dedouble, double
	Position Position
	Value    string // prefix, postfix
	Letters  []ArrayValue
	File     string // script_transform
}

// LetterReplace replaces old with new at pos.
func LetterReplace(old, new string, pos Position) Func {
	return Func{Kind: KindLetterReplace, Old: old, New: new, Position: pos}
}

// LetterRemove removes letter at pos.
func LetterRemove(letter string, pos Position) Func {
	return Func{Kind: KindLetterRemove, Letter: letter, Position: pos}
}

// Dedouble collapses a doubled letter at pos into one.
func Dedouble(letter string, pos Position) Func {
	return Func{Kind: KindDedouble, Letter: letter, Position: pos}
}

// Double doubles letter at pos.
func Double(letter string, pos Position) Func {
	return Func{Kind: KindDouble, Letter: letter, Position: pos}
}

// Prefix prepends value.
func Prefix(value string) Func { return Func{Kind: KindPrefix, Value: value} }

// Postfix appends value.
func Postfix(value string) Func { return Func{Kind: KindPostfix, Value: value} }

// MatchReplace replaces the first substring equal to old with new.
func MatchReplace(old, new string) Func {
	return Func{Kind: KindMatchReplace, Old: old, New: new}
}

// LetterArray rebuilds the word from values.
func LetterArray(values ...ArrayValue) Func {
	return Func{Kind: KindLetterArray, Letters: values}
}

// Loanword passes the word through unchanged.
func Loanword() Func { return Func{Kind: KindLoanword} }

// Script delegates to the script at file.
func Script(file string) Func { return Func{Kind: KindScript, File: file} }

// Equal reports whether f and o are the same primitive with the same arguments.
func (f Func) Equal(o Func) bool {
	return f.Kind == o.Kind && f.Old == o.Old && f.New == o.New &&
		f.Letter == o.Letter && f.Position == o.Position && f.Value == o.Value &&
		f.File == o.File && slices.Equal(f.Letters, o.Letters)
}

// Validate checks the argument schema of the variant.
func (f Func) Validate() error {
	bad := func(arg, reason string) error {
		return &ArgumentError{Kind: f.Kind, Arg: arg, Reason: reason}
	}
	checkPos := func() error {
		switch f.Position {
		case First, Last, All:
			return nil
		}
		return bad("position", fmt.Sprintf("%q is not one of first, last, all", f.Position))
	}

	switch f.Kind {
	case KindLetterReplace:
		if f.Old == "" {
			return bad("old", "must not be empty")
		}
		return checkPos()
	case KindLetterRemove, KindDedouble, KindDouble:
		if f.Letter == "" {
			return bad("letter", "must not be empty")
		}
		return checkPos()
	case KindPrefix, KindPostfix:
		if f.Value == "" {
			return bad("value", "must not be empty")
		}
	case KindMatchReplace:
		if f.Old == "" {
			return bad("old", "must not be empty")
		}
	case KindLetterArray:
		if len(f.Letters) == 0 {
			return bad("letters", "must not be empty")
		}
		for i, v := range f.Letters {
			if v.IsIndex && v.Index < 0 {
				return bad("letters", fmt.Sprintf("index %d at element %d is negative", v.Index, i))
			}
		}
	case KindScript:
		if f.File == "" {
			return bad("file", "must not be empty")
		}
	case KindLoanword:
	default:
		return bad("kind", fmt.Sprintf("%q is not a known primitive (known: %v)", f.Kind, Kinds))
	}
	return nil
}

func (f Func) String() string {
	switch f.Kind {
	case KindLetterReplace:
		return fmt.Sprintf("%s{%s->%s, %s}", f.Kind, f.Old, f.New, f.Position)
	case KindLetterRemove, KindDedouble, KindDouble:
		return fmt.Sprintf("%s{%s, %s}", f.Kind, f.Letter, f.Position)
	case KindPrefix, KindPostfix:
		return fmt.Sprintf("%s{%s}", f.Kind, f.Value)
	case KindMatchReplace:
		return fmt.Sprintf("%s{%s->%s}", f.Kind, f.Old, f.New)
	case KindScript:
		return fmt.Sprintf("%s{%s}", f.Kind, f.File)
	}
	return string(f.Kind)
}

// applyPure runs every variant except script_transform, which needs the
// runtime and is dispatched by the Executor.
func (f Func) applyPure(word string) string {
	switch f.Kind {
	case KindLetterReplace:
		return replaceAt(word, f.Old, f.New, f.Position)
	case KindLetterRemove:
		return replaceAt(word, f.Letter, "", f.Position)
	case KindDedouble:
		return dedouble(word, f.Letter, f.Position)
	case KindDouble:
		return double(word, f.Letter, f.Position)
	case KindPrefix:
		return f.Value + word
	case KindPostfix:
		return word + f.Value
	case KindMatchReplace:
		return strings.Replace(word, f.Old, f.New, 1)
	case KindLetterArray:
		return letterArray(word, f.Letters)
	}
	return word
}

// The letter primitives compare grapheme clusters, so a base letter never
// matches the start of a combining sequence.

func replaceAt(word, old, new string, pos Position) string {
	w, o := graphemes(word), graphemes(old)
	if len(o) == 0 {
		return word
	}
	switch pos {
	case First:
		i := indexSeq(w, o)
		if i < 0 {
			return word
		}
		return strings.Join(w[:i], "") + new + strings.Join(w[i+len(o):], "")
	case Last:
		i := lastIndexSeq(w, o)
		if i < 0 {
			return word
		}
		return strings.Join(w[:i], "") + new + strings.Join(w[i+len(o):], "")
	}
	var b strings.Builder
	for i := 0; i < len(w); {
		if hasSeqAt(w, o, i) {
			b.WriteString(new)
			i += len(o)
			continue
		}
		b.WriteString(w[i])
		i++
	}
	return b.String()
}

func dedouble(word, letter string, pos Position) string {
	w, l := graphemes(word), graphemes(letter)
	if len(l) == 0 {
		return word
	}
	pair := append(slices.Clone(l), l...)
	switch pos {
	case First:
		i := indexSeq(w, pair)
		if i < 0 {
			return word
		}
		return strings.Join(slices.Delete(w, i, i+len(l)), "")
	case Last:
		i := lastIndexSeq(w, pair)
		if i < 0 {
			return word
		}
		return strings.Join(slices.Delete(w, i, i+len(l)), "")
	}
	var b strings.Builder
	prev := false
	for i := 0; i < len(w); {
		if hasSeqAt(w, l, i) {
			if !prev {
				b.WriteString(letter)
			}
			prev = true
			i += len(l)
			continue
		}
		b.WriteString(w[i])
		prev = false
		i++
	}
	return b.String()
}

func double(word, letter string, pos Position) string {
	w, l := graphemes(word), graphemes(letter)
	if len(l) == 0 {
		return word
	}
	switch pos {
	case First:
		i := indexSeq(w, l)
		if i < 0 {
			return word
		}
		return strings.Join(w[:i], "") + letter + strings.Join(w[i:], "")
	case Last:
		i := lastIndexSeq(w, l)
		if i < 0 {
			return word
		}
		return strings.Join(w[:i], "") + letter + strings.Join(w[i:], "")
	}
	var b strings.Builder
	for i := 0; i < len(w); {
		if hasSeqAt(w, l, i) {
			b.WriteString(letter)
			b.WriteString(letter)
			i += len(l)
			continue
		}
		b.WriteString(w[i])
		i++
	}
	return b.String()
}

func graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

func hasSeqAt(w, sub []string, i int) bool {
	return i+len(sub) <= len(w) && slices.Equal(w[i:i+len(sub)], sub)
}

func indexSeq(w, sub []string) int {
	for i := 0; i+len(sub) <= len(w); i++ {
		if hasSeqAt(w, sub, i) {
			return i
		}
	}
	return -1
}

func lastIndexSeq(w, sub []string) int {
	for i := len(w) - len(sub); i >= 0; i-- {
		if hasSeqAt(w, sub, i) {
			return i
		}
	}
	return -1
}

// letterArray rebuilds a word from indexes into its grapheme clusters and
// literal letters. Indexes past the end are skipped.
func letterArray(word string, values []ArrayValue) string {
	letters := graphemes(word)

	var b strings.Builder
	for _, v := range values {
		if !v.IsIndex {
			b.WriteString(v.Letter)
			continue
		}
		if v.Index < len(letters) {
			b.WriteString(letters[v.Index])
		}
	}
	return b.String()
}
