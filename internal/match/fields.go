package match

import (
	"sort"
	"strconv"

	"kirum/internal/lexis"
)

type fieldKind int

const (
	scalarField fieldKind = iota
	setField
)

// field reads one matchable value from a lexis. Scalar fields return exactly
// one value; the absent value of a scalar is its default sentinel ("" for
// text, "none" for part of speech, "false" for archaic).
type field struct {
	kind fieldKind
	get  func(*lexis.Lexis) []string
}

func scalar(get func(*lexis.Lexis) string) field {
	return field{kind: scalarField, get: func(l *lexis.Lexis) []string { return []string{get(l)} }}
}

var fields = map[string]field{
	"id":         scalar(func(l *lexis.Lexis) string { return l.ID }),
	"word":       scalar(func(l *lexis.Lexis) string { return l.Word }),
	"language":   scalar(func(l *lexis.Lexis) string { return l.Language }),
	"type":       scalar(func(l *lexis.Lexis) string { return l.Type }),
	"definition": scalar(func(l *lexis.Lexis) string { return l.Definition }),
	"pos":        scalar(func(l *lexis.Lexis) string { return l.POS.String() }),
	"archaic":    scalar(func(l *lexis.Lexis) string { return strconv.FormatBool(l.Archaic) }),
	"generate":   scalar(func(l *lexis.Lexis) string { return l.Generate }),
	"tags":       {kind: setField, get: func(l *lexis.Lexis) []string { return l.Tags }},
	"historical": {kind: setField, get: func(l *lexis.Lexis) []string { return l.Historical }},
}

var aliases = map[string]string{
	"part_of_speech":      "pos",
	"lexis_type":          "type",
	"word_type":           "type",
	"historical_metadata": "historical",
}

func lookupField(name string) (field, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	f, ok := fields[name]
	return f, ok
}

// Fields returns the canonical names of every matchable field.
func Fields() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
