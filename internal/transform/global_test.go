package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirum/internal/lexis"
	"kirum/internal/match"
)

func TestGlobalMatches(t *testing.T) {
	latin := &lexis.Lexis{ID: "l", Language: "Latin"}
	greek := &lexis.Lexis{ID: "g", Language: "Greek"}
	target := &lexis.Lexis{ID: "t", Language: "French", POS: lexis.Noun}

	fromLatin := match.Field("language", match.Equals("Latin"))
	tests := []struct {
		name    string
		rule    Global
		etymons []*lexis.Lexis
		want    bool
	}{
		{"lexis only", Global{Lexis: match.Field("pos", match.Equals("noun"))}, nil, true},
		{"lexis mismatch", Global{Lexis: match.Field("pos", match.Equals("verb"))}, nil, false},
		{"etymon first", Global{Etymon: fromLatin}, []*lexis.Lexis{latin, greek}, true},
		{"etymon first mismatch", Global{Etymon: fromLatin}, []*lexis.Lexis{greek, latin}, false},
		{"etymon any", Global{Etymon: fromLatin, Mode: EtymonAny}, []*lexis.Lexis{greek, latin}, true},
		{"etymon all", Global{Etymon: fromLatin, Mode: EtymonAll}, []*lexis.Lexis{latin, greek}, false},
		{"etymon without etymons", Global{Etymon: fromLatin}, nil, false},
		{"no predicates", Global{}, []*lexis.Lexis{latin}, false},
		{"both must match", Global{Lexis: match.Field("language", match.Equals("French")), Etymon: fromLatin}, []*lexis.Lexis{latin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(target, tt.etymons))
		})
	}
}

func TestApplierRunsRulesInOrder(t *testing.T) {
	nouns := match.Field("pos", match.Equals("noun"))
	rules := []Global{
		{Name: "a", Lexis: nouns, Funcs: []Func{Postfix("-a")}},
		{Name: "b", Lexis: match.Negate(nouns), Funcs: []Func{Postfix("-b")}},
		{Name: "c", Lexis: nouns, Funcs: []Func{LetterReplace("-", "+", All)}},
	}
	a, err := NewApplier(rules, NewExecutor(nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len())

	word, err := a.Apply(context.Background(), "bureau", &lexis.Lexis{ID: "x", POS: lexis.Noun}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bureau+a", word)
}

func TestNewApplierValidates(t *testing.T) {
	_, err := NewApplier([]Global{{Funcs: []Func{Postfix("x")}}}, NewExecutor(nil, nil, nil))
	assert.ErrorIs(t, err, ErrMalformedArguments)

	_, err = NewApplier([]Global{{Lexis: match.Field("mood", match.Equals("x"))}}, NewExecutor(nil, nil, nil))
	assert.ErrorIs(t, err, match.ErrUnknownField)

	_, err = NewApplier([]Global{{Lexis: match.All{}, Mode: "most"}}, NewExecutor(nil, nil, nil))
	assert.ErrorIs(t, err, ErrMalformedArguments)
}
