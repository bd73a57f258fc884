package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncApply(t *testing.T) {
	tests := []struct {
		name string
		fn   Func
		in   string
		want string
	}{
		{"replace first", LetterReplace("a", "o", First), "banana", "bonana"},
		{"replace last", LetterReplace("a", "e", Last), "bura", "bure"},
		{"replace all", LetterReplace("e", "eau", All), "bure", "bureau"},
		{"replace missing", LetterReplace("z", "y", First), "abc", "abc"},
		{"remove last", LetterRemove("l", Last), "burel", "bure"},
		{"remove all", LetterRemove("a", All), "banana", "bnn"},
		{"dedouble first", Dedouble("r", First), "burra", "bura"},
		{"dedouble first of run", Dedouble("a", First), "baaaad", "baaad"},
		{"dedouble last", Dedouble("s", Last), "mississ", "missis"},
		{"dedouble all", Dedouble("a", All), "baaaad", "bad"},
		{"dedouble not doubled", Dedouble("r", All), "bura", "bura"},
		{"double first", Double("l", First), "lila", "llila"},
		{"double last", Double("t", Last), "bat", "batt"},
		{"double all", Double("l", All), "lala", "llalla"},
		{"prefix", Prefix("re"), "do", "redo"},
		{"postfix", Postfix("l"), "bure", "burel"},
		{"match replace first only", MatchReplace("ab", "X"), "abab", "Xab"},
		{"letter array", LetterArray(Index(3), Letter("-"), Index(0)), "word", "d-w"},
		{"letter array out of range", LetterArray(Index(0), Index(9)), "word", "w"},
		{"letter array graphemes", LetterArray(Index(1), Index(0)), "éx", "xé"},
		{"loanword", Loanword(), "kratia", "kratia"},
		{"dedouble skips combining sequence", Dedouble("e", All), "ee\u0301", "ee\u0301"},
		{"dedouble accented pair", Dedouble("e\u0301", First), "e\u0301e\u0301t", "e\u0301t"},
		{"replace skips combining sequence", LetterReplace("e", "a", All), "e\u0301e", "e\u0301a"},
		{"remove skips combining sequence", LetterRemove("e", Last), "ee\u0301", "e\u0301"},
		{"double skips combining sequence", Double("e", Last), "ee\u0301", "eee\u0301"},
		{"replace multi letter", LetterReplace("rr", "r", First), "burra", "bura"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.fn.Validate())
			assert.Equal(t, tt.want, tt.fn.applyPure(tt.in))
		})
	}
}

func TestFuncValidate(t *testing.T) {
	tests := []struct {
		name string
		fn   Func
		arg  string
	}{
		{"bad position", LetterReplace("a", "b", "middle"), "position"},
		{"empty old", LetterReplace("", "b", First), "old"},
		{"empty letter", Dedouble("", All), "letter"},
		{"empty postfix", Postfix(""), "value"},
		{"empty match", MatchReplace("", "x"), "old"},
		{"empty array", LetterArray(), "letters"},
		{"negative index", LetterArray(Index(-1)), "letters"},
		{"script without file", Script(""), "file"},
		{"unknown kind", Func{Kind: "shout"}, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedArguments))

			var ae *ArgumentError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tt.arg, ae.Arg)
		})
	}
}

func TestFuncEqual(t *testing.T) {
	assert.True(t, LetterArray(Index(0), Letter("a")).Equal(LetterArray(Index(0), Letter("a"))))
	assert.False(t, LetterArray(Index(0)).Equal(LetterArray(Index(1))))
	assert.False(t, Prefix("a").Equal(Postfix("a")))

	empty := Transform{Name: "t", Funcs: []Func{}}
	assert.True(t, empty.Equal(Transform{Name: "t"}))
	assert.False(t, empty.Equal(Transform{Name: "t", Funcs: []Func{Loanword()}}))
}

func TestUnknownKindListsKinds(t *testing.T) {
	err := Func{Kind: "shout"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(KindLetterReplace))
}

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition(" Last ")
	require.NoError(t, err)
	assert.Equal(t, Last, p)

	_, err = ParsePosition("sometimes")
	assert.ErrorIs(t, err, ErrMalformedArguments)
}
