package phonetic

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rules(t *testing.T, groups, shapes map[string][]string) Ruleset {
	t.Helper()
	parse := func(m map[string][]string) map[string][]Pattern {
		out := make(map[string][]Pattern, len(m))
		for k, v := range m {
			ps, err := ParsePatterns(v...)
			require.NoError(t, err)
			out[k] = ps
		}
		return out
	}
	return Ruleset{Groups: parse(groups), Shapes: parse(shapes)}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in   string
		want Pattern
	}{
		{"CCCC", Pattern{{"C", true}, {"C", true}, {"C", true}, {"C", true}}},
		{"CCrC", Pattern{{"C", true}, {"C", true}, {"r", false}, {"C", true}}},
		{"C V i C r rw", Pattern{{"C", true}, {"V", true}, {"i", false}, {"C", true}, {"r", false}, {"rw", false}}},
		{"SV Th", Pattern{{"SV", true}, {"Th", false}}},
		{"C 'a b'", Pattern{{"C", true}, {"a b", false}}},
		{"C-", Pattern{{"C", true}, {"-", false}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePattern(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePattern("   ")
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestGenerateSingleAlternative(t *testing.T) {
	r := rules(t, map[string][]string{"C": {"k"}, "V": {"a"}}, map[string][]string{"word": {"CVC"}})
	g, err := NewGenerator(r, WithSeed(1))
	require.NoError(t, err)

	word, err := g.Generate("word")
	require.NoError(t, err)
	assert.Equal(t, "kak", word)
}

func TestGenerateNestedGroups(t *testing.T) {
	r := rules(t,
		map[string][]string{"C": {"t", "r"}, "V": {"u", "i"}, "S": {"CV", "VC"}},
		map[string][]string{"words": {"S", "SS"}},
	)
	g, err := NewGenerator(r, WithSeed(7))
	require.NoError(t, err)

	for range 20 {
		word, err := g.Generate("words")
		require.NoError(t, err)
		assert.Contains(t, []int{2, 4}, len(word))
		assert.Empty(t, strings.Trim(word, "triu"))
	}
}

func TestGenerateSeededIsDeterministic(t *testing.T) {
	r := rules(t,
		map[string][]string{"C": {"b", "d", "g", "k", "p", "t"}, "V": {"a", "e", "i", "o", "u"}},
		map[string][]string{"w": {"CV", "CVC", "CVCV"}},
	)
	run := func() []string {
		g, err := NewGenerator(r, WithSeed(42))
		require.NoError(t, err)
		var out []string
		for range 10 {
			w, err := g.Generate("w")
			require.NoError(t, err)
			out = append(out, w)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestGenerateSelfReference(t *testing.T) {
	r := rules(t, map[string][]string{"A": {"A"}}, map[string][]string{"loop": {"A"}})
	g, err := NewGenerator(r, WithMaxDepth(5))
	require.NoError(t, err)

	_, err = g.Generate("loop")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursionLimitExceeded)

	var re *RecursionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 5, re.Limit)
	assert.Equal(t, "loop", re.Key)
}

func TestUnknownReferences(t *testing.T) {
	r := rules(t, map[string][]string{"C": {"k"}}, map[string][]string{"w": {"CX"}})
	_, err := NewGenerator(r)
	assert.ErrorIs(t, err, ErrUnknownGroupOrKey)
	assert.Contains(t, err.Error(), `"X"`)

	g, err := NewGenerator(rules(t, map[string][]string{"C": {"k"}}, map[string][]string{"w": {"C"}}))
	require.NoError(t, err)
	_, err = g.Generate("missing")
	assert.ErrorIs(t, err, ErrUnknownGroupOrKey)
}

func TestRulesetValidateEmptyGroup(t *testing.T) {
	r := Ruleset{Groups: map[string][]Pattern{"C": nil}}
	assert.ErrorIs(t, r.Validate(), ErrEmptyPattern)
}

func TestRulesetMerge(t *testing.T) {
	a := rules(t, map[string][]string{"C": {"k"}}, map[string][]string{"w": {"C"}})
	b := rules(t, map[string][]string{"V": {"a"}}, map[string][]string{"v": {"V"}})

	require.NoError(t, a.Merge(b))
	assert.Equal(t, []string{"v", "w"}, a.Keys())
	assert.True(t, a.HasKey("v"))

	err := a.Merge(rules(t, map[string][]string{"C": {"g"}}, nil))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
