package derive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kirum/internal/lexis"
	"kirum/internal/transform"
)

func bureaucracyCatalog(t *testing.T) *transform.Catalog {
	t.Helper()
	c := transform.NewCatalog()
	for _, tr := range []transform.Transform{
		{Name: "latin-to-old-french", Funcs: []transform.Func{
			transform.Dedouble("r", transform.First),
			transform.LetterReplace("a", "e", transform.Last),
		}},
		{Name: "add-l", Funcs: []transform.Func{transform.Postfix("l")}},
		{Name: "from-old-french", Funcs: []transform.Func{
			transform.LetterRemove("l", transform.Last),
			transform.LetterReplace("e", "eau", transform.All),
		}},
		{Name: "greek-to-french", Funcs: []transform.Func{
			transform.LetterReplace("k", "c", transform.First),
			transform.LetterReplace("a", "e", transform.Last),
		}},
	} {
		require.NoError(t, c.Register(tr))
	}
	return c
}

func bureaucracyNodes(latin string) []lexis.Lexis {
	return []lexis.Lexis{
		{ID: "latin-burra", Word: latin, Language: "Latin", POS: lexis.Noun, Definition: "wool"},
		{ID: "old-french-burel", Language: "Old French", POS: lexis.Noun, Etymons: []lexis.Etymon{
			{ID: "latin-burra", Transforms: []string{"latin-to-old-french", "add-l"}},
		}},
		{ID: "french-bureau", Language: "French", POS: lexis.Noun, Definition: "desk", Etymons: []lexis.Etymon{
			{ID: "old-french-burel", Transforms: []string{"from-old-french"}},
		}},
		{ID: "greek-kratia", Word: "kratia", Language: "Greek", POS: lexis.Noun, Definition: "rule"},
		{ID: "french-cratie", Language: "French", POS: lexis.Noun, Tags: []string{"suffix"}, Etymons: []lexis.Etymon{
			{ID: "greek-kratia", Transforms: []string{"greek-to-french"}},
		}},
		{ID: "french-bureaucratie", Language: "French", POS: lexis.Noun, Definition: "rule by desks", Etymons: []lexis.Etymon{
			{ID: "french-cratie", Order: 1},
			{ID: "french-bureau", Order: 0},
		}},
	}
}

func buildGraph(t *testing.T, nodes []lexis.Lexis) *lexis.Graph {
	t.Helper()
	g := lexis.NewGraph()
	for _, n := range nodes {
		require.NoError(t, g.Insert(n))
	}
	return g
}
