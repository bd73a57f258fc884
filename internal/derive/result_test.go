package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kirum/internal/lexis"
)

func TestResultRecords(t *testing.T) {
	nodes := bureaucracyNodes("burra")
	nodes[0].Archaic = true
	nodes[3].Type = "root"
	res := render(t, buildGraph(t, nodes), bureaucracyCatalog(t), Options{})

	var words []string
	for _, r := range res.Records() {
		words = append(words, r.Word)
	}
	assert.Equal(t, []string{"bureau", "bureaucratie", "burel", "burra", "cratie", "kratia"}, words)

	french := res.Records(ByLanguage("French"))
	assert.Len(t, french, 3)
	assert.Len(t, res.Records(ByLanguage("French"), ByTag("suffix")), 1)
	assert.Len(t, res.Records(ByArchaic(true)), 1)
	assert.Len(t, res.Records(ByType("root")), 1)
	assert.Len(t, res.Records(ByPartOfSpeech(lexis.Verb)), 0)

	rec, ok := res.Record("french-bureaucratie")
	assert.True(t, ok)
	assert.Equal(t, "rule by desks", rec.Definition)
	assert.Equal(t, []string{"french-bureau", "french-cratie"}, []string{rec.Etymons[0].ID, rec.Etymons[1].ID})

	_, ok = res.Word("missing")
	assert.False(t, ok)
}

func TestResultSortsTiesByID(t *testing.T) {
	g := buildGraph(t, []lexis.Lexis{
		{ID: "b", Word: "same"},
		{ID: "a", Word: "same"},
	})
	res := render(t, g, nil, Options{})
	recs := res.Records()
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}
