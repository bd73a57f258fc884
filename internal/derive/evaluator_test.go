package derive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirum/internal/lexis"
	"kirum/internal/match"
	"kirum/internal/phonetic"
	"kirum/internal/script"
	"kirum/internal/transform"
)

func render(t *testing.T, g *lexis.Graph, c *transform.Catalog, opts Options) *Result {
	t.Helper()
	ev, err := New(g, c, opts)
	require.NoError(t, err)
	res, err := ev.Render(context.Background())
	require.NoError(t, err)
	return res
}

func TestRenderBureaucratie(t *testing.T) {
	res := render(t, buildGraph(t, bureaucracyNodes("burra")), bureaucracyCatalog(t), Options{})

	want := map[string]string{
		"latin-burra":         "burra",
		"old-french-burel":    "burel",
		"french-bureau":       "bureau",
		"greek-kratia":        "kratia",
		"french-cratie":       "cratie",
		"french-bureaucratie": "bureaucratie",
	}
	if diff := cmp.Diff(want, res.Words()); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, res.PassID)
}

func TestRenderIsIdempotent(t *testing.T) {
	ev, err := New(buildGraph(t, bureaucracyNodes("burra")), bureaucracyCatalog(t), Options{})
	require.NoError(t, err)

	first, err := ev.Render(context.Background())
	require.NoError(t, err)
	second, err := ev.Render(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records(), second.Records()); diff != "" {
		t.Errorf("second render differs (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.PassID, second.PassID)
}

func TestRenderIgnoresInsertionOrder(t *testing.T) {
	nodes := bureaucracyNodes("burra")
	reversed := slices.Clone(nodes)
	slices.Reverse(reversed)

	a := render(t, buildGraph(t, nodes), bureaucracyCatalog(t), Options{})
	b := render(t, buildGraph(t, reversed), bureaucracyCatalog(t), Options{})
	assert.Equal(t, a.Words(), b.Words())
}

func TestRenderLocality(t *testing.T) {
	before := render(t, buildGraph(t, bureaucracyNodes("burra")), bureaucracyCatalog(t), Options{}).Words()
	after := render(t, buildGraph(t, bureaucracyNodes("purra")), bureaucracyCatalog(t), Options{}).Words()

	assert.Equal(t, "pureaucratie", after["french-bureaucratie"])
	assert.Equal(t, "pureau", after["french-bureau"])
	for _, id := range []string{"greek-kratia", "french-cratie"} {
		assert.Equal(t, before[id], after[id], id)
	}
}

func TestConditionalGatesOnSourcePartOfSpeech(t *testing.T) {
	c := transform.NewCatalog()
	c.MustRegister(transform.Transform{
		Name:  "nouns-only",
		When:  match.Field("pos", match.Equals("noun")),
		Funcs: []transform.Func{transform.Postfix("um")},
	})
	g := buildGraph(t, []lexis.Lexis{
		{ID: "verb", Word: "ama", POS: lexis.Verb},
		{ID: "noun", Word: "ama", POS: lexis.Noun},
		{ID: "from-verb", POS: lexis.Noun, Etymons: []lexis.Etymon{{ID: "verb", Transforms: []string{"nouns-only"}}}},
		{ID: "from-noun", POS: lexis.Verb, Etymons: []lexis.Etymon{{ID: "noun", Transforms: []string{"nouns-only"}}}},
	})

	res := render(t, g, c, Options{})
	word, _ := res.Word("from-verb")
	assert.Equal(t, "ama", word)
	word, _ = res.Word("from-noun")
	assert.Equal(t, "amaum", word)
}

func TestRenderDetectsCycle(t *testing.T) {
	g := buildGraph(t, []lexis.Lexis{
		{ID: "a", Etymons: []lexis.Etymon{{ID: "b"}}},
		{ID: "b", Etymons: []lexis.Etymon{{ID: "a"}}},
	})
	ev, err := New(g, nil, Options{})
	require.NoError(t, err)

	_, err = ev.Render(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycleDetected)

	var ce *CycleError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"a", "b", "a"}, ce.Path)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestRenderUnderspecified(t *testing.T) {
	g := buildGraph(t, []lexis.Lexis{
		{ID: "root", Word: "ok"},
		{ID: "empty", Language: "Void"},
		{ID: "child", Etymons: []lexis.Etymon{{ID: "empty"}}},
	})
	ev, err := New(g, nil, Options{})
	require.NoError(t, err)

	_, err = ev.Render(context.Background())
	assert.ErrorIs(t, err, ErrUnderspecifiedLexis)
	var ne *NodeError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "empty", ne.ID)

	res, err := ev.RenderFrom(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())
}

func TestRenderDepthLimit(t *testing.T) {
	nodes := []lexis.Lexis{{ID: "n0", Word: "a"}}
	for i := 1; i <= 5; i++ {
		nodes = append(nodes, lexis.Lexis{
			ID:      "n" + string(rune('0'+i)),
			Etymons: []lexis.Etymon{{ID: "n" + string(rune('0'+i-1))}},
		})
	}
	ev, err := New(buildGraph(t, nodes), nil, Options{MaxDepth: 3})
	require.NoError(t, err)

	_, err = ev.RenderFrom(context.Background(), "n5")
	assert.ErrorIs(t, err, ErrDepthLimitExceeded)

	res, err := ev.RenderFrom(context.Background(), "n3")
	require.NoError(t, err)
	word, _ := res.Word("n3")
	assert.Equal(t, "a", word)
}

func TestNewRejectsUnknownReferences(t *testing.T) {
	g := buildGraph(t, []lexis.Lexis{
		{ID: "root", Word: "x"},
		{ID: "child", Etymons: []lexis.Etymon{{ID: "root", Transforms: []string{"nope"}}}},
	})
	_, err := New(g, transform.NewCatalog(), Options{})
	require.ErrorIs(t, err, lexis.ErrUnknownReference)
	assert.Contains(t, err.Error(), `transform "nope"`)

	g = buildGraph(t, []lexis.Lexis{{ID: "child", Etymons: []lexis.Etymon{{ID: "ghost"}}}})
	_, err = New(g, nil, Options{})
	assert.ErrorIs(t, err, lexis.ErrUnknownReference)

	ev, err := New(buildGraph(t, []lexis.Lexis{{ID: "root", Word: "x"}}), nil, Options{})
	require.NoError(t, err)
	_, err = ev.RenderFrom(context.Background(), "ghost")
	assert.ErrorIs(t, err, lexis.ErrUnknownReference)
}

func TestGlobalTransforms(t *testing.T) {
	globals := []transform.Global{{
		Name:   "greek-suffix",
		Lexis:  match.Field("language", match.Equals("French")),
		Etymon: match.Field("language", match.Equals("Greek")),
		Funcs:  []transform.Func{transform.Postfix("!")},
	}}
	res := render(t, buildGraph(t, bureaucracyNodes("burra")), bureaucracyCatalog(t), Options{Globals: globals})

	words := res.Words()
	assert.Equal(t, "cratie!", words["french-cratie"])
	assert.Equal(t, "bureaucratie!", words["french-bureaucratie"])
	assert.Equal(t, "kratia", words["greek-kratia"])
	assert.Equal(t, "bureau", words["french-bureau"])
}

func TestScriptFailureAbortsRender(t *testing.T) {
	c := transform.NewCatalog()
	c.MustRegister(transform.Transform{Name: "shift", Funcs: []transform.Func{transform.Script("shift.go")}})
	g := buildGraph(t, []lexis.Lexis{
		{ID: "root", Word: "kra"},
		{ID: "child", Etymons: []lexis.Etymon{{ID: "root", Transforms: []string{"shift"}}}},
	})

	_, err := New(g, c, Options{})
	assert.ErrorIs(t, err, transform.ErrNoScriptRuntime)

	failing := transform.ScripterFunc(func(context.Context, string, transform.ScriptInput) (string, error) {
		return "", errors.New("interpreter exploded")
	})
	ev, err := New(g, c, Options{Scripts: failing})
	require.NoError(t, err)

	res, err := ev.Render(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, transform.ErrScriptTransformFailure)

	var se *transform.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "child", se.NodeID)
	assert.Equal(t, "shift.go", se.File)

	upper := transform.ScripterFunc(func(_ context.Context, _ string, in transform.ScriptInput) (string, error) {
		return strings.ToUpper(in.Word), nil
	})
	words := render(t, g, c, Options{Scripts: upper}).Words()
	assert.Equal(t, "KRA", words["child"])
}

func TestScriptRuntimeInRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archaic.go"), []byte(`package main

func Transform(word string, meta map[string]interface{}) (string, error) {
	archaic := meta["archaic"].(string)
	if archaic == "true" {
		return word + "e", nil
	}
	return word, nil
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "panics.go"), []byte(`package main

func Transform(word string, meta map[string]interface{}) (string, error) {
	return word[:100], nil
}
`), 0o644))
	rt, err := script.New(script.Options{Dir: dir})
	require.NoError(t, err)

	c := transform.NewCatalog()
	c.MustRegister(transform.Transform{Name: "archaic", Funcs: []transform.Func{transform.Script("archaic.go")}})
	c.MustRegister(transform.Transform{Name: "panics", Funcs: []transform.Func{transform.Script("panics.go")}})

	g := buildGraph(t, []lexis.Lexis{
		{ID: "old", Word: "kra", Archaic: true},
		{ID: "new", Word: "kra"},
		{ID: "from-old", Etymons: []lexis.Etymon{{ID: "old", Transforms: []string{"archaic"}}}},
		{ID: "from-new", Etymons: []lexis.Etymon{{ID: "new", Transforms: []string{"archaic"}}}},
	})
	words := render(t, g, c, Options{Scripts: rt}).Words()
	assert.Equal(t, "krae", words["from-old"])
	assert.Equal(t, "kra", words["from-new"])

	g = buildGraph(t, []lexis.Lexis{
		{ID: "root", Word: "kra"},
		{ID: "child", Etymons: []lexis.Etymon{{ID: "root", Transforms: []string{"panics"}}}},
	})
	ev, err := New(g, c, Options{Scripts: rt})
	require.NoError(t, err)
	_, err = ev.Render(context.Background())
	assert.ErrorIs(t, err, transform.ErrScriptTransformFailure)
	assert.ErrorIs(t, err, script.ErrPanic)

	var se *transform.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "child", se.NodeID)
	assert.Equal(t, "panics.go", se.File)
}

func TestGeneratedLeaves(t *testing.T) {
	rules := phonetic.Ruleset{
		Groups: map[string][]phonetic.Pattern{
			"C": {phonetic.MustParsePattern("k")},
			"V": {phonetic.MustParsePattern("a")},
		},
		Shapes: map[string][]phonetic.Pattern{"root": {phonetic.MustParsePattern("CVC")}},
	}
	gen, err := phonetic.NewGenerator(rules, phonetic.WithSeed(3))
	require.NoError(t, err)

	c := transform.NewCatalog()
	c.MustRegister(transform.Transform{Name: "o", Funcs: []transform.Func{transform.Postfix("o")}})
	g := buildGraph(t, []lexis.Lexis{
		{ID: "gen", Generate: "root"},
		{ID: "literal-wins", Word: "zed", Generate: "root"},
		{ID: "child", Etymons: []lexis.Etymon{{ID: "gen", Transforms: []string{"o"}}}},
	})

	ev, err := New(g, c, Options{Phonetics: gen})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"gen": "kak"}, ev.Generated())

	res, err := ev.Render(context.Background())
	require.NoError(t, err)
	words := res.Words()
	assert.Equal(t, "kak", words["gen"])
	assert.Equal(t, "kako", words["child"])
	assert.Equal(t, "zed", words["literal-wins"])

	_, err = New(g, c, Options{})
	assert.ErrorIs(t, err, phonetic.ErrUnknownGroupOrKey)
}

type recordingObserver struct {
	resolved map[string]int
	passes   int
	failed   int
	applied  int
}

func (o *recordingObserver) StepApplied(transform.Kind)    { o.applied++ }
func (o *recordingObserver) StepSkipped(string)            {}
func (o *recordingObserver) ScriptDuration(time.Duration)  {}
func (o *recordingObserver) NodeResolved(language string)  { o.resolved[language]++ }
func (o *recordingObserver) PassFinished(_ time.Duration, err error) {
	o.passes++
	if err != nil {
		o.failed++
	}
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{resolved: map[string]int{}}
	render(t, buildGraph(t, bureaucracyNodes("burra")), bureaucracyCatalog(t), Options{Observer: obs})

	assert.Equal(t, 1, obs.passes)
	assert.Equal(t, 0, obs.failed)
	assert.Equal(t, 3, obs.resolved["French"])
	assert.Equal(t, 7, obs.applied)
}
