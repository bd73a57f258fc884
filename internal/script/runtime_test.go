package script

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirum/internal/lexis"
	"kirum/internal/transform"
)

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const archaicSuffix = `package main

import "strings"

func Transform(word string, meta map[string]interface{}) (string, error) {
	archaic := meta["archaic"].(string)
	if archaic == "true" {
		return word + "e", nil
	}
	return strings.ToUpper(word), nil
}
`

func TestRuntimeTransformWord(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "suffix.go", archaicSuffix)

	rt, err := New(Options{Dir: dir})
	require.NoError(t, err)

	out, err := rt.TransformWord(context.Background(), "suffix.go", transform.ScriptInput{Word: "kra"})
	require.NoError(t, err)
	assert.Equal(t, "KRA", out)

	out, err = rt.TransformWord(context.Background(), "suffix.go", transform.ScriptInput{Word: "kra", Archaic: true})
	require.NoError(t, err)
	assert.Equal(t, "krae", out)
	assert.Equal(t, 1, rt.Compiles())
}

func TestRuntimeWithoutPackageClause(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "lang.go", `
func Transform(word string, meta map[string]interface{}) (string, error) {
	return word + "-" + meta["language"].(string), nil
}
`)

	rt, err := New(Options{})
	require.NoError(t, err)
	out, err := rt.TransformWord(context.Background(), path, transform.ScriptInput{Word: "bure", Language: "French"})
	require.NoError(t, err)
	assert.Equal(t, "bure-French", out)
}

func TestRuntimeRecompilesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "s.go", `package main

func Transform(word string, meta map[string]interface{}) (string, error) { return word + "1", nil }
`)
	rt, err := New(Options{})
	require.NoError(t, err)

	out, err := rt.TransformWord(context.Background(), path, transform.ScriptInput{Word: "w"})
	require.NoError(t, err)
	assert.Equal(t, "w1", out)

	writeScript(t, dir, "s.go", `package main

func Transform(word string, meta map[string]interface{}) (string, error) { return word + "22", nil }
`)
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	out, err = rt.TransformWord(context.Background(), path, transform.ScriptInput{Word: "w"})
	require.NoError(t, err)
	assert.Equal(t, "w22", out)
	assert.Equal(t, 2, rt.Compiles())
}

func TestRuntimeErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "fails.go", `package main

import "errors"

func Transform(word string, meta map[string]interface{}) (string, error) {
	return "", errors.New("cannot shift " + word)
}
`)
	writeScript(t, dir, "os.go", `package main

import "os"

func Transform(word string, meta map[string]interface{}) (string, error) {
	return os.Getenv("HOME"), nil
}
`)
	writeScript(t, dir, "missing.go", `package main

func Other() {}
`)
	writeScript(t, dir, "signature.go", `package main

func Transform(word string) string { return word }
`)

	rt, err := New(Options{Dir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = rt.TransformWord(ctx, "fails.go", transform.ScriptInput{Word: "kra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot shift kra")

	_, err = rt.TransformWord(ctx, "os.go", transform.ScriptInput{})
	assert.ErrorIs(t, err, ErrForbiddenImport)

	_, err = rt.TransformWord(ctx, "missing.go", transform.ScriptInput{})
	assert.ErrorIs(t, err, ErrMissingFunction)

	_, err = rt.TransformWord(ctx, "signature.go", transform.ScriptInput{})
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = rt.TransformWord(ctx, "absent.go", transform.ScriptInput{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRuntimeRecoversPanic(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slice.go", `package main

func Transform(word string, meta map[string]interface{}) (string, error) {
	return word[:100], nil
}
`)
	rt, err := New(Options{Dir: dir})
	require.NoError(t, err)

	_, err = rt.TransformWord(context.Background(), "slice.go", transform.ScriptInput{Word: "kra"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "slice.go")

	out, err := rt.TransformWord(context.Background(), "slice.go", transform.ScriptInput{Word: strings.Repeat("a", 120)})
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestRuntimeTimeout(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "slow.go", `package main

import "time"

func Transform(word string, meta map[string]interface{}) (string, error) {
	time.Sleep(500 * time.Millisecond)
	return word, nil
}
`)
	rt, err := New(Options{Dir: dir, Timeout: 20 * time.Millisecond, AllowedPackages: []string{"time"}})
	require.NoError(t, err)

	_, err = rt.TransformWord(context.Background(), "slow.go", transform.ScriptInput{Word: "w"})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMeta(t *testing.T) {
	m := Meta(transform.ScriptInput{
		PartOfSpeech: lexis.Noun,
		Language:     "Latin",
		Tags:         []string{"a"},
		Historical:   []string{"h"},
	})
	assert.Equal(t, "noun", m["part_of_speech"])
	assert.Equal(t, "Latin", m["language"])
	assert.Equal(t, []string{"a"}, m["tags"])
	assert.Equal(t, "false", m["archaic"])
	assert.Equal(t, "true", Meta(transform.ScriptInput{Archaic: true})["archaic"])
	assert.Equal(t, []string{"h"}, m["historical_metadata"])
}
