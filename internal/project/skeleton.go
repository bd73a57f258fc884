package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kirum/internal/lexis"
	"kirum/internal/transform"
)

// ErrExists is returned when creating a project over an existing directory.
var ErrExists = errors.New("project directory already exists")

// Create writes a new example project at dir. The tree file is named after the
// final element of dir.
func Create(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, dir)
	}

	layout := []string{"etymology", "tree", "phonetics"}
	for _, sub := range layout {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	name := filepath.Base(filepath.Clean(dir))
	files := map[string]any{
		filepath.Join("tree", name+".json"): exampleTree(),
		filepath.Join("etymology", "ety.json"): exampleEtymology(),
		filepath.Join("phonetics", "rules.json"): phoneticsFile{
			Groups: map[string][]string{
				"C": {"x", "m", "p", "l"},
				"V": {"e", "a"},
				"S": {"VC", "CCV"},
			},
			LexisTypes: map[string][]string{"word": {"SSS"}},
		},
		"globals.json": globalsFile{},
	}
	for rel, v := range files {
		if err := writeJSON(filepath.Join(dir, rel), v); err != nil {
			return err
		}
	}
	return nil
}

func exampleEtymology() etymologyFile {
	return etymologyFile{Transforms: map[string]rawTransform{
		"of-from-latin": {Transforms: []rawFunc{
			{transform.MatchReplace("exe", "esse")},
			{transform.MatchReplace("um", "e")},
		}},
		"latin-from-verb": {Transforms: []rawFunc{
			{transform.MatchReplace("ere", "plum")},
			{transform.Prefix("ex")},
		}},
	}}
}

func exampleTree() treeFile {
	return treeFile{Words: map[string]rawLexis{
		"latin_verb": {
			Word:         "emere",
			WordType:     "word",
			Language:     "Latin",
			Definition:   "To buy, remove",
			PartOfSpeech: lexis.Verb,
			Archaic:      true,
		},
		"latin_example": {
			WordType:     "word",
			Language:     "Latin",
			Definition:   "an instance, model, example",
			PartOfSpeech: lexis.Noun,
			Archaic:      true,
			Tags:         []string{"example", "default"},
			Etymology: &rawEtymology{Etymons: []rawEdge{
				{Etymon: "latin_verb", Transforms: []string{"latin-from-verb"}},
			}},
			Derivatives: []rawDerivative{{
				Lexis: rawLexis{
					Language:     "Old French",
					Definition:   "model, example",
					PartOfSpeech: lexis.Noun,
					Archaic:      true,
				},
				Transforms: []string{"of-from-latin"},
			}},
		},
	}}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
