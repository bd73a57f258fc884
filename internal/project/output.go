package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"kirum/internal/derive"
	"kirum/internal/lexis"
	"kirum/internal/transform"
)

// ErrUnknownGrouping is returned by GroupRecords for an unsupported field.
var ErrUnknownGrouping = errors.New("unknown grouping field")

// Groupings lists the fields GroupRecords accepts.
var Groupings = []string{"word", "archaic", "type"}

// ReadTransforms parses one etymology-format file into transforms, ordered by
// name.
func ReadTransforms(path string) ([]transform.Transform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading transform file %s: %w", path, err)
	}
	var ef etymologyFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("error parsing transform file %s: %w", path, err)
	}
	names := make([]string, 0, len(ef.Transforms))
	for name := range ef.Transforms {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]transform.Transform, 0, len(names))
	for _, name := range names {
		raw := ef.Transforms[name]
		when, err := raw.Conditional.predicate()
		if err != nil {
			return nil, fmt.Errorf("%s: transform %q: %w", path, name, err)
		}
		t := transform.Transform{Name: name, When: when, Funcs: funcs(raw.Transforms)}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// CopyTransforms writes the named transforms of the etymology file src to
// dest, keeping their original JSON. It writes nothing and returns false when
// none of names is in src.
func CopyTransforms(src, dest string, names []string) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, fmt.Errorf("error reading transform file %s: %w", src, err)
	}
	var raw struct {
		Transforms map[string]json.RawMessage `json:"transforms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("error parsing transform file %s: %w", src, err)
	}

	keep := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		if t, ok := raw.Transforms[name]; ok {
			keep[name] = t
		}
	}
	if len(keep) == 0 {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("failed to create etymology directory: %w", err)
	}
	return true, writeJSON(dest, map[string]any{"transforms": keep})
}

// GroupRecords splits records into named groups: one per id for "word",
// "archaic"/"modern" for "archaic", and one per lexis type for "type".
// An empty field yields a single group named fallback.
func GroupRecords(field, fallback string, recs []derive.Record) (map[string][]derive.Record, error) {
	out := make(map[string][]derive.Record)
	for _, r := range recs {
		var key string
		switch field {
		case "":
			key = fallback
		case "word":
			key = r.ID
		case "archaic":
			key = "modern"
			if r.Archaic {
				key = "archaic"
			}
		case "type":
			key = r.Type
			if key == "" {
				key = "untyped"
			}
		default:
			return nil, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownGrouping, field, Groupings)
		}
		out[key] = append(out[key], r)
	}
	return out, nil
}

// WriteTree writes records as a tree file. Rendered words are written as
// literals; etymon links are kept so the history survives.
func WriteTree(path string, recs []derive.Record) error {
	entries := make([]lexis.Lexis, len(recs))
	for i, r := range recs {
		entries[i] = lexis.Lexis{
			ID:         r.ID,
			Word:       r.Word,
			Type:       r.Type,
			Language:   r.Language,
			Definition: r.Definition,
			POS:        r.PartOfSpeech,
			Archaic:    r.Archaic,
			Tags:       r.Tags,
			Historical: r.Historical,
			Etymons:    r.Etymons,
		}
	}
	return WriteEntries(path, entries)
}

// WriteEntries writes entries as a tree file keyed by id.
func WriteEntries(path string, entries []lexis.Lexis) error {
	tf := treeFile{Words: make(map[string]rawLexis, len(entries))}
	for _, l := range entries {
		tf.Words[l.ID] = fromLexis(l)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return writeJSON(path, tf)
}

// WriteTreeGroups writes one tree file per group under dir, named
// <group>.json.
func WriteTreeGroups(dir string, groups map[string][]derive.Record) ([]string, error) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name+".json")
		if err := WriteTree(path, groups[name]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
