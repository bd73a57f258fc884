package project

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"kirum/internal/lexis"
)

// IngestPrefix starts the id of every ingested entry.
const IngestPrefix = "ingest-"

var (
	// ErrBadOverride is returned for an override that is not key=value.
	ErrBadOverride = errors.New("override must be key=value")

	// ErrUnknownOverride is returned for an override key that is not supported.
	ErrUnknownOverride = errors.New("unknown override key")
)

// OverrideKeys lists the keys ParseOverrides accepts.
var OverrideKeys = []string{"word", "type", "language", "pos", "archaic", "tag", "generate"}

// KeysAre says what the strings of an ingest file hold.
type KeysAre string

const (
	KeysAreDefinitions KeysAre = "definitions"
	KeysAreWords       KeysAre = "words"
)

// ParseOverrides builds the base entry every ingested entry starts from.
func ParseOverrides(pairs []string) (lexis.Lexis, error) {
	var base lexis.Lexis
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return base, fmt.Errorf("%w: %q", ErrBadOverride, pair)
		}
		switch key {
		case "word":
			base.Word = value
		case "type":
			base.Type = value
		case "language":
			base.Language = value
		case "pos":
			pos, err := lexis.ParsePartOfSpeech(value)
			if err != nil {
				return base, fmt.Errorf("override %q: %w", pair, err)
			}
			base.POS = pos
		case "archaic":
			archaic, err := strconv.ParseBool(value)
			if err != nil {
				return base, fmt.Errorf("override %q: %w", pair, err)
			}
			base.Archaic = archaic
		case "tag":
			base.Tags = append(base.Tags, value)
		case "generate":
			base.Generate = value
		default:
			return base, fmt.Errorf("%w: %q (valid: %v)", ErrUnknownOverride, key, OverrideKeys)
		}
	}
	return base, nil
}

// IngestLines makes one entry per non-blank line, with the line as its
// definition.
func IngestLines(r io.Reader, base lexis.Lexis) ([]lexis.Lexis, error) {
	in := newIngester(KeysAreDefinitions, base, nil)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		in.insert("", "", line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading lines: %w", err)
	}
	return in.entries(), nil
}

type ingestFile struct {
	KeysAre KeysAre           `json:"keys_are"`
	Words   []json.RawMessage `json:"words"`
}

// IngestJSON reads a nested word list. Strings are entries; an object key is
// an entry whose values derive from it. A value "!name" links the key to its
// parent through transform name, as does a child object holding
// "!etymology": "name".
func IngestJSON(r io.Reader, base lexis.Lexis, logger *zap.Logger) ([]lexis.Lexis, error) {
	var f ingestFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("error parsing ingest file: %w", err)
	}
	switch f.KeysAre {
	case "":
		f.KeysAre = KeysAreDefinitions
	case KeysAreDefinitions, KeysAreWords:
	default:
		return nil, fmt.Errorf("keys_are must be %q or %q, got %q", KeysAreDefinitions, KeysAreWords, f.KeysAre)
	}

	in := newIngester(f.KeysAre, base, logger)
	for _, raw := range f.Words {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("error parsing ingest file: %w", err)
		}
		in.value("", v)
	}
	return in.entries(), nil
}

type ingester struct {
	keys  KeysAre
	base  lexis.Lexis
	log   *zap.Logger
	words map[string]lexis.Lexis
}

func newIngester(keys KeysAre, base lexis.Lexis, logger *zap.Logger) *ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ingester{keys: keys, base: base, log: logger.Named("project"), words: make(map[string]lexis.Lexis)}
}

func (in *ingester) value(parent string, v any) {
	switch v := v.(type) {
	case string:
		in.insert(parent, "", v)
	case []any:
		for _, item := range v {
			in.value(parent, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			in.entry(parent, k, v[k])
		}
	default:
		in.log.Warn("skipping ingest value, expected string, array or object", zap.Any("value", v))
	}
}

// entry handles key with value inside an object whose own key is parent.
func (in *ingester) entry(parent, key string, v any) {
	linked := false
	switch v := v.(type) {
	case string:
		if strings.Contains(key, "!") {
			return
		}
		if name, ok := strings.CutPrefix(v, "!"); ok {
			if parent == "" {
				in.log.Warn("skipping etymology link at the top level", zap.String("word", key), zap.String("transform", name))
				return
			}
			in.insert(parent, name, key)
			return
		}
		in.insert(key, "", v)
	case map[string]any:
		if name, ok := v["!etymology"].(string); ok {
			if parent == "" {
				in.log.Warn("skipping !etymology at the top level", zap.String("word", key), zap.String("transform", name))
			} else {
				in.insert(parent, name, key)
				linked = true
			}
		}
		in.value(key, v)
	default:
		in.value(key, v)
	}
	if !linked {
		in.insert(parent, "", key)
	}
}

func (in *ingester) insert(parent, transformName, text string) {
	l := in.base.Clone()
	l.ID = IngestPrefix + text
	if in.keys == KeysAreWords {
		l.Word = text
	} else {
		l.Definition = text
	}
	if parent != "" {
		e := lexis.Etymon{ID: IngestPrefix + parent}
		if transformName != "" {
			e.Transforms = []string{transformName}
		}
		l.Etymons = []lexis.Etymon{e}
	}
	in.words[l.ID] = l
}

func (in *ingester) entries() []lexis.Lexis {
	out := make([]lexis.Lexis, 0, len(in.words))
	for _, l := range in.words {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
