package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"kirum/internal/lexis"
	"kirum/internal/match"
	"kirum/internal/transform"
)

// On-disk formats. Field names follow the kirum project layout so existing
// projects load unchanged.

type treeFile struct {
	Words map[string]rawLexis `json:"words"`
}

type rawLexis struct {
	Word               string             `json:"word,omitempty"`
	WordType           string             `json:"word_type,omitempty"`
	Type               string             `json:"type,omitempty"`
	Language           string             `json:"language,omitempty"`
	Definition         string             `json:"definition"`
	PartOfSpeech       lexis.PartOfSpeech `json:"part_of_speech,omitempty"`
	Etymology          *rawEtymology      `json:"etymology,omitempty"`
	Archaic            bool               `json:"archaic"`
	Tags               []string           `json:"tags,omitempty"`
	Generate           string             `json:"generate,omitempty"`
	HistoricalMetadata []string           `json:"historical_metadata,omitempty"`
	Derivatives        []rawDerivative    `json:"derivatives,omitempty"`
}

type rawEtymology struct {
	Etymons []rawEdge `json:"etymons"`
}

type rawEdge struct {
	Etymon             string   `json:"etymon"`
	Transforms         []string `json:"transforms,omitempty"`
	AgglutinationOrder *int     `json:"agglutination_order,omitempty"`
}

type rawDerivative struct {
	Lexis      rawLexis `json:"lexis"`
	Transforms []string `json:"transforms,omitempty"`
}

func (r rawLexis) toLexis(id string) lexis.Lexis {
	l := lexis.Lexis{
		ID:         id,
		Word:       r.Word,
		Language:   r.Language,
		Type:       r.Type,
		Definition: r.Definition,
		POS:        r.PartOfSpeech,
		Archaic:    r.Archaic,
		Tags:       r.Tags,
		Generate:   r.Generate,
		Historical: r.HistoricalMetadata,
	}
	if l.Type == "" {
		l.Type = r.WordType
	}
	if r.Etymology != nil {
		for i, e := range r.Etymology.Etymons {
			order := i
			if e.AgglutinationOrder != nil {
				order = *e.AgglutinationOrder
			}
			l.Etymons = append(l.Etymons, lexis.Etymon{ID: e.Etymon, Transforms: e.Transforms, Order: order})
		}
	}
	return l
}

func fromLexis(l lexis.Lexis) rawLexis {
	raw := rawLexis{
		Word:               l.Word,
		Type:               l.Type,
		Language:           l.Language,
		Definition:         l.Definition,
		PartOfSpeech:       l.POS,
		Archaic:            l.Archaic,
		Tags:               l.Tags,
		Generate:           l.Generate,
		HistoricalMetadata: l.Historical,
	}
	if len(l.Etymons) > 0 {
		raw.Etymology = &rawEtymology{}
		for _, e := range l.Etymons {
			order := e.Order
			raw.Etymology.Etymons = append(raw.Etymology.Etymons, rawEdge{
				Etymon:             e.ID,
				Transforms:         e.Transforms,
				AgglutinationOrder: &order,
			})
		}
	}
	return raw
}

type etymologyFile struct {
	Transforms map[string]rawTransform `json:"transforms"`
}

type rawTransform struct {
	Transforms  []rawFunc `json:"transforms"`
	Conditional rawMatch  `json:"conditional,omitempty"`
}

type globalsFile struct {
	Transforms []rawGlobal `json:"transforms,omitempty"`
}

type rawGlobal struct {
	Name        string    `json:"name,omitempty"`
	Transforms  []rawFunc `json:"transforms"`
	Conditional struct {
		Lexis      rawMatch `json:"lexis,omitempty"`
		Etymon     rawMatch `json:"etymon,omitempty"`
		EtymonMode string   `json:"etymon_mode,omitempty"`
	} `json:"conditional"`
}

type phoneticsFile struct {
	Groups     map[string][]string `json:"groups"`
	LexisTypes map[string][]string `json:"lexis_types"`
}

// rawFunc is one externally tagged primitive: either the bare kind name
// ("loanword") or an object with the kind as its only key.
type rawFunc struct {
	transform.Func
}

type rawLetters struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type rawFuncArgs struct {
	Letter   json.RawMessage   `json:"letter,omitempty"`
	Old      string            `json:"old,omitempty"`
	New      string            `json:"new,omitempty"`
	Replace  string            `json:"replace,omitempty"`
	Position string            `json:"position,omitempty"`
	Value    string            `json:"value,omitempty"`
	Letters  []json.RawMessage `json:"letters,omitempty"`
	File     string            `json:"file,omitempty"`
}

func (f *rawFunc) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		f.Func = transform.Func{Kind: transform.Kind(name)}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: transform must be a name or an object: %v", transform.ErrMalformedArguments, err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("%w: transform object must have exactly one key, got %d", transform.ErrMalformedArguments, len(obj))
	}

	for k, v := range obj {
		var args rawFuncArgs
		if len(v) > 0 && !bytes.Equal(v, []byte("null")) {
			if err := json.Unmarshal(v, &args); err != nil {
				return fmt.Errorf("%w: %s: %v", transform.ErrMalformedArguments, k, err)
			}
		}
		fn, err := args.build(transform.Kind(k))
		if err != nil {
			return err
		}
		f.Func = fn
	}
	return nil
}

func (a rawFuncArgs) build(kind transform.Kind) (transform.Func, error) {
	fn := transform.Func{Kind: kind, Old: a.Old, New: a.New, Value: a.Value, File: a.File}

	pos := a.Position
	if pos == "" {
		pos = a.Replace
	}
	if pos != "" {
		p, err := transform.ParsePosition(pos)
		if err != nil {
			return fn, err
		}
		fn.Position = p
	}

	if len(a.Letter) > 0 {
		var s string
		var pair rawLetters
		switch {
		case json.Unmarshal(a.Letter, &s) == nil:
			fn.Letter = s
		case json.Unmarshal(a.Letter, &pair) == nil:
			fn.Old, fn.New = pair.Old, pair.New
		default:
			return fn, fmt.Errorf("%w: %s: letter must be a string or {old, new}", transform.ErrMalformedArguments, kind)
		}
	}

	for _, raw := range a.Letters {
		var idx int
		var s string
		switch {
		case json.Unmarshal(raw, &idx) == nil:
			fn.Letters = append(fn.Letters, transform.Index(idx))
		case json.Unmarshal(raw, &s) == nil:
			fn.Letters = append(fn.Letters, transform.Letter(s))
		default:
			return fn, fmt.Errorf("%w: %s: letters must be positions or strings", transform.ErrMalformedArguments, kind)
		}
	}
	return fn, nil
}

func (f rawFunc) MarshalJSON() ([]byte, error) {
	fn := f.Func
	var args any
	switch fn.Kind {
	case transform.KindLoanword:
		return json.Marshal(string(fn.Kind))
	case transform.KindLetterReplace:
		args = map[string]any{"letter": rawLetters{Old: fn.Old, New: fn.New}, "replace": fn.Position}
	case transform.KindLetterRemove, transform.KindDouble, transform.KindDedouble:
		args = map[string]any{"letter": fn.Letter, "position": fn.Position}
	case transform.KindPrefix, transform.KindPostfix:
		args = map[string]any{"value": fn.Value}
	case transform.KindMatchReplace:
		args = map[string]any{"old": fn.Old, "new": fn.New}
	case transform.KindScript:
		args = map[string]any{"file": fn.File}
	case transform.KindLetterArray:
		letters := make([]any, len(fn.Letters))
		for i, v := range fn.Letters {
			if v.IsIndex {
				letters[i] = v.Index
			} else {
				letters[i] = v.Letter
			}
		}
		args = map[string]any{"letters": letters}
	default:
		return nil, fmt.Errorf("%w: cannot encode kind %q", transform.ErrMalformedArguments, fn.Kind)
	}
	return json.Marshal(map[string]any{string(fn.Kind): args})
}

func funcs(raw []rawFunc) []transform.Func {
	out := make([]transform.Func, len(raw))
	for i, r := range raw {
		out[i] = r.Func
	}
	return out
}

// rawMatch maps a field name to its condition. A condition is
// {"match": cmp}, {"not": cmp}, a bare string (equals) or, for archaic, a
// bool. cmp is {"equals": string | [string]} or {"oneof": [string]}.
type rawMatch map[string]json.RawMessage

type rawCmp struct {
	Equals json.RawMessage `json:"equals,omitempty"`
	OneOf  []string        `json:"oneof,omitempty"`
}

type rawCondition struct {
	Match *rawCmp `json:"match,omitempty"`
	Not   *rawCmp `json:"not,omitempty"`
}

// predicate converts the map into a conjunction of field matches, in field
// name order. An empty map yields nil, which matches everything.
func (m rawMatch) predicate() (match.Predicate, error) {
	if len(m) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	var all match.All
	for _, name := range names {
		p, err := fieldPredicate(name, m[name])
		if err != nil {
			return nil, err
		}
		all = append(all, p)
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return all, nil
}

func fieldPredicate(name string, raw json.RawMessage) (match.Predicate, error) {
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return match.Field(name, match.Equals(fmt.Sprint(b))), nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return match.Field(name, match.Equals(s)), nil
	}

	var cond rawCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return nil, fmt.Errorf("%w: condition on %q: %v", match.ErrMalformedArguments, name, err)
	}
	switch {
	case cond.Match != nil && cond.Not == nil:
		cmp, err := cond.Match.comparator(name)
		if err != nil {
			return nil, err
		}
		return match.Field(name, cmp), nil
	case cond.Not != nil && cond.Match == nil:
		cmp, err := cond.Not.comparator(name)
		if err != nil {
			return nil, err
		}
		return match.Negate(match.Field(name, cmp)), nil
	}
	return nil, fmt.Errorf("%w: condition on %q needs exactly one of match, not", match.ErrMalformedArguments, name)
}

func (c rawCmp) comparator(name string) (match.Comparator, error) {
	switch {
	case len(c.Equals) > 0 && c.OneOf == nil:
		var one string
		if json.Unmarshal(c.Equals, &one) == nil {
			return match.Equals(one), nil
		}
		var many []string
		if err := json.Unmarshal(c.Equals, &many); err != nil {
			return match.Comparator{}, fmt.Errorf("%w: %q equals must be a string or list", match.ErrMalformedArguments, name)
		}
		return match.Equals(many...), nil
	case c.OneOf != nil && len(c.Equals) == 0:
		return match.OneOf(c.OneOf...), nil
	}
	return match.Comparator{}, fmt.Errorf("%w: %q needs exactly one of equals, oneof", match.ErrMalformedArguments, name)
}
