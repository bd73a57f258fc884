package derive

import (
	"sort"

	"kirum/internal/lexis"
)

// Record is one resolved lexis.
type Record struct {
	ID           string
	Language     string
	Word         string
	Definition   string
	Type         string
	PartOfSpeech lexis.PartOfSpeech
	Archaic      bool
	Tags         []string
	Historical   []string
	Etymons      []lexis.Etymon
}

// Filter selects records.
type Filter func(Record) bool

// ByLanguage keeps records in language.
func ByLanguage(language string) Filter {
	return func(r Record) bool { return r.Language == language }
}

// ByTag keeps records carrying tag.
func ByTag(tag string) Filter {
	return func(r Record) bool {
		for _, t := range r.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}
}

// ByArchaic keeps archaic or modern records.
func ByArchaic(archaic bool) Filter {
	return func(r Record) bool { return r.Archaic == archaic }
}

// ByType keeps records of lexis type typ.
func ByType(typ string) Filter {
	return func(r Record) bool { return r.Type == typ }
}

// ByPartOfSpeech keeps records with part of speech pos.
func ByPartOfSpeech(pos lexis.PartOfSpeech) Filter {
	return func(r Record) bool { return r.PartOfSpeech == pos }
}

// Result is the outcome of one render pass.
type Result struct {
	PassID  string
	records []Record
	byID    map[string]int
}

func newResult(passID string, g *lexis.Graph, resolved map[string]string) *Result {
	r := &Result{PassID: passID, byID: make(map[string]int, len(resolved))}
	for id, word := range resolved {
		l, _ := g.Get(id)
		etymons := l.OrderedEtymons()
		for i := range etymons {
			etymons[i].Transforms = append([]string(nil), etymons[i].Transforms...)
		}
		r.records = append(r.records, Record{
			ID:           id,
			Language:     l.Language,
			Word:         word,
			Definition:   l.Definition,
			Type:         l.Type,
			PartOfSpeech: l.POS,
			Archaic:      l.Archaic,
			Tags:         append([]string(nil), l.Tags...),
			Historical:   append([]string(nil), l.Historical...),
			Etymons:      etymons,
		})
	}

	sort.Slice(r.records, func(i, j int) bool {
		a, b := r.records[i], r.records[j]
		if a.Word != b.Word {
			return a.Word < b.Word
		}
		return a.ID < b.ID
	})
	for i, rec := range r.records {
		r.byID[rec.ID] = i
	}
	return r
}

// Len returns the number of resolved records.
func (r *Result) Len() int { return len(r.records) }

// Word returns the resolved word for id.
func (r *Result) Word(id string) (string, bool) {
	i, ok := r.byID[id]
	if !ok {
		return "", false
	}
	return r.records[i].Word, true
}

// Record returns the resolved record for id.
func (r *Result) Record(id string) (Record, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// Records returns the records matching every filter, sorted by word then id.
func (r *Result) Records(filters ...Filter) []Record {
	out := make([]Record, 0, len(r.records))
next:
	for _, rec := range r.records {
		for _, f := range filters {
			if !f(rec) {
				continue next
			}
		}
		out = append(out, rec)
	}
	return out
}

// Words returns resolved words keyed by id.
func (r *Result) Words() map[string]string {
	out := make(map[string]string, len(r.records))
	for _, rec := range r.records {
		out[rec.ID] = rec.Word
	}
	return out
}
