package export

import (
	"sort"

	"kirum/internal/derive"
	"kirum/internal/lexis"
)

// Count is one labelled tally.
type Count struct {
	Name  string
	Count int
}

// Stats summarizes a lexicon.
type Stats struct {
	Total      int
	Nouns      int
	Verbs      int
	Adjectives int
	Archaic    int
	Languages  []Count
	Types      []Count
}

// Summarize tallies records by part of speech, language and type. Tallies
// are sorted by descending count, then name.
func Summarize(recs []derive.Record) Stats {
	s := Stats{Total: len(recs)}
	langs := map[string]int{}
	types := map[string]int{}
	for _, r := range recs {
		switch r.PartOfSpeech {
		case lexis.Noun:
			s.Nouns++
		case lexis.Verb:
			s.Verbs++
		case lexis.Adjective:
			s.Adjectives++
		}
		if r.Archaic {
			s.Archaic++
		}
		lang := r.Language
		if lang == "" {
			lang = "None Set"
		}
		langs[lang]++
		if r.Type != "" {
			types[r.Type]++
		}
	}
	s.Languages = tally(langs)
	s.Types = tally(types)
	return s
}

func tally(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
