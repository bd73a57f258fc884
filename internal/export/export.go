// Package export writes rendered records in the formats the CLI offers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kirum/internal/derive"
	"kirum/internal/lexis"
)

// Format names a text output format.
type Format string

const (
	FormatLine Format = "line"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatDot  Format = "dot"
)

// ErrUnknownFormat is returned for a format name Write does not know.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the text formats in display order.
var Formats = []Format{FormatLine, FormatCSV, FormatJSON, FormatDot}

// Write renders recs to w in the given format.
func Write(w io.Writer, f Format, recs []derive.Record) error {
	switch f {
	case FormatLine:
		return WriteLines(w, recs)
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatJSON:
		return WriteJSON(w, recs)
	case FormatDot:
		return WriteDot(w, recs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Line formats one record as "word (language): (pos) definition".
func Line(r derive.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", r.Word, r.Language)
	if r.PartOfSpeech != lexis.None {
		fmt.Fprintf(&b, ": (%s)", r.PartOfSpeech)
	}
	if r.Definition != "" {
		b.WriteString(" " + r.Definition)
	}
	if r.Archaic {
		b.WriteString(" [archaic]")
	}
	return b.String()
}

// WriteLines writes one record per line.
func WriteLines(w io.Writer, recs []derive.Record) error {
	for _, r := range recs {
		if _, err := fmt.Fprintln(w, Line(r)); err != nil {
			return err
		}
	}
	return nil
}

var csvHeader = []string{"id", "word", "language", "definition", "part_of_speech", "type", "archaic", "tags", "etymons"}

// WriteCSV writes a header row and one row per record. Tags and etymon ids
// are joined with ';'.
func WriteCSV(w io.Writer, recs []derive.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		ids := make([]string, len(r.Etymons))
		for i, e := range r.Etymons {
			ids[i] = e.ID
		}
		row := []string{
			r.ID, r.Word, r.Language, r.Definition, r.PartOfSpeech.String(), r.Type,
			strconv.FormatBool(r.Archaic), strings.Join(r.Tags, ";"), strings.Join(ids, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonEdge struct {
	Etymon             string   `json:"etymon"`
	Transforms         []string `json:"transforms,omitempty"`
	AgglutinationOrder int      `json:"agglutination_order"`
}

type jsonEntry struct {
	Word         string             `json:"word"`
	Language     string             `json:"language"`
	Definition   string             `json:"definition"`
	PartOfSpeech lexis.PartOfSpeech `json:"part_of_speech"`
	Type         string             `json:"type,omitempty"`
	Archaic      bool               `json:"archaic"`
	Tags         []string           `json:"tags,omitempty"`
	Historical   []string           `json:"historical_metadata,omitempty"`
	Etymons      []jsonEdge         `json:"etymons,omitempty"`
}

// WriteJSON writes the records as a graph keyed by id.
func WriteJSON(w io.Writer, recs []derive.Record) error {
	words := make(map[string]jsonEntry, len(recs))
	for _, r := range recs {
		e := jsonEntry{
			Word:         r.Word,
			Language:     r.Language,
			Definition:   r.Definition,
			PartOfSpeech: r.PartOfSpeech,
			Type:         r.Type,
			Archaic:      r.Archaic,
			Tags:         r.Tags,
			Historical:   r.Historical,
		}
		for _, et := range r.Etymons {
			e.Etymons = append(e.Etymons, jsonEdge{Etymon: et.ID, Transforms: et.Transforms, AgglutinationOrder: et.Order})
		}
		words[r.ID] = e
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"words": words})
}

// WriteDot writes a graphviz digraph with an edge from every etymon to the
// entry derived from it, labelled with the transforms applied.
func WriteDot(w io.Writer, recs []derive.Record) error {
	var b strings.Builder
	b.WriteString("digraph kirum {\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "  %s [label=%s];\n", strconv.Quote(r.ID), strconv.Quote(fmt.Sprintf("%s (%s)", r.Word, r.Language)))
	}
	for _, r := range recs {
		for _, e := range r.Etymons {
			label := strings.Join(e.Transforms, ", ")
			if label == "" {
				label = "loanword"
			}
			fmt.Fprintf(&b, "  %s -> %s [label=%s];\n", strconv.Quote(e.ID), strconv.Quote(r.ID), strconv.Quote(label))
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
