package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"kirum/internal/export"
)

var statOpts renderFlags

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print statistics about the rendered lexicon",
	Args:  cobra.NoArgs,
	RunE:  runStat,
}

func init() {
	addFilterFlags(statCmd, &statOpts)
}

func runStat(cmd *cobra.Command, args []string) error {
	filters, err := statOpts.filters()
	if err != nil {
		return err
	}
	eng, err := newEngine(projectDir, settings(), activeLogger())
	if err != nil {
		return err
	}
	_, res, err := eng.render(commandContext(cmd))
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	writeStats(w, export.Summarize(res.Records(filters...)))
	return closeFn()
}

func writeStats(w io.Writer, s export.Stats) {
	st := newStyles(w)
	row := func(label string, n int) {
		fmt.Fprintln(w, st.Label.Render(label)+st.Value.Render(strconv.Itoa(n)))
	}

	fmt.Fprintln(w, st.Title.Render("Lexicon"))
	row("Total words", s.Total)
	row("Nouns", s.Nouns)
	row("Verbs", s.Verbs)
	row("Adjectives", s.Adjectives)
	row("Archaic", s.Archaic)

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Title.Render("Languages"))
	for _, c := range s.Languages {
		row(c.Name, c.Count)
	}

	if len(s.Types) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Title.Render("Lexis types"))
		for _, c := range s.Types {
			row(c.Name, c.Count)
		}
	}
}
