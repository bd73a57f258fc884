package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a project loads and every entry resolves",
	Long: `Loads the project, checks every etymon and transform reference, and
runs one render pass so cycles, underspecified entries and failing scripts are
reported. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(projectDir, settings(), activeLogger())
	if err != nil {
		return err
	}
	p, res, err := eng.render(commandContext(cmd))
	if err != nil {
		return err
	}

	st := newStyles(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), st.Status.Render("ok")+" "+st.Muted.Render(fmt.Sprintf(
		"%d entries, %d transforms, %d globals, %d files",
		res.Len(), p.Catalog.Count(), len(p.Globals), len(p.Files))))
	return nil
}
