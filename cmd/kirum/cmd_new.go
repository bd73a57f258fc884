package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"kirum/internal/config"
	"kirum/internal/project"
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new project with example files",
	Long: `Creates a project directory holding an example tree, etymology,
phonetic rules, an empty globals file and a kirum.yaml with the defaults.

Example:
  kirum new mylang
  kirum render -d mylang`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := project.Create(dir); err != nil {
		return err
	}
	if err := config.DefaultConfig().Save(filepath.Join(dir, config.FileName)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created new project %s\n", dir)
	return nil
}
