package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirum/internal/config"
	"kirum/internal/lexis"
	"kirum/internal/project"
)

type ingestFlags struct {
	name      string
	overrides []string
}

var ingestOpts ingestFlags

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import a word list as a tree file",
	Long: `Imports an external word list into the project as one tree file.
The project directory is created first when it does not exist.

Every entry starts from the --override values (key=value, repeatable).
Valid keys: word, type, language, pos, archaic, tag, generate.

Example:
  kirum ingest lines defs.txt -d mylang --override generate=word --override pos=noun
  kirum ingest json words.json -d mylang`,
}

var ingestJSONCmd = &cobra.Command{
	Use:   "json FILE",
	Short: "Import a nested JSON word list",
	Long: `Reads {"keys_are": "definitions"|"words", "words": [...]}.
A string is an entry. An object key is an entry its values derive from.
A value "!name" links the key to its parent through transform name, as does
a child object holding "!etymology": "name".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0], func(r io.Reader, base lexis.Lexis) ([]lexis.Lexis, error) {
			return project.IngestJSON(r, base, activeLogger())
		})
	},
}

var ingestLinesCmd = &cobra.Command{
	Use:   "lines FILE",
	Short: "Import one definition per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd, args[0], project.IngestLines)
	},
}

func init() {
	ingestCmd.PersistentFlags().StringVarP(&ingestOpts.name, "name", "n", "ingest.json", "Tree file name inside the project tree directory")
	ingestCmd.PersistentFlags().StringArrayVar(&ingestOpts.overrides, "override", nil, "key=value set on every entry")
	ingestCmd.AddCommand(ingestJSONCmd)
	ingestCmd.AddCommand(ingestLinesCmd)
}

func runIngest(cmd *cobra.Command, file string, read func(io.Reader, lexis.Lexis) ([]lexis.Lexis, error)) error {
	base, err := project.ParseOverrides(ingestOpts.overrides)
	if err != nil {
		return err
	}
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", file, err)
	}
	defer f.Close()
	entries, err := read(f, base)
	if err != nil {
		return err
	}

	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		if err := project.Create(projectDir); err != nil {
			return err
		}
		if err := config.DefaultConfig().Save(filepath.Join(projectDir, config.FileName)); err != nil {
			return err
		}
		activeLogger().Info("created project for ingest", zap.String("dir", projectDir))
	}

	path := filepath.Join(projectDir, "tree", ingestOpts.name)
	if err := project.WriteEntries(path, entries); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d entries into %s\n", len(entries), path)
	return nil
}
