package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirum/internal/config"
	"kirum/internal/daughter"
	"kirum/internal/derive"
	"kirum/internal/project"
)

// autogeneratedTag marks entries written by generate daughter.
const autogeneratedTag = "autogenerated"

var (
	daughterEtymology string
	daughterAncestor  string
	daughterName      string
	daughterGroupBy   string

	wordCount int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new entries from an existing project",
}

var generateDaughterCmd = &cobra.Command{
	Use:   "daughter",
	Short: "Derive a daughter language from a language in the project",
	Long: `Creates one entry in the daughter language for every entry of the
ancestor language. Each new entry derives from its ancestor through every
transform in the --daughter-etymology file, applied in name order.

The new entries are written as a tree file (default tree/<name>.json in the
project). Daughter transforms the project does not already define are
copied to etymology/<name>.json so the result loads with the project.

Example:
  kirum generate daughter -e old-east.json -a "Proto-Kirum" -n "Old East"`,
	Args: cobra.NoArgs,
	RunE: runGenerateDaughter,
}

var generateWordCmd = &cobra.Command{
	Use:   "word [lexis-type]",
	Short: "Generate words from the project's phonetic rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateWord,
}

func init() {
	generateDaughterCmd.Flags().StringVarP(&daughterEtymology, "daughter-etymology", "e", "", "Etymology file with the daughter transforms (required)")
	generateDaughterCmd.Flags().StringVarP(&daughterAncestor, "ancestor", "a", "", "Language to derive from (required)")
	generateDaughterCmd.Flags().StringVarP(&daughterName, "name", "n", "", "Name of the daughter language (required)")
	generateDaughterCmd.Flags().StringVar(&daughterGroupBy, "group-by", "", "Split output into files by word, archaic or type; --output is then a directory")
	_ = generateDaughterCmd.MarkFlagRequired("daughter-etymology")
	_ = generateDaughterCmd.MarkFlagRequired("ancestor")
	_ = generateDaughterCmd.MarkFlagRequired("name")

	generateWordCmd.Flags().IntVarP(&wordCount, "count", "c", 1, "Number of words to generate")

	generateCmd.AddCommand(generateDaughterCmd)
	generateCmd.AddCommand(generateWordCmd)
}

func runGenerateDaughter(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	log := activeLogger()
	conf := settings()

	transforms, err := project.ReadTransforms(daughterEtymology)
	if err != nil {
		return err
	}

	eng, err := newEngine(projectDir, conf, log)
	if err != nil {
		return err
	}
	p, err := eng.load(ctx)
	if err != nil {
		return err
	}

	out, err := daughter.Generate(p.Graph, p.Catalog, daughter.Options{
		Source:     daughterAncestor,
		Target:     daughterName,
		Transforms: transforms,
		ExtraTags:  []string{autogeneratedTag},
		Logger:     log,
	})
	if err != nil {
		return err
	}

	ev, err := eng.evaluator(out.Graph, out.Catalog, p.Globals, p.Phonetics)
	if err != nil {
		return err
	}
	res, err := ev.Render(ctx)
	if err != nil {
		return err
	}
	recs := res.Records(derive.ByLanguage(daughterName))

	slug := daughter.Slug(daughterName)
	dest := outputPath
	if dest == "" {
		dest = filepath.Join(projectDir, "tree", slug)
		if daughterGroupBy == "" {
			dest += ".json"
		}
	}

	var written []string
	if daughterGroupBy == "" {
		if err := project.WriteTree(dest, recs); err != nil {
			return err
		}
		written = []string{dest}
	} else {
		groups, err := project.GroupRecords(daughterGroupBy, slug, recs)
		if err != nil {
			return err
		}
		if written, err = project.WriteTreeGroups(dest, groups); err != nil {
			return err
		}
	}

	if outputPath == "" {
		if err := copyDaughterEtymology(conf, slug, out.Registered); err != nil {
			return err
		}
	}

	log.Info("daughter language written", zap.String("language", daughterName), zap.Int("entries", len(recs)), zap.Strings("files", written))
	fmt.Fprintf(cmd.OutOrStdout(), "created %d %s entries in %s\n", len(recs), daughterName, strings.Join(written, ", "))
	return nil
}

// copyDaughterEtymology places the daughter transforms the project did not
// already define in the project's etymology directory, so the new tree loads
// with the project. An existing destination is left alone.
func copyDaughterEtymology(conf *config.Config, slug string, registered []string) error {
	if len(registered) == 0 {
		return nil
	}
	etyDir := filepath.Join(projectDir, strings.SplitN(conf.Project.EtymologyGlob, "/", 2)[0])
	dest := filepath.Join(etyDir, slug+".json")
	if _, err := os.Stat(dest); err == nil {
		activeLogger().Warn("daughter etymology not copied, destination exists",
			zap.String("path", dest), zap.Strings("transforms", registered))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	_, err := project.CopyTransforms(daughterEtymology, dest, registered)
	return err
}

func runGenerateWord(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(projectDir, settings(), activeLogger())
	if err != nil {
		return err
	}
	p, err := eng.load(commandContext(cmd))
	if err != nil {
		return err
	}
	gen, err := eng.generator(p.Phonetics)
	if err != nil {
		return err
	}
	if gen == nil {
		return fmt.Errorf("project %s has no phonetic rules", projectDir)
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	for i := 0; i < wordCount; i++ {
		word, err := gen.Generate(args[0])
		if err != nil {
			_ = closeFn()
			return err
		}
		fmt.Fprintln(w, word)
	}
	return closeFn()
}
