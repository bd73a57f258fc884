package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kirum/internal/config"
	"kirum/internal/derive"
	"kirum/internal/export"
	"kirum/internal/lexis"
	"kirum/internal/watch"
)

const (
	formatSQLite      = "sqlite"
	defaultSQLitePath = "lexicon.db"
)

// renderFlags holds the filters shared by render and stat.
type renderFlags struct {
	language    string
	tag         string
	lexisType   string
	pos         string
	archaic     string
	table       string
	variables   string
	watch       bool
	metricsAddr string
}

var renderOpts renderFlags

var renderCmd = &cobra.Command{
	Use:   "render [line|csv|json|dot|sqlite]",
	Short: "Render the lexicon of a project",
	Long: `Resolves every entry of the project and prints the lexicon.

Formats:
  - line:   one "word (language): (pos) definition" per line (default)
  - csv:    one row per entry with etymons
  - json:   a words map keyed by id, loadable as a tree file
  - dot:    a graphviz digraph of the etymology
  - sqlite: a database at --output (default lexicon.db)

Definitions may hold {{name}} placeholders, filled from the --variables file.

With --watch, the project is re-rendered whenever one of its files changes.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"line", "csv", "json", "dot", formatSQLite},
	RunE:      runRender,
}

func init() {
	addFilterFlags(renderCmd, &renderOpts)
	renderCmd.Flags().StringVar(&renderOpts.table, "table", "", "SQLite table name (default from config)")
	renderCmd.Flags().StringVar(&renderOpts.variables, "variables", "", "YAML file of values for {{name}} placeholders in definitions")
	renderCmd.Flags().BoolVarP(&renderOpts.watch, "watch", "w", false, "Re-render when project files change")
	renderCmd.Flags().StringVar(&renderOpts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while watching")
}

func addFilterFlags(cmd *cobra.Command, f *renderFlags) {
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Only entries in this language")
	cmd.Flags().StringVarP(&f.tag, "tag", "t", "", "Only entries with this tag")
	cmd.Flags().StringVar(&f.lexisType, "type", "", "Only entries of this lexis type")
	cmd.Flags().StringVar(&f.pos, "pos", "", "Only entries with this part of speech")
	cmd.Flags().StringVar(&f.archaic, "archaic", "", "Only archaic (true) or modern (false) entries")
}

// filters converts the flags into record filters.
func (f renderFlags) filters() ([]derive.Filter, error) {
	var out []derive.Filter
	if f.language != "" {
		out = append(out, derive.ByLanguage(f.language))
	}
	if f.tag != "" {
		out = append(out, derive.ByTag(f.tag))
	}
	if f.lexisType != "" {
		out = append(out, derive.ByType(f.lexisType))
	}
	if f.pos != "" {
		pos, err := lexis.ParsePartOfSpeech(f.pos)
		if err != nil {
			return nil, err
		}
		out = append(out, derive.ByPartOfSpeech(pos))
	}
	if f.archaic != "" {
		archaic, err := strconv.ParseBool(f.archaic)
		if err != nil {
			return nil, fmt.Errorf("invalid --archaic value %q: %w", f.archaic, err)
		}
		out = append(out, derive.ByArchaic(archaic))
	}
	return out, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	format := string(export.FormatLine)
	if len(args) == 1 {
		format = args[0]
	}
	if format != formatSQLite {
		if err := checkFormat(format); err != nil {
			return err
		}
	}
	filters, err := renderOpts.filters()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	conf := settings()
	eng, err := newEngine(projectDir, conf, activeLogger())
	if err != nil {
		return err
	}

	once := func(ctx context.Context) error {
		_, res, err := eng.render(ctx)
		if err != nil {
			return err
		}
		recs := res.Records(filters...)
		if renderOpts.variables != "" {
			vars, err := export.ReadVariables(renderOpts.variables)
			if err != nil {
				return err
			}
			export.ApplyVariables(recs, vars)
		}
		sortRecords(recs, conf.Render.Sort)
		activeLogger().Debug("rendered", zap.String("pass", res.PassID), zap.Int("records", len(recs)))
		return emit(ctx, cmd, format, recs)
	}

	if err := once(ctx); err != nil {
		if !renderOpts.watch {
			return err
		}
		activeLogger().Error("render failed", zap.Error(err))
	}
	if !renderOpts.watch {
		return nil
	}
	return watchAndRender(ctx, eng, format, once)
}

func checkFormat(format string) error {
	for _, f := range export.Formats {
		if string(f) == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", export.ErrUnknownFormat, format)
}

func emit(ctx context.Context, cmd *cobra.Command, format string, recs []derive.Record) error {
	if format == formatSQLite {
		path := outputPath
		if path == "" {
			path = defaultSQLitePath
		}
		table := renderOpts.table
		if table == "" {
			table = settings().Export.SQLiteTable
		}
		if err := export.WriteSQLite(ctx, path, table, recs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", len(recs), path)
		return nil
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	if err := export.Write(w, export.Format(format), recs); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

// watchAndRender re-runs render on every settled change until ctx is done.
func watchAndRender(ctx context.Context, eng *engine, format string, render func(context.Context) error) error {
	log := activeLogger()

	if renderOpts.metricsAddr != "" {
		stop, err := serveMetrics(renderOpts.metricsAddr, eng)
		if err != nil {
			return err
		}
		defer stop()
	}

	patterns := watchPatterns(eng.cfg)
	if rel, ok := projectRelative(renderOpts.variables); ok {
		patterns = append(patterns, rel)
	}
	match, err := watch.ProjectMatch(projectDir, patterns, renderDestination(format))
	if err != nil {
		return err
	}
	w, err := watch.New(projectDir, func(ctx context.Context, paths []string) {
		log.Info("project changed, re-rendering", zap.Strings("paths", paths))
		if err := render(ctx); err != nil {
			log.Error("render failed", zap.Error(err))
		}
	}, watch.Options{Logger: log, Match: match})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	return nil
}

// watchPatterns lists the project files a render reads, relative to the
// project directory.
func watchPatterns(conf *config.Config) []string {
	patterns := []string{
		conf.Project.TreeGlob,
		conf.Project.EtymologyGlob,
		conf.Project.PhoneticsGlob,
		conf.Project.GlobalsFile,
		config.FileName,
		".env",
	}
	dir := conf.Scripts.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(projectDir, dir)
	}
	rel, ok := projectRelative(dir)
	switch {
	case !ok:
		return patterns
	case rel == ".":
		return append(patterns, "**/*.go")
	}
	return append(patterns, rel+"/**/*.go")
}

// projectRelative returns path relative to the project directory, slash
// separated, when the path lies inside it.
func projectRelative(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// renderDestination is the file a render writes, or "" for stdout.
func renderDestination(format string) string {
	if outputPath != "" {
		return outputPath
	}
	if format == formatSQLite {
		return defaultSQLitePath
	}
	return ""
}

func serveMetrics(addr string, eng *engine) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", eng.metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			activeLogger().Error("metrics server stopped", zap.Error(err))
		}
	}()
	activeLogger().Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
