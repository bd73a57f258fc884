// Package project reads and writes kirum project directories.
//
// A project is a directory holding tree files (lexis entries), etymology files
// (named transforms), optional phonetic rule files and an optional globals
// file. Files are discovered with glob patterns and read concurrently; merging
// is done in sorted path order so loading is deterministic.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kirum/internal/lexis"
	"kirum/internal/phonetic"
	"kirum/internal/transform"
)

var (
	// ErrNoEntries is returned when a project's tree files declare no lexis.
	ErrNoEntries = errors.New("project tree contains no entries")

	// ErrDuplicateKey is returned when two files declare the same lexis or transform.
	ErrDuplicateKey = errors.New("key declared more than once")
)

// Layout names where each kind of file lives, relative to the project root.
type Layout struct {
	TreeGlob      string
	EtymologyGlob string
	PhoneticsGlob string
	GlobalsFile   string
}

// DefaultLayout is the standard kirum directory layout.
func DefaultLayout() Layout {
	return Layout{
		TreeGlob:      "tree/**/*.json",
		EtymologyGlob: "etymology/**/*.json",
		PhoneticsGlob: "phonetics/**/*.json",
		GlobalsFile:   "globals.json",
	}
}

// Project is a loaded project converted to core types.
type Project struct {
	Dir       string
	Graph     *lexis.Graph
	Catalog   *transform.Catalog
	Globals   []transform.Global
	Phonetics phonetic.Ruleset
	// Files lists every file read, relative to Dir.
	Files []string
}

// Loader reads projects.
type Loader struct {
	layout      Layout
	log         *zap.Logger
	concurrency int
}

// NewLoader creates a loader. A zero layout field falls back to DefaultLayout.
func NewLoader(layout Layout, logger *zap.Logger) *Loader {
	def := DefaultLayout()
	if layout.TreeGlob == "" {
		layout.TreeGlob = def.TreeGlob
	}
	if layout.EtymologyGlob == "" {
		layout.EtymologyGlob = def.EtymologyGlob
	}
	if layout.PhoneticsGlob == "" {
		layout.PhoneticsGlob = def.PhoneticsGlob
	}
	if layout.GlobalsFile == "" {
		layout.GlobalsFile = def.GlobalsFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{layout: layout, log: logger.Named("project"), concurrency: 8}
}

// Layout returns the effective layout.
func (l *Loader) Layout() Layout { return l.layout }

type readFile struct {
	path string
	data []byte
}

// Load reads the project rooted at dir.
func (l *Loader) Load(ctx context.Context, dir string) (*Project, error) {
	fsys := os.DirFS(dir)

	trees, err := l.read(ctx, fsys, l.layout.TreeGlob)
	if err != nil {
		return nil, err
	}
	etys, err := l.read(ctx, fsys, l.layout.EtymologyGlob)
	if err != nil {
		return nil, err
	}
	phons, err := l.read(ctx, fsys, l.layout.PhoneticsGlob)
	if err != nil {
		return nil, err
	}

	p := &Project{Dir: dir}
	if p.Catalog, err = buildCatalog(etys); err != nil {
		return nil, err
	}
	if p.Graph, err = buildGraph(trees); err != nil {
		return nil, err
	}
	if p.Phonetics, err = buildPhonetics(phons); err != nil {
		return nil, err
	}

	globals, err := fs.ReadFile(fsys, l.layout.GlobalsFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read globals: %w", err)
	default:
		if p.Globals, err = buildGlobals(l.layout.GlobalsFile, globals); err != nil {
			return nil, err
		}
		p.Files = append(p.Files, l.layout.GlobalsFile)
	}

	for _, group := range [][]readFile{trees, etys, phons} {
		for _, f := range group {
			p.Files = append(p.Files, f.path)
		}
	}
	sort.Strings(p.Files)

	l.log.Info("project loaded",
		zap.String("dir", dir),
		zap.Int("lexis", p.Graph.Len()),
		zap.Int("transforms", p.Catalog.Count()),
		zap.Int("globals", len(p.Globals)),
		zap.Int("files", len(p.Files)))
	return p, nil
}

// read globs pattern and reads every match concurrently. Results come back
// in sorted path order.
func (l *Loader) read(ctx context.Context, fsys fs.FS, pattern string) ([]readFile, error) {
	paths, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}
	sort.Strings(paths)

	out := make([]readFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			out[i] = readFile{path: path, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.log.Debug("files read", zap.String("pattern", pattern), zap.Int("count", len(out)))
	return out, nil
}

func buildGraph(files []readFile) (*lexis.Graph, error) {
	g := lexis.NewGraph()
	seen := make(map[string]string)
	claim := func(id, path string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: lexis %q in %s and %s", ErrDuplicateKey, id, prev, path)
		}
		seen[id] = path
		return nil
	}

	for _, f := range files {
		var tf treeFile
		if err := json.Unmarshal(f.data, &tf); err != nil {
			return nil, fmt.Errorf("error parsing tree file %s: %w", f.path, err)
		}
		ids := make([]string, 0, len(tf.Words))
		for id := range tf.Words {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			raw := tf.Words[id]
			if err := claim(id, f.path); err != nil {
				return nil, err
			}
			var ders []lexis.Derivative
			for n, d := range raw.Derivatives {
				if err := claim(lexis.DerivativeID(id, n), f.path); err != nil {
					return nil, err
				}
				ders = append(ders, lexis.Derivative{Lexis: d.Lexis.toLexis(""), Transforms: d.Transforms})
			}
			if err := g.InsertWithDerivatives(raw.toLexis(id), ders); err != nil {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
		}
	}
	if g.Len() == 0 {
		return nil, ErrNoEntries
	}
	return g, nil
}

func buildCatalog(files []readFile) (*transform.Catalog, error) {
	c := transform.NewCatalog()
	for _, f := range files {
		var ef etymologyFile
		if err := json.Unmarshal(f.data, &ef); err != nil {
			return nil, fmt.Errorf("error parsing etymology file %s: %w", f.path, err)
		}
		names := make([]string, 0, len(ef.Transforms))
		for name := range ef.Transforms {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			raw := ef.Transforms[name]
			when, err := raw.Conditional.predicate()
			if err != nil {
				return nil, fmt.Errorf("%s: transform %q: %w", f.path, name, err)
			}
			err = c.Register(transform.Transform{Name: name, When: when, Funcs: funcs(raw.Transforms)})
			if errors.Is(err, transform.ErrAlreadyRegistered) {
				return nil, fmt.Errorf("%w: transform %q in %s", ErrDuplicateKey, name, f.path)
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.path, err)
			}
		}
	}
	return c, nil
}

func buildGlobals(path string, data []byte) ([]transform.Global, error) {
	var gf globalsFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("error parsing globals file %s: %w", path, err)
	}

	out := make([]transform.Global, 0, len(gf.Transforms))
	for i, raw := range gf.Transforms {
		lex, err := raw.Conditional.Lexis.predicate()
		if err != nil {
			return nil, fmt.Errorf("%s: global %d lexis: %w", path, i, err)
		}
		ety, err := raw.Conditional.Etymon.predicate()
		if err != nil {
			return nil, fmt.Errorf("%s: global %d etymon: %w", path, i, err)
		}
		mode, err := transform.ParseEtymonMode(raw.Conditional.EtymonMode)
		if err != nil {
			return nil, fmt.Errorf("%s: global %d: %w", path, i, err)
		}
		name := raw.Name
		if name == "" {
			name = fmt.Sprintf("global-%d", i)
		}
		out = append(out, transform.Global{Name: name, Lexis: lex, Etymon: ety, Mode: mode, Funcs: funcs(raw.Transforms)})
	}
	return out, nil
}

func buildPhonetics(files []readFile) (phonetic.Ruleset, error) {
	var rules phonetic.Ruleset
	for _, f := range files {
		var pf phoneticsFile
		if err := json.Unmarshal(f.data, &pf); err != nil {
			return rules, fmt.Errorf("error parsing phonetics file %s: %w", f.path, err)
		}
		part := phonetic.Ruleset{Groups: map[string][]phonetic.Pattern{}, Shapes: map[string][]phonetic.Pattern{}}
		for k, v := range pf.Groups {
			ps, err := phonetic.ParsePatterns(v...)
			if err != nil {
				return rules, fmt.Errorf("%s: group %q: %w", f.path, k, err)
			}
			part.Groups[k] = ps
		}
		for k, v := range pf.LexisTypes {
			ps, err := phonetic.ParsePatterns(v...)
			if err != nil {
				return rules, fmt.Errorf("%s: lexis type %q: %w", f.path, k, err)
			}
			part.Shapes[k] = ps
		}
		if err := rules.Merge(part); err != nil {
			return rules, fmt.Errorf("%s: %w", f.path, err)
		}
	}
	if !rules.Empty() {
		if err := rules.Validate(); err != nil {
			return rules, err
		}
	}
	return rules, nil
}
