package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"kirum/internal/config"
	"kirum/internal/derive"
	"kirum/internal/lexis"
	"kirum/internal/metrics"
	"kirum/internal/phonetic"
	"kirum/internal/project"
	"kirum/internal/script"
	"kirum/internal/transform"
)

// engine loads a project and renders it with the configured collaborators.
// The script runtime and metrics live as long as the engine, so repeated
// renders in watch mode reuse compiled scripts.
type engine struct {
	dir     string
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Recorder
	scripts *script.Runtime
}

func newEngine(dir string, cfg *config.Config, log *zap.Logger) (*engine, error) {
	scriptDir := cfg.Scripts.Dir
	if !filepath.IsAbs(scriptDir) {
		scriptDir = filepath.Join(dir, scriptDir)
	}
	rt, err := script.New(script.Options{
		Dir:             scriptDir,
		Timeout:         cfg.GetScriptTimeout(),
		CacheSize:       cfg.Scripts.CacheSize,
		AllowedPackages: cfg.Scripts.AllowedPackages,
		Logger:          log,
	})
	if err != nil {
		return nil, err
	}
	return &engine{
		dir:     dir,
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewRecorder(),
		scripts: rt,
	}, nil
}

func (e *engine) load(ctx context.Context) (*project.Project, error) {
	layout := project.Layout{
		TreeGlob:      e.cfg.Project.TreeGlob,
		EtymologyGlob: e.cfg.Project.EtymologyGlob,
		PhoneticsGlob: e.cfg.Project.PhoneticsGlob,
		GlobalsFile:   e.cfg.Project.GlobalsFile,
	}
	return project.NewLoader(layout, e.log).Load(ctx, e.dir)
}

// generator returns nil when the project has no phonetic rules.
func (e *engine) generator(rules phonetic.Ruleset) (*phonetic.Generator, error) {
	if rules.Empty() {
		return nil, nil
	}
	opts := []phonetic.Option{
		phonetic.WithMaxDepth(e.cfg.Phonetics.MaxDepth),
		phonetic.WithLogger(e.log),
	}
	if e.cfg.Phonetics.Seed != nil {
		opts = append(opts, phonetic.WithSeed(*e.cfg.Phonetics.Seed))
	}
	return phonetic.NewGenerator(rules, opts...)
}

func (e *engine) evaluator(g *lexis.Graph, c *transform.Catalog, globals []transform.Global, rules phonetic.Ruleset) (*derive.Evaluator, error) {
	gen, err := e.generator(rules)
	if err != nil {
		return nil, fmt.Errorf("phonetic rules: %w", err)
	}
	return derive.New(g, c, derive.Options{
		Globals:   globals,
		Phonetics: gen,
		Scripts:   e.scripts,
		Logger:    e.log,
		Observer:  e.metrics,
		MaxDepth:  e.cfg.Render.MaxDepth,
	})
}

// render loads the project from disk and runs one pass.
func (e *engine) render(ctx context.Context) (*project.Project, *derive.Result, error) {
	p, err := e.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	ev, err := e.evaluator(p.Graph, p.Catalog, p.Globals, p.Phonetics)
	if err != nil {
		return nil, nil, err
	}
	res, err := ev.Render(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, res, nil
}

// sortRecords reorders recs by id when the configuration asks for it.
// Results already come sorted by word.
func sortRecords(recs []derive.Record, key string) {
	if key != "id" {
		return
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}
