// Package derive resolves the words of an etymology graph.
//
// An Evaluator checks a graph and its transform catalog once, then runs any
// number of render passes. Each pass owns its own cache and in-progress set,
// so passes never observe each other's state.
package derive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kirum/internal/lexis"
	"kirum/internal/phonetic"
	"kirum/internal/transform"
)

// DefaultMaxDepth bounds the length of an etymon chain.
const DefaultMaxDepth = 512

// Observer receives evaluation events in addition to pipeline events.
type Observer interface {
	transform.Observer
	NodeResolved(language string)
	PassFinished(d time.Duration, err error)
}

// Options configures an Evaluator. Every field is optional.
type Options struct {
	Globals   []transform.Global
	Phonetics *phonetic.Generator
	Scripts   transform.Scripter
	Logger    *zap.Logger
	Observer  Observer
	MaxDepth  int
}

// Evaluator resolves words for one graph and catalog.
type Evaluator struct {
	graph    *lexis.Graph
	catalog  *transform.Catalog
	exec     *transform.Executor
	globals  *transform.Applier
	literals map[string]string
	obs      Observer
	log      *zap.Logger
	maxDepth int
}

// New validates graph and catalog and seeds generated words. Dangling etymon
// and transform references, malformed globals, script transforms without a
// runtime and unknown generation keys all fail here rather than mid-render.
func New(graph *lexis.Graph, catalog *transform.Catalog, opts Options) (*Evaluator, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if catalog == nil {
		catalog = transform.NewCatalog()
	}

	var tobs transform.Observer
	if opts.Observer != nil {
		tobs = opts.Observer
	}
	exec := transform.NewExecutor(opts.Scripts, log, tobs)
	globals, err := transform.NewApplier(opts.Globals, exec)
	if err != nil {
		return nil, err
	}

	ev := &Evaluator{
		graph:    graph,
		catalog:  catalog,
		exec:     exec,
		globals:  globals,
		literals: make(map[string]string),
		obs:      opts.Observer,
		log:      log.Named("derive"),
		maxDepth: opts.MaxDepth,
	}
	if ev.maxDepth <= 0 {
		ev.maxDepth = DefaultMaxDepth
	}

	if err := ev.validate(opts.Scripts != nil); err != nil {
		return nil, err
	}
	if err := ev.seed(opts.Phonetics); err != nil {
		return nil, err
	}
	return ev, nil
}

func (ev *Evaluator) validate(haveScripts bool) error {
	if err := ev.graph.Validate(); err != nil {
		return err
	}
	for _, id := range ev.graph.IDs() {
		l, _ := ev.graph.Get(id)
		for _, e := range l.Etymons {
			for _, name := range e.Transforms {
				if !ev.catalog.Has(name) {
					return &lexis.ReferenceError{Kind: "transform", From: id, Ref: name}
				}
			}
		}
	}
	if !haveScripts && (ev.catalog.UsesScripts() || ev.globals.UsesScripts()) {
		return fmt.Errorf("%w: project declares script transforms", transform.ErrNoScriptRuntime)
	}
	return nil
}

// seed generates words for leaves that carry a generation key, in id order so
// a seeded generator always assigns the same word to the same lexis.
func (ev *Evaluator) seed(gen *phonetic.Generator) error {
	for _, id := range ev.graph.IDs() {
		l, _ := ev.graph.Get(id)
		if l.Generate == "" || l.Word != "" || len(l.Etymons) > 0 {
			continue
		}
		if gen == nil {
			return &NodeError{ID: id, Err: &phonetic.UnknownError{Name: l.Generate, In: "generation key (no phonetic rules loaded)"}}
		}
		word, err := gen.Generate(l.Generate)
		if err != nil {
			return &NodeError{ID: id, Err: err}
		}
		ev.literals[id] = word
	}
	if len(ev.literals) > 0 {
		ev.log.Debug("generated words seeded", zap.Int("count", len(ev.literals)))
	}
	return nil
}

// Generated returns the words produced by the phonetic generator, keyed by lexis id.
func (ev *Evaluator) Generated() map[string]string {
	out := make(map[string]string, len(ev.literals))
	for k, v := range ev.literals {
		out[k] = v
	}
	return out
}

// Render resolves every lexis in the graph.
func (ev *Evaluator) Render(ctx context.Context) (*Result, error) {
	return ev.RenderFrom(ctx, ev.graph.IDs()...)
}

// RenderFrom resolves the given ids and everything they descend from. The
// result holds every lexis resolved along the way.
func (ev *Evaluator) RenderFrom(ctx context.Context, ids ...string) (*Result, error) {
	p := &pass{
		ev:         ev,
		id:         uuid.NewString(),
		resolved:   make(map[string]string),
		inProgress: make(map[string]int),
	}
	log := ev.log.With(zap.String("pass", p.id))
	log.Debug("render started", zap.Int("targets", len(ids)))
	start := time.Now()

	err := func() error {
		for _, id := range ids {
			if !ev.graph.Has(id) {
				return &lexis.ReferenceError{Kind: "lexis", Ref: id}
			}
			if _, err := p.resolve(ctx, id); err != nil {
				return err
			}
		}
		return nil
	}()
	if ev.obs != nil {
		ev.obs.PassFinished(time.Since(start), err)
	}
	if err != nil {
		log.Debug("render failed", zap.Error(err))
		return nil, err
	}

	log.Debug("render finished", zap.Int("resolved", len(p.resolved)), zap.Duration("took", time.Since(start)))
	return newResult(p.id, ev.graph, p.resolved), nil
}

type pass struct {
	ev         *Evaluator
	id         string
	resolved   map[string]string
	inProgress map[string]int
	stack      []string
}

func (p *pass) resolve(ctx context.Context, id string) (string, error) {
	if word, ok := p.resolved[id]; ok {
		return word, nil
	}

	node, _ := p.ev.graph.Get(id)
	if word, ok := p.literal(node); ok {
		p.finish(node, word)
		return word, nil
	}

	if at, ok := p.inProgress[id]; ok {
		path := append(append([]string(nil), p.stack[at:]...), id)
		return "", &CycleError{Path: path}
	}
	if len(p.stack) >= p.ev.maxDepth {
		return "", &NodeError{ID: id, Err: fmt.Errorf("%w: %d", ErrDepthLimitExceeded, p.ev.maxDepth)}
	}
	if len(node.Etymons) == 0 {
		return "", &NodeError{ID: id, Err: ErrUnderspecifiedLexis}
	}

	p.inProgress[id] = len(p.stack)
	p.stack = append(p.stack, id)
	defer func() {
		p.stack = p.stack[:len(p.stack)-1]
		delete(p.inProgress, id)
	}()

	var (
		b       strings.Builder
		sources []*lexis.Lexis
	)
	for _, e := range node.OrderedEtymons() {
		word, err := p.resolve(ctx, e.ID)
		if err != nil {
			return "", err
		}

		src, _ := p.ev.graph.Get(e.ID)
		src.Word = word
		sources = append(sources, &src)

		pipe, err := p.ev.catalog.Pipeline(e.Transforms)
		if err != nil {
			return "", &NodeError{ID: id, Err: err}
		}
		part, err := p.ev.exec.Run(ctx, pipe, word, &src, id)
		if err != nil {
			return "", wrapNode(id, err)
		}
		b.WriteString(part)
	}

	word, err := p.ev.globals.Apply(ctx, b.String(), &node, sources)
	if err != nil {
		return "", wrapNode(id, err)
	}
	p.finish(node, word)
	return word, nil
}

// literal returns the node's own word, or its generated one.
func (p *pass) literal(node lexis.Lexis) (string, bool) {
	if node.Word != "" {
		return node.Word, true
	}
	if word, ok := p.ev.literals[node.ID]; ok {
		return word, true
	}
	return "", false
}

func (p *pass) finish(node lexis.Lexis, word string) {
	p.resolved[node.ID] = word
	if p.ev.obs != nil {
		p.ev.obs.NodeResolved(node.Language)
	}
}

func wrapNode(id string, err error) error {
	var ne *NodeError
	if errors.As(err, &ne) {
		return err
	}
	return &NodeError{ID: id, Err: err}
}
