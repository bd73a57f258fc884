// Package phonetic generates words from a grammar of phoneme groups and
// word shapes.
package phonetic

import (
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxDepth bounds nested group expansion.
const DefaultMaxDepth = 32

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes generation deterministic.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithRand uses the given source of randomness.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// Generator expands word shapes into literal words.
type Generator struct {
	rules    Ruleset
	rng      *rand.Rand
	maxDepth int
	log      *zap.Logger
}

// NewGenerator validates rules and returns a generator over them.
func NewGenerator(rules Ruleset, opts ...Option) (*Generator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		rules:    rules,
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	g.log = g.log.Named("phonetic")
	return g, nil
}

// Generate picks one of key's shapes and expands it.
func (g *Generator) Generate(key string) (string, error) {
	shapes, ok := g.rules.Shapes[key]
	if !ok || len(shapes) == 0 {
		return "", &UnknownError{Name: key, In: "generation key"}
	}

	var b strings.Builder
	chain := []string{key}
	if err := g.expand(&b, key, shapes[g.rng.IntN(len(shapes))], chain); err != nil {
		return "", err
	}
	word := b.String()
	g.log.Debug("word generated", zap.String("key", key), zap.String("word", word))
	return word, nil
}

func (g *Generator) expand(b *strings.Builder, key string, p Pattern, chain []string) error {
	if len(chain) > g.maxDepth {
		return &RecursionError{Key: key, Chain: append([]string(nil), chain...), Limit: g.maxDepth}
	}
	for _, s := range p {
		if !s.Ref {
			b.WriteString(s.Value)
			continue
		}
		alts, ok := g.rules.Groups[s.Value]
		if !ok || len(alts) == 0 {
			return &UnknownError{Name: s.Value, In: "key " + key}
		}
		if err := g.expand(b, key, alts[g.rng.IntN(len(alts))], append(chain, s.Value)); err != nil {
			return err
		}
	}
	return nil
}
