// Package daughter derives a new language from an existing one by cloning its
// entries under a new language tag with a synthetic etymon link back to each
// original.
package daughter

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"kirum/internal/lexis"
	"kirum/internal/transform"
)

var (
	// ErrSameLanguage is returned when source and target languages are equal.
	ErrSameLanguage = errors.New("daughter language must differ from its source")

	// ErrEmptyLanguage is returned when either language tag is empty.
	ErrEmptyLanguage = errors.New("language tag cannot be empty")

	// ErrNoSourceEntries is returned when the source language has no entries.
	ErrNoSourceEntries = errors.New("source language has no entries")
)

// Options configures Generate.
type Options struct {
	Source string
	Target string
	// Transforms are registered into the derived catalog and applied to every
	// new entry in order.
	Transforms []transform.Transform
	// ExtraTags are added to every new entry.
	ExtraTags []string
	Logger    *zap.Logger
}

// Result is the overlay graph and catalog. The inputs are never modified.
type Result struct {
	Graph   *lexis.Graph
	Catalog *transform.Catalog
	// Created lists the ids of the new entries, in source id order.
	Created []string
	// Registered lists the transforms added to the catalog. Transforms the
	// catalog already held with the same definition are not listed.
	Registered []string
}

// Generate clones g and c and adds one entry in opts.Target for every entry
// in opts.Source.
func Generate(g *lexis.Graph, c *transform.Catalog, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.Source) == "" || strings.TrimSpace(opts.Target) == "" {
		return nil, ErrEmptyLanguage
	}
	if opts.Source == opts.Target {
		return nil, fmt.Errorf("%w: %q", ErrSameLanguage, opts.Source)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("daughter")

	sources := g.Language(opts.Source)
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSourceEntries, opts.Source)
	}

	catalog := transform.NewCatalog()
	if c != nil {
		catalog = c.Clone()
	}
	names := make([]string, 0, len(opts.Transforms))
	var registered []string
	for _, t := range opts.Transforms {
		names = append(names, t.Name)
		if existing, ok := catalog.Get(t.Name); ok && existing.Equal(t) {
			continue
		}
		if err := catalog.Register(t); err != nil {
			return nil, fmt.Errorf("daughter %q: %w", opts.Target, err)
		}
		registered = append(registered, t.Name)
	}

	out := &Result{Graph: g.Clone(), Catalog: catalog, Registered: registered}
	prefix := Slug(opts.Target)
	for _, src := range sources {
		id := freeID(out.Graph, prefix+"-"+src.ID)

		tags := slices.Clone(src.Tags)
		for _, tag := range opts.ExtraTags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}

		node := lexis.Lexis{
			ID:         id,
			Language:   opts.Target,
			Type:       src.Type,
			Definition: src.Definition,
			POS:        src.POS,
			Archaic:    src.Archaic,
			Tags:       tags,
			Historical: slices.Clone(src.Historical),
			Etymons:    []lexis.Etymon{{ID: src.ID, Transforms: slices.Clone(names), Order: 0}},
		}
		if err := out.Graph.Insert(node); err != nil {
			return nil, err
		}
		out.Created = append(out.Created, id)
	}

	log.Info("daughter language generated",
		zap.String("source", opts.Source),
		zap.String("target", opts.Target),
		zap.Int("entries", len(out.Created)))
	return out, nil
}

// Slug lowercases s and replaces every run of non-alphanumerics with a dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func freeID(g *lexis.Graph, id string) string {
	if !g.Has(id) {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if !g.Has(candidate) {
			return candidate
		}
	}
}
