package lexis

import (
	"fmt"
	"sort"
)

// Graph owns the node table. It performs no transform logic.
type Graph struct {
	nodes map[string]*Lexis
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Lexis)}
}

// Insert adds a node. The node's etymons may reference ids that are inserted
// later; Validate checks them once the graph is complete.
func (g *Graph) Insert(l Lexis) error {
	if l.ID == "" {
		return ErrEmptyID
	}
	if _, exists := g.nodes[l.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, l.ID)
	}
	stored := l.Clone()
	g.nodes[l.ID] = &stored
	return nil
}

// InsertWithDerivatives adds a node together with its inline derivatives,
// normalizing each derivative into a standalone node linked back to l.
func (g *Graph) InsertWithDerivatives(l Lexis, derivatives []Derivative) error {
	if err := g.Insert(l); err != nil {
		return err
	}
	for n, d := range derivatives {
		child := d.Lexis.Clone()
		child.ID = DerivativeID(l.ID, n)
		child.Etymons = append(child.Etymons, Etymon{ID: l.ID, Transforms: d.Transforms})
		if err := g.Insert(child); err != nil {
			return fmt.Errorf("derivative %d of %s: %w", n, l.ID, err)
		}
	}
	return nil
}

// Link appends an etymon edge to the node id.
func (g *Graph) Link(id string, e Etymon) error {
	node, ok := g.nodes[id]
	if !ok {
		return &ReferenceError{Kind: "lexis", Ref: id}
	}
	node.Etymons = append(node.Etymons, Etymon{ID: e.ID, Transforms: append([]string(nil), e.Transforms...), Order: e.Order})
	return nil
}

// Resolve returns the node with the given id.
func (g *Graph) Resolve(id string) (Lexis, error) {
	node, ok := g.nodes[id]
	if !ok {
		return Lexis{}, &ReferenceError{Kind: "lexis", Ref: id}
	}
	return *node, nil
}

// Get returns the node and whether it exists.
func (g *Graph) Get(id string) (Lexis, bool) {
	node, ok := g.nodes[id]
	if !ok {
		return Lexis{}, false
	}
	return *node, true
}

// Has reports whether a node with the id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// IDs returns all node ids in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Selector filters nodes.
type Selector func(*Lexis) bool

// ByLanguage selects nodes of one language.
func ByLanguage(language string) Selector {
	return func(l *Lexis) bool { return l.Language == language }
}

// ByTag selects nodes carrying tag.
func ByTag(tag string) Selector {
	return func(l *Lexis) bool { return l.HasTag(tag) }
}

// ByArchaic selects nodes by archaic flag.
func ByArchaic(archaic bool) Selector {
	return func(l *Lexis) bool { return l.Archaic == archaic }
}

// Select returns the nodes matching every selector, ordered by id.
func (g *Graph) Select(selectors ...Selector) []Lexis {
	var out []Lexis
	for _, id := range g.IDs() {
		node := g.nodes[id]
		keep := true
		for _, sel := range selectors {
			if !sel(node) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, *node)
		}
	}
	return out
}

// Language returns every node of the language, ordered by id.
func (g *Graph) Language(language string) []Lexis {
	return g.Select(ByLanguage(language))
}

// Roots returns the nodes with no etymon dependencies to resolve: those with
// a literal word and those with no etymons at all.
func (g *Graph) Roots() []Lexis {
	return g.Select(func(l *Lexis) bool { return l.IsRoot() || len(l.Etymons) == 0 })
}

// Dependents returns the ids of nodes that list id as an etymon, sorted.
func (g *Graph) Dependents(id string) []string {
	var out []string
	for _, nid := range g.IDs() {
		for _, e := range g.nodes[nid].Etymons {
			if e.ID == id {
				out = append(out, nid)
				break
			}
		}
	}
	return out
}

// Validate checks that every etymon references an existing node.
func (g *Graph) Validate() error {
	for _, id := range g.IDs() {
		for _, e := range g.nodes[id].Etymons {
			if _, ok := g.nodes[e.ID]; !ok {
				return &ReferenceError{Kind: "etymon", From: id, Ref: e.ID}
			}
		}
	}
	return nil
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{nodes: make(map[string]*Lexis, len(g.nodes))}
	for id, node := range g.nodes {
		c := node.Clone()
		out.nodes[id] = &c
	}
	return out
}
