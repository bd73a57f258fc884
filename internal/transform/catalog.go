package transform

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog holds named transforms and resolves the ids etymon links refer to.
// It is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{transforms: make(map[string]Transform)}
}

// Register validates t and adds it to the catalog.
// Returns an error if a transform with the same name already exists.
func (c *Catalog) Register(t Transform) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid transform: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.transforms[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t.Name)
	}
	t.Funcs = append([]Func(nil), t.Funcs...)
	c.transforms[t.Name] = t
	return nil
}

// MustRegister registers a transform and panics on error.
func (c *Catalog) MustRegister(t Transform) {
	if err := c.Register(t); err != nil {
		panic(fmt.Sprintf("failed to register transform %s: %v", t.Name, err))
	}
}

// Get returns a transform by name.
func (c *Catalog) Get(name string) (Transform, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.transforms[name]
	return t, ok
}

// Has returns true if a transform with the given name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns all registered transform names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.transforms))
	for name := range c.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered transforms.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.transforms)
}

// UsesScripts reports whether any registered transform contains a script primitive.
func (c *Catalog) UsesScripts() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.transforms {
		if t.UsesScripts() {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := NewCatalog()
	for name, t := range c.transforms {
		out.transforms[name] = t
	}
	return out
}

// Pipeline flattens the named transforms into executor steps. An empty name
// list yields an empty pipeline, which leaves the word unchanged.
func (c *Catalog) Pipeline(names []string) (Pipeline, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var p Pipeline
	for _, name := range names {
		t, ok := c.transforms[name]
		if !ok {
			return nil, fmt.Errorf("%w: transform %q", ErrUnknownReference, name)
		}
		p = append(p, Steps(t)...)
	}
	return p, nil
}
