package phonetic

import (
	"fmt"
	"sort"
)

// Ruleset maps group symbols to alternatives and generation keys to word shapes.
type Ruleset struct {
	Groups map[string][]Pattern
	Shapes map[string][]Pattern
}

// Empty reports whether the ruleset declares nothing.
func (r Ruleset) Empty() bool { return len(r.Groups) == 0 && len(r.Shapes) == 0 }

// HasKey reports whether a generation key is declared.
func (r Ruleset) HasKey(key string) bool {
	_, ok := r.Shapes[key]
	return ok
}

// Keys returns the sorted generation keys.
func (r Ruleset) Keys() []string { return sortedKeys(r.Shapes) }

// Validate checks that every reference names a declared group and that no
// group or shape list is empty.
func (r Ruleset) Validate() error {
	check := func(kind, name string, alts []Pattern) error {
		if len(alts) == 0 {
			return fmt.Errorf("%w: %s %q has no alternatives", ErrEmptyPattern, kind, name)
		}
		for _, p := range alts {
			if len(p) == 0 {
				return fmt.Errorf("%w: %s %q", ErrEmptyPattern, kind, name)
			}
			for _, s := range p {
				if _, ok := r.Groups[s.Value]; s.Ref && !ok {
					return &UnknownError{Name: s.Value, In: fmt.Sprintf("%s %q", kind, name)}
				}
			}
		}
		return nil
	}

	for _, name := range sortedKeys(r.Groups) {
		if err := check("group", name, r.Groups[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(r.Shapes) {
		if err := check("shape", name, r.Shapes[name]); err != nil {
			return err
		}
	}
	return nil
}

// Merge adds other's groups and shapes to r. Redeclaring a key is an error.
func (r *Ruleset) Merge(other Ruleset) error {
	if r.Groups == nil {
		r.Groups = make(map[string][]Pattern)
	}
	if r.Shapes == nil {
		r.Shapes = make(map[string][]Pattern)
	}
	for _, k := range sortedKeys(other.Groups) {
		if _, ok := r.Groups[k]; ok {
			return fmt.Errorf("%w: group %q", ErrDuplicateKey, k)
		}
		r.Groups[k] = other.Groups[k]
	}
	for _, k := range sortedKeys(other.Shapes) {
		if _, ok := r.Shapes[k]; ok {
			return fmt.Errorf("%w: shape %q", ErrDuplicateKey, k)
		}
		r.Shapes[k] = other.Shapes[k]
	}
	return nil
}

func sortedKeys(m map[string][]Pattern) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
