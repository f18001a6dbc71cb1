package stat

import (
	"maps"
	"slices"
)

// Collection holds the stats of one item keyed by name.
type Collection struct {
	stats map[string]*Stat
}

func NewCollection() *Collection {
	return &Collection{
		stats: make(map[string]*Stat),
	}
}

// Get returns the named stat, or nil if the collection has none.
func (c *Collection) Get(name string) *Stat {
	return c.stats[name]
}

// Ensure returns the named stat, creating it with base if it does not exist.
func (c *Collection) Ensure(name string, base float64) *Stat {
	if s, ok := c.stats[name]; ok {
		return s
	}
	s := New(base)
	c.stats[name] = s
	return s
}

// Value returns the computed value of the named stat and whether it exists.
func (c *Collection) Value(name string) (float64, bool) {
	s, ok := c.stats[name]
	if !ok {
		return 0, false
	}
	return s.Value(), true
}

func (c *Collection) Len() int {
	return len(c.stats)
}

// Names returns the stat names in sorted order.
func (c *Collection) Names() []string {
	return slices.Sorted(maps.Keys(c.stats))
}

// RemoveAllModifiersFrom detaches every modifier contributed by source from
// every stat in the collection.
func (c *Collection) RemoveAllModifiersFrom(source any) int {
	removed := 0
	for _, s := range c.stats {
		removed += s.RemoveModifiersFrom(source)
	}
	return removed
}
