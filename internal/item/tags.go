package item

import (
	"maps"
	"slices"
)

// TagSet is a set of capability tags taken from an item's template.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	t := make(TagSet, len(tags))
	for _, tag := range tags {
		t[tag] = struct{}{}
	}
	return t
}

func (t TagSet) Has(tag string) bool {
	_, ok := t[tag]
	return ok
}

// HasAll reports whether every tag in other is present. An empty other is
// always satisfied.
func (t TagSet) HasAll(other TagSet) bool {
	for tag := range other {
		if !t.Has(tag) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one tag in other is present.
func (t TagSet) HasAny(other TagSet) bool {
	for tag := range other {
		if t.Has(tag) {
			return true
		}
	}
	return false
}

// Slice returns the tags in sorted order.
func (t TagSet) Slice() []string {
	return slices.Sorted(maps.Keys(t))
}
