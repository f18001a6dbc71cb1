package item

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SlotCollection is the ordered set of named slots belonging to one item.
// Lookups go through a key-hash index that is rebuilt lazily after any
// change to the slot list.
type SlotCollection struct {
	master *Item
	slots  []*Slot

	index   map[uint64]*Slot
	indexed bool
}

func newSlotCollection(master *Item, specs []SlotSpec) *SlotCollection {
	c := &SlotCollection{master: master}
	for _, spec := range specs {
		// Duplicate keys in a declaration keep the first slot.
		_, _ = c.Add(spec)
	}
	return c
}

func (c *SlotCollection) Master() *Item { return c.master }
func (c *SlotCollection) Len() int      { return len(c.slots) }

// At returns the slot at index i, or nil when i is out of range.
func (c *SlotCollection) At(i int) *Slot {
	if i < 0 || i >= len(c.slots) {
		return nil
	}
	return c.slots[i]
}

// Slots returns the slots in declaration order.
func (c *SlotCollection) Slots() []*Slot {
	out := make([]*Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Get returns the slot with the given key, or nil. The index is consulted
// first; a miss falls back to a linear scan so a hash collision can never
// hide a slot.
func (c *SlotCollection) Get(key string) *Slot {
	if !c.indexed {
		c.rebuildIndex()
	}
	if s, ok := c.index[xxhash.Sum64String(key)]; ok && s.key == key {
		return s
	}
	for _, s := range c.slots {
		if s.key == key {
			return s
		}
	}
	return nil
}

// Add appends a slot built from spec and binds it to the collection.
func (c *SlotCollection) Add(spec SlotSpec) (*Slot, error) {
	for _, s := range c.slots {
		if s.key == spec.Key {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSlot, spec.Key)
		}
	}

	s := newSlot(spec)
	s.owner = c
	c.slots = append(c.slots, s)
	c.invalidate()
	return s, nil
}

func (c *SlotCollection) invalidate() {
	c.indexed = false
}

func (c *SlotCollection) rebuildIndex() {
	c.index = make(map[uint64]*Slot, len(c.slots))
	for _, s := range c.slots {
		h := xxhash.Sum64String(s.key)
		if _, taken := c.index[h]; taken {
			continue
		}
		c.index[h] = s
	}
	c.indexed = true
}

func (c *SlotCollection) exclusiveCount() int {
	n := 0
	for _, s := range c.slots {
		if s.exclusive {
			n++
		}
	}
	return n
}
