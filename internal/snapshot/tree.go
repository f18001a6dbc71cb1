package snapshot

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-itemtree/internal/item"
)

// SlotRef records that the slot with Key holds the entry Child.
type SlotRef struct {
	Key   string `json:"slot_key"`
	Child int64  `json:"child_instance_id"`
}

// PositionRef records that inventory Position holds the entry Child.
type PositionRef struct {
	Position int   `json:"position"`
	Child    int64 `json:"child_instance_id"`
}

// Entry is the flattened form of one item. InstanceID is scoped to the
// snapshot and unrelated to the live item's id.
type Entry struct {
	InstanceID int64          `json:"instance_id"`
	TypeID     item.TypeID    `json:"type_id"`
	Variables  item.Variables `json:"variables"`
	Slots      []SlotRef      `json:"slot_contents,omitempty"`
	Inventory  []PositionRef  `json:"inventory_contents,omitempty"`
	Locked     []int          `json:"locked_positions,omitempty"`
}

// Tree is a relocatable snapshot of an item and all of its descendants.
type Tree struct {
	Root    int64   `json:"root_instance_id"`
	Entries []Entry `json:"entries"`
}

// Take flattens root and every item reachable through its slots and
// inventories. Snapshot ids are assigned 1..n in breadth-first order, so two
// isomorphic trees produce identical snapshots.
func Take(root *item.Item) *Tree {
	if root == nil {
		return nil
	}

	ids := map[*item.Item]int64{}
	var order []*item.Item
	root.Walk(func(it *item.Item) bool {
		order = append(order, it)
		ids[it] = int64(len(order))
		return true
	})

	t := &Tree{
		Root:    ids[root],
		Entries: make([]Entry, 0, len(order)),
	}
	for _, it := range order {
		e := Entry{
			InstanceID: ids[it],
			TypeID:     it.TypeID(),
			Variables:  it.Variables(),
		}

		if sc := it.Slots(); sc != nil {
			for _, s := range sc.Slots() {
				if c := s.Content(); c != nil {
					e.Slots = append(e.Slots, SlotRef{Key: s.Key(), Child: ids[c]})
				}
			}
		}

		if inv := it.Inventory(); inv != nil {
			for _, pos := range inv.Positions() {
				e.Inventory = append(e.Inventory, PositionRef{Position: pos, Child: ids[inv.At(pos)]})
			}
			e.Locked = inv.Locked()
		}

		t.Entries = append(t.Entries, e)
	}

	return t
}

// Entry returns the entry with the given snapshot id.
func (t *Tree) Entry(id int64) (Entry, bool) {
	for _, e := range t.Entries {
		if e.InstanceID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Validate satisfies storage.ValidatingSpec. Every reference must resolve to
// an entry of the same tree and the root may not appear as a child.
func (t *Tree) Validate() error {
	el := errors.NewErrorList()

	ids := make(map[int64]struct{}, len(t.Entries))
	for i, e := range t.Entries {
		if e.InstanceID <= 0 {
			el.Add(fmt.Errorf("entry %d: instance_id must be positive", i))
			continue
		}
		if _, dup := ids[e.InstanceID]; dup {
			el.Add(fmt.Errorf("entry %d: duplicate instance_id %d", i, e.InstanceID))
			continue
		}
		ids[e.InstanceID] = struct{}{}
	}

	if _, ok := ids[t.Root]; !ok {
		el.Add(fmt.Errorf("root_instance_id %d has no entry", t.Root))
	}

	for _, e := range t.Entries {
		for _, ref := range e.Slots {
			if ref.Key == "" {
				el.Add(fmt.Errorf("entry %d: slot_key is required", e.InstanceID))
			}
			if _, ok := ids[ref.Child]; !ok {
				el.Add(fmt.Errorf("entry %d: slot %q references unknown instance %d", e.InstanceID, ref.Key, ref.Child))
			}
			if ref.Child == t.Root {
				el.Add(fmt.Errorf("entry %d: slot %q references the root", e.InstanceID, ref.Key))
			}
		}
		for _, ref := range e.Inventory {
			if ref.Position < 0 {
				el.Add(fmt.Errorf("entry %d: position %d is negative", e.InstanceID, ref.Position))
			}
			if _, ok := ids[ref.Child]; !ok {
				el.Add(fmt.Errorf("entry %d: position %d references unknown instance %d", e.InstanceID, ref.Position, ref.Child))
			}
			if ref.Child == t.Root {
				el.Add(fmt.Errorf("entry %d: position %d references the root", e.InstanceID, ref.Position))
			}
		}
	}

	return el.Err()
}
