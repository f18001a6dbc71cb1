package item

import (
	"maps"
	"slices"
)

// Inventory is a sparse, position-indexed container owned by one item.
// Positions run from 0 to capacity-1 and may have gaps. Locked positions are
// left in place by Sort and Compact but otherwise store items normally.
type Inventory struct {
	owner    *Item
	capacity int
	items    map[int]*Item
	locked   map[int]struct{}
}

func newInventory(owner *Item, capacity int) *Inventory {
	return &Inventory{
		owner:    owner,
		capacity: capacity,
		items:    make(map[int]*Item),
		locked:   make(map[int]struct{}),
	}
}

func (inv *Inventory) Owner() *Item  { return inv.owner }
func (inv *Inventory) Capacity() int { return inv.capacity }
func (inv *Inventory) Len() int      { return len(inv.items) }

// At returns the item at pos, or nil.
func (inv *Inventory) At(pos int) *Item {
	return inv.items[pos]
}

func (inv *Inventory) InBounds(pos int) bool {
	return pos >= 0 && pos < inv.capacity
}

// Positions returns the occupied positions in ascending order.
func (inv *Inventory) Positions() []int {
	return slices.Sorted(maps.Keys(inv.items))
}

// Items returns the stored items in position order.
func (inv *Inventory) Items() []*Item {
	out := make([]*Item, 0, len(inv.items))
	for _, pos := range inv.Positions() {
		out = append(out, inv.items[pos])
	}
	return out
}

// CheckAdd returns the reason it cannot be placed at pos, or nil.
func (inv *Inventory) CheckAdd(it *Item, pos int) error {
	if it == nil {
		return ErrNilItem
	}
	if it.destroyed {
		return ErrDestroyed
	}
	if !inv.InBounds(pos) {
		return ErrOutOfBounds
	}
	if _, ok := inv.items[pos]; ok {
		return ErrPositionOccupied
	}
	if o := inv.owner; o != nil && (o == it || it.IsAncestorOf(o)) {
		return ErrCycle
	}
	return nil
}

// AddAt places it at pos after detaching it from its previous owner.
func (inv *Inventory) AddAt(it *Item, pos int) bool {
	if inv.CheckAdd(it, pos) != nil {
		return false
	}

	it.Detach()
	inv.items[pos] = it
	it.container = inv
	it.position = pos

	it.emit(Event{Kind: EventPlaced, Item: it, Inventory: inv, Position: pos})
	if o := inv.owner; o != nil {
		o.emit(Event{Kind: EventContentChanged, Item: it, Inventory: inv, Position: pos})
		o.emitTreeChanged()
	}
	return true
}

// AddAndMerge tops up existing stacks of the same type first, then places
// whatever remains at the first free position. It returns the position that
// received the item (or absorbed its last units) and false when a remainder
// could not be placed.
func (inv *Inventory) AddAndMerge(it *Item) (int, bool) {
	if it == nil || it.destroyed {
		return -1, false
	}
	if it.container == inv {
		return it.position, true
	}

	if it.stackable {
		for _, pos := range inv.Positions() {
			if MergeStack(inv.items[pos], it) == 0 {
				continue
			}
			if o := inv.owner; o != nil {
				o.emit(Event{Kind: EventContentChanged, Item: inv.items[pos], Inventory: inv, Position: pos})
			}
			if it.destroyed {
				return pos, true
			}
		}
	}

	pos := inv.FirstFree()
	if pos < 0 {
		return -1, false
	}
	return pos, inv.AddAt(it, pos)
}

// RemoveAt releases the item at pos and returns it, or nil if empty.
func (inv *Inventory) RemoveAt(pos int) *Item {
	it, ok := inv.items[pos]
	if !ok {
		return nil
	}

	delete(inv.items, pos)
	it.container = nil
	it.position = 0

	it.emit(Event{Kind: EventRemoved, Item: it, Inventory: inv, Position: pos})
	it.emitTreeChanged()
	if o := inv.owner; o != nil {
		o.emit(Event{Kind: EventContentChanged, Item: nil, Inventory: inv, Position: pos})
		o.emitTreeChanged()
	}
	return it
}

// Remove releases it if it is stored in this inventory.
func (inv *Inventory) Remove(it *Item) bool {
	if it == nil || it.container != inv {
		return false
	}
	return inv.RemoveAt(it.position) != nil
}

// FirstFree returns the lowest unoccupied position, or -1 when full.
func (inv *Inventory) FirstFree() int {
	for pos := 0; pos < inv.capacity; pos++ {
		if _, ok := inv.items[pos]; !ok {
			return pos
		}
	}
	return -1
}

// LastOccupied returns the highest occupied position, or -1 when empty.
func (inv *Inventory) LastOccupied() int {
	last := -1
	for pos := range inv.items {
		if pos > last {
			last = pos
		}
	}
	return last
}

func (inv *Inventory) Lock(pos int) bool {
	if !inv.InBounds(pos) {
		return false
	}
	inv.locked[pos] = struct{}{}
	return true
}

func (inv *Inventory) Unlock(pos int) {
	delete(inv.locked, pos)
}

func (inv *Inventory) IsLocked(pos int) bool {
	_, ok := inv.locked[pos]
	return ok
}

// Locked returns the locked positions in ascending order.
func (inv *Inventory) Locked() []int {
	return slices.Sorted(maps.Keys(inv.locked))
}

// SetLocked replaces the locked set verbatim.
func (inv *Inventory) SetLocked(positions []int) {
	inv.locked = make(map[int]struct{}, len(positions))
	for _, pos := range positions {
		inv.locked[pos] = struct{}{}
	}
}

// Compact moves unlocked items toward the front, keeping their order.
func (inv *Inventory) Compact() {
	inv.Sort(nil)
}

// Sort reorders the unlocked items with cmp and packs them into the unlocked
// positions from the front. A nil cmp keeps the current position order.
func (inv *Inventory) Sort(cmp func(a, b *Item) int) {
	var movable []*Item
	for _, pos := range inv.Positions() {
		if !inv.IsLocked(pos) {
			movable = append(movable, inv.items[pos])
			delete(inv.items, pos)
		}
	}
	if cmp != nil {
		slices.SortStableFunc(movable, cmp)
	}

	next := 0
	for _, it := range movable {
		for inv.IsLocked(next) {
			next++
		}
		inv.items[next] = it
		it.position = next
		next++
	}

	if o := inv.owner; o != nil && len(movable) > 0 {
		o.emit(Event{Kind: EventContentChanged, Inventory: inv, Position: -1})
	}
}
