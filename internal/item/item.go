package item

import (
	"fmt"
	"sync/atomic"

	"github.com/pixil98/go-itemtree/internal/stat"
)

// VarStackCount is the variable holding the number of units in a stack.
const VarStackCount = "stack_count"

// InstanceID identifies a live item for the lifetime of the process. It is
// minted fresh for every constructed item, including restored ones.
type InstanceID int64

// TypeID selects the template an item was built from.
type TypeID int

var lastInstanceID atomic.Int64

func nextInstanceID() InstanceID {
	return InstanceID(lastInstanceID.Add(1))
}

// Item is a node in the ownership tree. It may own a slot collection and an
// inventory, and is itself owned by at most one slot or inventory position.
type Item struct {
	id        InstanceID
	typeID    TypeID
	tags      TagSet
	stackable bool
	maxStack  int

	vars  Variables
	slots *SlotCollection
	inv   *Inventory
	stats *stat.Collection

	// Current owner. At most one of slot and container is set.
	slot      *Slot
	container *Inventory
	position  int

	observers    map[int]Observer
	nextObserver int
	destroyed    bool
}

type Opt func(*Item)

func WithTags(tags ...string) Opt {
	return func(it *Item) {
		for _, t := range tags {
			it.tags[t] = struct{}{}
		}
	}
}

// WithStackable marks the item as stackable. A maxStack of zero means the
// stack size is unbounded.
func WithStackable(maxStack int) Opt {
	return func(it *Item) {
		it.stackable = true
		it.maxStack = maxStack
	}
}

func WithSlots(specs ...SlotSpec) Opt {
	return func(it *Item) {
		it.slots = newSlotCollection(it, specs)
	}
}

func WithInventory(capacity int) Opt {
	return func(it *Item) {
		it.inv = newInventory(it, capacity)
	}
}

func WithStat(name string, base float64) Opt {
	return func(it *Item) {
		it.stats.Ensure(name, base)
	}
}

// WithVariables seeds the variable bag with a deep copy of vars.
func WithVariables(vars Variables) Opt {
	return func(it *Item) {
		for k, v := range vars {
			it.vars.Set(k, v.Clone())
		}
	}
}

func New(typeID TypeID, opts ...Opt) *Item {
	it := &Item{
		id:     nextInstanceID(),
		typeID: typeID,
		tags:   TagSet{},
		vars:   Variables{},
		stats:  stat.NewCollection(),
	}

	for _, opt := range opts {
		opt(it)
	}

	return it
}

func (it *Item) ID() InstanceID               { return it.id }
func (it *Item) TypeID() TypeID               { return it.typeID }
func (it *Item) Tags() TagSet                 { return it.tags }
func (it *Item) HasTag(tag string) bool       { return it.tags.Has(tag) }
func (it *Item) AddTag(tag string)            { it.tags[tag] = struct{}{} }
func (it *Item) Stackable() bool              { return it.stackable }
func (it *Item) MaxStack() int                { return it.maxStack }
func (it *Item) Slots() *SlotCollection       { return it.slots }
func (it *Item) Inventory() *Inventory        { return it.inv }
func (it *Item) Stats() *stat.Collection      { return it.stats }
func (it *Item) IsDestroyed() bool            { return it.destroyed }
func (it *Item) Var(key string) (Value, bool) { return it.vars.Get(key) }
func (it *Item) SetVar(key string, val Value) { it.vars.Set(key, val) }
func (it *Item) DeleteVar(key string)         { it.vars.Delete(key) }
func (it *Item) PluggedInto() *Slot           { return it.slot }
func (it *Item) IsAttached() bool             { return it.slot != nil || it.container != nil }
func (it *Item) String() string               { return fmt.Sprintf("item(%d type=%d)", it.id, it.typeID) }

// Variables returns a deep copy of the item's variable bag.
func (it *Item) Variables() Variables {
	return it.vars.Clone()
}

// Container returns the inventory and position holding the item, if any.
func (it *Item) Container() (*Inventory, int, bool) {
	if it.container == nil {
		return nil, 0, false
	}
	return it.container, it.position, true
}

// Parent returns the item owning the slot or inventory this item is in.
func (it *Item) Parent() *Item {
	switch {
	case it.slot != nil:
		return it.slot.Master()
	case it.container != nil:
		return it.container.Owner()
	default:
		return nil
	}
}

// Root returns the topmost ancestor, or the item itself when unattached.
func (it *Item) Root() *Item {
	r := it
	for p := r.Parent(); p != nil; p = p.Parent() {
		r = p
	}
	return r
}

// IsAncestorOf reports whether it appears in other's parent chain.
func (it *Item) IsAncestorOf(other *Item) bool {
	if other == nil {
		return false
	}
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p == it {
			return true
		}
	}
	return false
}

// Children returns slot contents in slot order followed by inventory
// contents in position order.
func (it *Item) Children() []*Item {
	var out []*Item
	if it.slots != nil {
		for _, s := range it.slots.slots {
			if s.content != nil {
				out = append(out, s.content)
			}
		}
	}
	if it.inv != nil {
		out = append(out, it.inv.Items()...)
	}
	return out
}

// Walk visits the item and every descendant breadth first, each exactly
// once. Returning false from fn stops the walk.
func (it *Item) Walk(fn func(*Item) bool) {
	seen := map[*Item]struct{}{it: {}}
	queue := []*Item{it}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !fn(cur) {
			return
		}
		for _, c := range cur.Children() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			queue = append(queue, c)
		}
	}
}

// Detach removes the item from its current slot or inventory position.
func (it *Item) Detach() {
	switch {
	case it.slot != nil:
		it.slot.Unplug()
	case it.container != nil:
		it.container.RemoveAt(it.position)
	}
}

// Destroy tears down the item and every descendant. It is idempotent.
func (it *Item) Destroy() {
	if it.destroyed {
		return
	}
	it.destroyed = true

	children := it.Children()
	it.Detach()
	for _, c := range children {
		c.Destroy()
	}

	it.emit(Event{Kind: EventDestroyed, Item: it})
	it.observers = nil
}

// StackCount returns the number of units in the item's stack. It is 1 when
// the variable is absent or not an int.
func (it *Item) StackCount() int {
	v, ok := it.vars.Get(VarStackCount)
	if !ok {
		return 1
	}
	n, ok := v.AsInt()
	if !ok {
		return 1
	}
	return int(n)
}

func (it *Item) SetStackCount(n int) {
	it.vars.Set(VarStackCount, Int(int64(n)))
}

// CanStackWith reports whether other can be merged into this item's stack.
func (it *Item) CanStackWith(other *Item) bool {
	return other != nil && other != it &&
		it.stackable && other.stackable &&
		it.typeID == other.typeID &&
		!it.destroyed && !other.destroyed
}

// MergeStack moves as many units from src into dst as dst's max stack
// allows and returns how many moved. A src drained to zero is consumed.
func MergeStack(dst, src *Item) int {
	if dst == nil || !dst.CanStackWith(src) {
		return 0
	}

	have, give := dst.StackCount(), src.StackCount()
	move := give
	if dst.maxStack > 0 && have+move > dst.maxStack {
		move = dst.maxStack - have
	}
	if move <= 0 {
		return 0
	}

	dst.SetStackCount(have + move)
	src.SetStackCount(give - move)
	if give-move == 0 {
		src.Destroy()
	}
	return move
}

// RemoveAllModifiersFrom detaches every modifier contributed by source from
// the stats of this item and all of its descendants.
func (it *Item) RemoveAllModifiersFrom(source any) int {
	removed := 0
	it.Walk(func(cur *Item) bool {
		removed += cur.stats.RemoveAllModifiersFrom(source)
		return true
	})
	return removed
}

// Subscribe registers o for events delivered to this item and returns a
// function that removes the subscription.
func (it *Item) Subscribe(o Observer) func() {
	if it.observers == nil {
		it.observers = make(map[int]Observer)
	}
	id := it.nextObserver
	it.nextObserver++
	it.observers[id] = o
	return func() { delete(it.observers, id) }
}

func (it *Item) emit(ev Event) {
	for _, o := range it.observers {
		o.OnItemEvent(ev)
	}
}

// emitTreeChanged notifies the item and each of its ancestors.
func (it *Item) emitTreeChanged() {
	for cur := it; cur != nil; cur = cur.Parent() {
		cur.emit(Event{Kind: EventTreeChanged, Item: cur})
	}
}
