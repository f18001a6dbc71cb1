package item

// SlotSpec declares a slot and its acceptance rules.
type SlotSpec struct {
	Key     string   `json:"key"`
	Require []string `json:"require,omitempty"`
	Exclude []string `json:"exclude,omitempty"`

	// Exclusive forbids holding an item whose type id matches the content of
	// another exclusive slot in the same collection.
	Exclusive bool `json:"exclusive,omitempty"`
}

// Slot is a single-item socket owned by a SlotCollection. Acceptance rules
// are checked when an item is plugged and are not re-validated afterwards.
type Slot struct {
	key       string
	require   TagSet
	exclude   TagSet
	exclusive bool

	owner   *SlotCollection
	content *Item
}

func newSlot(spec SlotSpec) *Slot {
	return &Slot{
		key:       spec.Key,
		require:   NewTagSet(spec.Require...),
		exclude:   NewTagSet(spec.Exclude...),
		exclusive: spec.Exclusive,
	}
}

func (s *Slot) Key() string                 { return s.key }
func (s *Slot) Content() *Item              { return s.content }
func (s *Slot) IsEmpty() bool               { return s.content == nil }
func (s *Slot) Exclusive() bool             { return s.exclusive }
func (s *Slot) Collection() *SlotCollection { return s.owner }

// Master returns the item owning the slot's collection.
func (s *Slot) Master() *Item {
	if s.owner == nil {
		return nil
	}
	return s.owner.master
}

// Spec returns the declaration the slot was built from.
func (s *Slot) Spec() SlotSpec {
	return SlotSpec{
		Key:       s.key,
		Require:   s.require.Slice(),
		Exclude:   s.exclude.Slice(),
		Exclusive: s.exclusive,
	}
}

// CheckPlug returns the first acceptance rule it fails, or nil.
func (s *Slot) CheckPlug(it *Item) error {
	if it == nil {
		return ErrNilItem
	}
	if it.destroyed {
		return ErrDestroyed
	}
	if it == s.content {
		return ErrAlreadyPlugged
	}
	if !it.tags.HasAll(s.require) {
		return ErrMissingTag
	}
	if it.tags.HasAny(s.exclude) {
		return ErrExcludedTag
	}
	if s.exclusiveConflict(it) {
		return ErrExclusiveConflict
	}
	if m := s.Master(); m != nil && (m == it || it.IsAncestorOf(m)) {
		return ErrCycle
	}
	return nil
}

func (s *Slot) CanPlug(it *Item) bool {
	return s.CheckPlug(it) == nil
}

// exclusiveConflict applies only when at least two slots of the collection
// are exclusive. An item moving out of a sibling does not conflict with itself.
func (s *Slot) exclusiveConflict(it *Item) bool {
	if !s.exclusive || s.owner == nil || s.owner.exclusiveCount() < 2 {
		return false
	}
	for _, sib := range s.owner.slots {
		if sib == s || !sib.exclusive || sib.content == nil || sib.content == it {
			continue
		}
		if sib.content.typeID == it.typeID {
			return true
		}
	}
	return false
}

// Plug makes it the slot's content. When the slot holds a stack of the same
// type the incoming units are merged into it instead; if that drains the
// incoming item it is consumed and nothing is displaced. Otherwise any
// previous content is unplugged and returned as displaced.
func (s *Slot) Plug(it *Item) (bool, *Item) {
	if !s.CanPlug(it) {
		return false, nil
	}

	if s.content != nil && s.content.CanStackWith(it) {
		if MergeStack(s.content, it) > 0 {
			if m := s.Master(); m != nil {
				m.emit(Event{Kind: EventContentChanged, Item: s.content, Slot: s})
			}
			return true, nil
		}
	}

	displaced := s.Unplug()
	it.Detach()

	s.content = it
	it.slot = s

	it.emit(Event{Kind: EventPlugged, Item: it, Slot: s})
	if m := s.Master(); m != nil {
		m.emit(Event{Kind: EventWiringChanged, Item: m, Slot: s})
		m.emit(Event{Kind: EventContentChanged, Item: it, Slot: s})
		m.emitTreeChanged()
	}

	return true, displaced
}

// Unplug clears the slot and returns the released item, or nil if empty.
func (s *Slot) Unplug() *Item {
	it := s.content
	if it == nil {
		return nil
	}

	s.content = nil
	it.slot = nil

	it.emit(Event{Kind: EventUnplugged, Item: it, Slot: s})
	it.emitTreeChanged()
	if m := s.Master(); m != nil {
		m.emitTreeChanged()
		m.emit(Event{Kind: EventContentChanged, Item: nil, Slot: s})
	}

	return it
}
