package item

import "fmt"

// EventKind identifies a change notification emitted by the item tree.
type EventKind int

const (
	EventPlugged EventKind = iota + 1
	EventUnplugged
	EventContentChanged
	EventWiringChanged
	EventTreeChanged
	EventPlaced
	EventRemoved
	EventDestroyed
)

func (k EventKind) String() string {
	switch k {
	case EventPlugged:
		return "plugged"
	case EventUnplugged:
		return "unplugged"
	case EventContentChanged:
		return "content_changed"
	case EventWiringChanged:
		return "wiring_changed"
	case EventTreeChanged:
		return "tree_changed"
	case EventPlaced:
		return "placed"
	case EventRemoved:
		return "removed"
	case EventDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event describes a change. Item is the item the event is delivered for;
// Slot or Inventory/Position locate the container involved, if any.
type Event struct {
	Kind      EventKind
	Item      *Item
	Slot      *Slot
	Inventory *Inventory
	Position  int
}

// Observer receives events for the items it is subscribed to.
type Observer interface {
	OnItemEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnItemEvent(e Event) {
	f(e)
}
