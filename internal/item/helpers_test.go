package item

const (
	typeRifle TypeID = iota + 1
	typeScope
	typeMount
	typeAmmo
	typeBackpack
	typePouch
	typeRing
)

func newRifle() *Item {
	return New(typeRifle,
		WithTags("weapon"),
		WithSlots(
			SlotSpec{Key: "optic", Require: []string{"optic"}},
			SlotSpec{Key: "rail", Require: []string{"attachment"}, Exclude: []string{"heavy"}},
			SlotSpec{Key: "magazine", Require: []string{"ammo"}},
		),
		WithStat("damage", 10),
	)
}

func newScope() *Item {
	return New(typeScope, WithTags("optic", "attachment"), WithStat("zoom", 2))
}

// newMount is an attachment that itself accepts attachments.
func newMount() *Item {
	return New(typeMount,
		WithTags("attachment"),
		WithSlots(SlotSpec{Key: "top", Require: []string{"attachment"}}),
	)
}

func newAmmo(count, maxStack int) *Item {
	it := New(typeAmmo, WithTags("ammo"), WithStackable(maxStack))
	it.SetStackCount(count)
	return it
}

func newBackpack(capacity int) *Item {
	return New(typeBackpack, WithTags("container"), WithInventory(capacity))
}

func newPouch(capacity int) *Item {
	return New(typePouch, WithTags("container"), WithInventory(capacity))
}

type recorder struct {
	events []Event
}

func (r *recorder) OnItemEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *recorder) count(k EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
