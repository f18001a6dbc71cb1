package messaging

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-testutil"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	sent []message
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message{subject: subject, data: data})
	return nil
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	return out
}

func TestEventPublisher_Observer(t *testing.T) {
	fake := &fakePublisher{}
	p := NewEventPublisher(fake, "itemtree.events")

	bag := item.New(1, item.WithInventory(4))
	scope := item.New(2, item.WithTags("optic"))
	unsub := bag.Subscribe(p.Observer("tree-1"))
	defer unsub()

	bag.Inventory().AddAt(scope, 3)

	if len(fake.sent) == 0 {
		t.Fatal("expected published events")
	}
	for _, m := range fake.sent {
		testutil.AssertEqual(t, "subject", m.subject, "itemtree.events.tree-1")
	}

	first := decode(t, fake.sent[0].data)
	testutil.AssertEqual(t, "tree", first["tree_id"], any("tree-1"))
	testutil.AssertEqual(t, "kind", first["kind"], any("content_changed"))
	testutil.AssertEqual(t, "type", first["type_id"], any(2.0))
	testutil.AssertEqual(t, "container", first["container_instance_id"], any(float64(bag.ID())))
	testutil.AssertEqual(t, "position", first["position"], any(3.0))
}

func TestNewItemEvent(t *testing.T) {
	rifle := item.New(3, item.WithSlots(item.SlotSpec{Key: "optic"}))
	scope := item.New(2)
	slot := rifle.Slots().Get("optic")

	tests := map[string]struct {
		ev  item.Event
		exp ItemEvent
	}{
		"slot event": {
			ev: item.Event{Kind: item.EventPlugged, Item: scope, Slot: slot},
			exp: ItemEvent{
				Tree:       "t",
				Kind:       item.EventPlugged,
				InstanceID: scope.ID(),
				TypeID:     2,
				Slot:       "optic",
				Container:  rifle.ID(),
			},
		},
		"bare event": {
			ev: item.Event{Kind: item.EventDestroyed, Item: rifle},
			exp: ItemEvent{
				Tree:       "t",
				Kind:       item.EventDestroyed,
				InstanceID: rifle.ID(),
				TypeID:     3,
			},
		},
		"emptied slot": {
			ev: item.Event{Kind: item.EventContentChanged, Slot: slot},
			exp: ItemEvent{
				Tree:      "t",
				Kind:      item.EventContentChanged,
				Slot:      "optic",
				Container: rifle.ID(),
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "event", NewItemEvent("t", tt.ev), tt.exp)
		})
	}
}

func TestEventPublisher_PublishError(t *testing.T) {
	p := NewEventPublisher(&fakePublisher{err: fmt.Errorf("down")}, "events")

	err := p.Publish("t", item.Event{Kind: item.EventDestroyed})

	testutil.AssertErrorContains(t, err, "down")
}
