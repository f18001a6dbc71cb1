package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-itemtree/internal/item"
)

// Publisher sends raw messages to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ItemEvent is the wire form of an item.Event.
type ItemEvent struct {
	Tree       string          `json:"tree_id"`
	Kind       item.EventKind  `json:"kind"`
	InstanceID item.InstanceID `json:"instance_id"`
	TypeID     item.TypeID     `json:"type_id"`
	Slot       string          `json:"slot,omitempty"`
	Container  item.InstanceID `json:"container_instance_id,omitempty"`
	Position   *int            `json:"position,omitempty"`
}

// EventPublisher forwards item events to per-tree subjects.
type EventPublisher struct {
	pub     Publisher
	subject string
}

// NewEventPublisher publishes to "<subject>.<tree id>".
func NewEventPublisher(pub Publisher, subject string) *EventPublisher {
	return &EventPublisher{pub: pub, subject: subject}
}

// Subject returns the subject events for treeID are published on.
func (p *EventPublisher) Subject(treeID string) string {
	return fmt.Sprintf("%s.%s", p.subject, treeID)
}

// Observer returns an item.Observer that publishes every event it receives
// under treeID. Publish failures are logged.
func (p *EventPublisher) Observer(treeID string) item.Observer {
	return item.ObserverFunc(func(ev item.Event) {
		if err := p.Publish(treeID, ev); err != nil {
			slog.Warn("publishing item event", "tree_id", treeID, "kind", ev.Kind, "error", err)
		}
	})
}

func (p *EventPublisher) Publish(treeID string, ev item.Event) error {
	data, err := json.Marshal(NewItemEvent(treeID, ev))
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	return p.pub.Publish(p.Subject(treeID), data)
}

func NewItemEvent(treeID string, ev item.Event) ItemEvent {
	out := ItemEvent{
		Tree: treeID,
		Kind: ev.Kind,
	}
	if ev.Item != nil {
		out.InstanceID = ev.Item.ID()
		out.TypeID = ev.Item.TypeID()
	}
	if ev.Slot != nil {
		out.Slot = ev.Slot.Key()
		if m := ev.Slot.Master(); m != nil {
			out.Container = m.ID()
		}
	}
	if ev.Inventory != nil {
		if o := ev.Inventory.Owner(); o != nil {
			out.Container = o.ID()
		}
		pos := ev.Position
		out.Position = &pos
	}
	return out
}
