package catalog

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-itemtree/internal/item"
)

// Template describes how to build a fresh item of one type.
type Template struct {
	TypeID            item.TypeID        `json:"type_id"`
	Name              string             `json:"name"`
	Tags              []string           `json:"tags,omitempty"`
	Stackable         bool               `json:"stackable,omitempty"`
	MaxStack          int                `json:"max_stack,omitempty"`
	Slots             []item.SlotSpec    `json:"slots,omitempty"`
	InventoryCapacity int                `json:"inventory_capacity,omitempty"`
	Stats             map[string]float64 `json:"stats,omitempty"`
	Variables         item.Variables     `json:"variables,omitempty"`
}

func (t *Template) Validate() error {
	el := errors.NewErrorList()

	if t.TypeID <= 0 {
		el.Add(fmt.Errorf("type_id must be positive"))
	}

	if t.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}

	if t.MaxStack < 0 {
		el.Add(fmt.Errorf("max_stack must not be negative"))
	}
	if t.MaxStack > 0 && !t.Stackable {
		el.Add(fmt.Errorf("max_stack requires stackable"))
	}

	if t.InventoryCapacity < 0 {
		el.Add(fmt.Errorf("inventory_capacity must not be negative"))
	}

	keys := make(map[string]struct{}, len(t.Slots))
	for i, s := range t.Slots {
		if s.Key == "" {
			el.Add(fmt.Errorf("slot %d: key is required", i))
			continue
		}
		if _, dup := keys[s.Key]; dup {
			el.Add(fmt.Errorf("slot %d: duplicate key %q", i, s.Key))
		}
		keys[s.Key] = struct{}{}
	}

	for name := range t.Stats {
		if name == "" {
			el.Add(fmt.Errorf("stat name is required"))
		}
	}

	return el.Err()
}

// Build creates a new live item from the template.
func (t *Template) Build() *item.Item {
	opts := []item.Opt{
		item.WithTags(t.Tags...),
		item.WithVariables(t.Variables),
	}
	if t.Stackable {
		opts = append(opts, item.WithStackable(t.MaxStack))
	}
	if len(t.Slots) > 0 {
		opts = append(opts, item.WithSlots(t.Slots...))
	}
	if t.InventoryCapacity > 0 {
		opts = append(opts, item.WithInventory(t.InventoryCapacity))
	}
	for name, base := range t.Stats {
		opts = append(opts, item.WithStat(name, base))
	}

	return item.New(t.TypeID, opts...)
}
