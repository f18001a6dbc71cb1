package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pixil98/go-itemtree/internal/item"
)

const (
	typeBackpack item.TypeID = iota + 1
	typeRifle
	typeMount
	typeScope
	typeAmmo
	typePouch
	typeSight
)

var builders = map[item.TypeID]func() *item.Item{
	typeBackpack: func() *item.Item {
		return item.New(typeBackpack, item.WithTags("container"), item.WithInventory(6))
	},
	typeRifle: func() *item.Item {
		return item.New(typeRifle,
			item.WithTags("weapon"),
			item.WithSlots(
				item.SlotSpec{Key: "optic", Require: []string{"optic"}},
				item.SlotSpec{Key: "rail", Require: []string{"attachment"}},
				item.SlotSpec{Key: "magazine", Require: []string{"ammo"}},
			),
			item.WithStat("damage", 12),
		)
	},
	typeMount: func() *item.Item {
		return item.New(typeMount,
			item.WithTags("attachment"),
			item.WithSlots(item.SlotSpec{Key: "top", Require: []string{"optic"}}),
		)
	},
	typeScope: func() *item.Item {
		return item.New(typeScope, item.WithTags("optic", "attachment"))
	},
	typeAmmo: func() *item.Item {
		return item.New(typeAmmo, item.WithTags("ammo"), item.WithStackable(60))
	},
	typePouch: func() *item.Item {
		return item.New(typePouch, item.WithTags("container"), item.WithInventory(3))
	},
	typeSight: func() *item.Item {
		return item.New(typeSight,
			item.WithTags("optic"),
			item.WithVariables(item.Variables{"zoom": item.Int(2), "reticle": item.String("dot")}),
		)
	},
}

// fakeCatalog instantiates from builders and records every item it creates.
type fakeCatalog struct {
	created       []*item.Item
	onInstantiate func(n int)
}

func (f *fakeCatalog) Instantiate(ctx context.Context, typeID item.TypeID) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := builders[typeID]
	if !ok {
		return nil, fmt.Errorf("unknown type %d", typeID)
	}
	it := b()
	f.created = append(f.created, it)
	if f.onInstantiate != nil {
		f.onInstantiate(len(f.created))
	}
	return it, nil
}

type sample struct {
	root, rifle, mount, mountScope, ammo, pouch, pouchAmmo, looseScope *item.Item
}

func newSample() sample {
	s := sample{
		root:       builders[typeBackpack](),
		rifle:      builders[typeRifle](),
		mount:      builders[typeMount](),
		mountScope: builders[typeScope](),
		ammo:       builders[typeAmmo](),
		pouch:      builders[typePouch](),
		pouchAmmo:  builders[typeAmmo](),
		looseScope: builders[typeScope](),
	}

	s.rifle.SetVar("label", item.String("Old Faithful"))
	s.rifle.SetVar("wear", item.Float(0.3))
	s.ammo.SetStackCount(30)
	s.pouchAmmo.SetStackCount(12)

	s.root.Inventory().AddAt(s.rifle, 0)
	s.root.Inventory().AddAt(s.pouch, 2)
	s.root.Inventory().AddAt(s.looseScope, 5)
	s.root.Inventory().Lock(0)
	s.root.Inventory().Lock(4)

	s.rifle.Slots().Get("rail").Plug(s.mount)
	s.rifle.Slots().Get("magazine").Plug(s.ammo)
	s.mount.Slots().Get("top").Plug(s.mountScope)

	s.pouch.Inventory().AddAt(s.pouchAmmo, 1)
	s.pouch.Inventory().Lock(2)
	return s
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	return string(b)
}
