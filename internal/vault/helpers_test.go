package vault

import (
	"context"
	"testing"

	"github.com/pixil98/go-itemtree/internal/catalog"
	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/scene"
)

const (
	typeBackpack item.TypeID = iota + 1
	typeRifle
	typeScope
	typeAmmo
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(emptyStorer{})
	if err != nil {
		t.Fatalf("unexpected error creating catalog: %v", err)
	}

	templates := []*catalog.Template{
		{TypeID: typeBackpack, Name: "Backpack", Tags: []string{"container"}, InventoryCapacity: 4},
		{
			TypeID: typeRifle,
			Name:   "Rifle",
			Tags:   []string{"weapon"},
			Slots: []item.SlotSpec{
				{Key: "optic", Require: []string{"optic"}},
				{Key: "magazine", Require: []string{"ammo"}},
			},
			Stats: map[string]float64{"damage": 10},
		},
		{TypeID: typeScope, Name: "Scope", Tags: []string{"optic"}},
		{
			TypeID:    typeAmmo,
			Name:      "Rounds",
			Tags:      []string{"ammo"},
			Stackable: true,
			MaxStack:  30,
			Variables: item.Variables{item.VarStackCount: item.Int(20)},
		},
	}
	for _, tmpl := range templates {
		if err := c.Register(tmpl); err != nil {
			t.Fatalf("registering %s: %v", tmpl.Name, err)
		}
	}
	return c
}

type emptyStorer struct{}

func (emptyStorer) Save(string, *catalog.Template) error { return nil }
func (emptyStorer) Get(string) *catalog.Template         { return nil }
func (emptyStorer) GetAll() map[string]*catalog.Template { return nil }
func (emptyStorer) Delete(string) error                  { return nil }

// hookedCatalog runs hook after every successful instantiation.
type hookedCatalog struct {
	*catalog.Catalog
	calls int
	hook  func(n int)
}

func (h *hookedCatalog) Instantiate(ctx context.Context, typeID item.TypeID) (*item.Item, error) {
	it, err := h.Catalog.Instantiate(ctx, typeID)
	if err == nil {
		h.calls++
		if h.hook != nil {
			h.hook(h.calls)
		}
	}
	return it, err
}

func newFileService(t *testing.T, opts ...ServiceOpt) *Service {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	return NewService(newCatalog(t), store, scene.New("range"), opts...)
}

// buildLoadout creates a backpack holding a scoped rifle with a magazine and
// a spare stack of rounds.
func buildLoadout(t *testing.T, s *Service) (string, *item.Item) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Create(ctx, typeBackpack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rifle, err := s.Attach(ctx, id, 0, "", 0, typeRifle)
	if err != nil {
		t.Fatalf("attaching rifle: %v", err)
	}
	if _, err := s.Attach(ctx, id, rifle.ID(), "optic", 0, typeScope); err != nil {
		t.Fatalf("attaching scope: %v", err)
	}
	if _, err := s.Attach(ctx, id, rifle.ID(), "magazine", 0, typeAmmo); err != nil {
		t.Fatalf("attaching magazine: %v", err)
	}
	if _, err := s.Attach(ctx, id, 0, "", 3, typeAmmo); err != nil {
		t.Fatalf("attaching spare rounds: %v", err)
	}

	root, _ := s.Tree(id)
	root.Inventory().Lock(1)
	return id, rifle
}
