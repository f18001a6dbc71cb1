package vault

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pixil98/go-itemtree/internal/catalog"
	"github.com/pixil98/go-itemtree/internal/effects"
	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/scene"
	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/pixil98/go-itemtree/internal/stat"
	"github.com/pixil98/go-testutil"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshalling: %v", err)
	}
	return string(b)
}

func TestService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newFileService(t)
	id, _ := buildLoadout(t, s)

	before, err := s.Snapshot(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Save(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	old, _ := s.Tree(id)

	root, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "old tree destroyed", old.IsDestroyed(), true)
	live, _ := s.Tree(id)
	if live != root {
		t.Error("expected the loaded root to replace the live tree")
	}
	after, _ := s.Snapshot(id)
	testutil.AssertEqual(t, "isomorphic", mustJSON(t, after), mustJSON(t, before))
	testutil.AssertEqual(t, "locked", root.Inventory().Locked(), []int{1})

	ids, err := s.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "stored", ids, []string{id})
}

func TestService_Load_Errors(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		setup  func(t *testing.T, s *Service) string
		expErr error
	}{
		"unknown record": {
			setup:  func(*testing.T, *Service) string { return "missing" },
			expErr: ErrNotFound,
		},
		"scene unloaded": {
			setup: func(t *testing.T, s *Service) string {
				id, _ := buildLoadout(t, s)
				if err := s.Save(ctx, id); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				s.Scene().Unload()
				return id
			},
			expErr: snapshot.ErrAborted,
		},
		"root type removed": {
			setup: func(t *testing.T, s *Service) string {
				tree := &snapshot.Tree{Root: 1, Entries: []snapshot.Entry{{InstanceID: 1, TypeID: 99}}}
				if err := s.store.Save(ctx, "orphan", tree); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return "orphan"
			},
			expErr: snapshot.ErrRootUnresolved,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newFileService(t)
			id := tt.setup(t, s)

			root, err := s.Load(ctx, id)

			if root != nil {
				t.Error("expected no root")
			}
			if !errors.Is(err, tt.expErr) {
				t.Errorf("expected %v, got %v", tt.expErr, err)
			}
		})
	}
}

func TestService_Load_ModeChangeAborts(t *testing.T) {
	ctx := context.Background()
	modes := scene.NewModes("hub")
	hooked := &hookedCatalog{Catalog: newCatalog(t)}
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewService(hooked, store, scene.New("range"), WithModes(modes))

	id, _ := buildLoadout(t, s)
	if err := s.Save(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Release(id)

	var created []*item.Item
	hooked.calls = 0
	hooked.hook = func(n int) {
		if n == 3 {
			modes.Set("raid")
		}
	}
	s.catalog = instantiatorFunc(func(ctx context.Context, typeID item.TypeID) (*item.Item, error) {
		it, err := hooked.Instantiate(ctx, typeID)
		if it != nil {
			created = append(created, it)
		}
		return it, err
	})

	_, err = s.Load(ctx, id)

	if !errors.Is(err, snapshot.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	testutil.AssertEqual(t, "created", len(created), 3)
	for _, it := range created {
		testutil.AssertEqual(t, "destroyed", it.IsDestroyed(), true)
	}
	if _, ok := s.Tree(id); ok {
		t.Error("aborted load should not register a tree")
	}
}

type instantiatorFunc func(context.Context, item.TypeID) (*item.Item, error)

func (f instantiatorFunc) Instantiate(ctx context.Context, typeID item.TypeID) (*item.Item, error) {
	return f(ctx, typeID)
}

func TestService_Attach(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		parent   func(rifle *item.Item) item.InstanceID
		slot     string
		position int
		typeID   item.TypeID
		expErr   error
	}{
		"wrong tag for slot": {
			parent: func(r *item.Item) item.InstanceID { return r.ID() },
			slot:   "optic",
			typeID: typeAmmo,
			expErr: item.ErrMissingTag,
		},
		"unknown slot": {
			parent: func(r *item.Item) item.InstanceID { return r.ID() },
			slot:   "barrel",
			typeID: typeScope,
			expErr: ErrRejected,
		},
		"occupied position": {
			parent:   func(*item.Item) item.InstanceID { return 0 },
			position: 0,
			typeID:   typeScope,
			expErr:   item.ErrPositionOccupied,
		},
		"no inventory": {
			parent:   func(r *item.Item) item.InstanceID { return r.ID() },
			position: 0,
			typeID:   typeScope,
			expErr:   ErrRejected,
		},
		"unknown instance": {
			parent: func(*item.Item) item.InstanceID { return -5 },
			slot:   "optic",
			typeID: typeScope,
			expErr: ErrNoInstance,
		},
		"unknown type": {
			parent: func(*item.Item) item.InstanceID { return 0 },
			typeID: 404,
			expErr: catalog.ErrUnknownType,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newFileService(t)
			id, rifle := buildLoadout(t, s)
			before, _ := s.Snapshot(id)

			it, err := s.Attach(ctx, id, tt.parent(rifle), tt.slot, tt.position, tt.typeID)

			if it != nil {
				t.Error("expected no item")
			}
			if !errors.Is(err, tt.expErr) {
				t.Errorf("expected %v, got %v", tt.expErr, err)
			}
			after, _ := s.Snapshot(id)
			testutil.AssertEqual(t, "tree unchanged", mustJSON(t, after), mustJSON(t, before))
		})
	}

	t.Run("unknown tree", func(t *testing.T) {
		s := newFileService(t)
		_, err := s.Attach(ctx, "nope", 0, "", 0, typeScope)
		if !errors.Is(err, ErrUnknownTree) {
			t.Errorf("expected ErrUnknownTree, got %v", err)
		}
	})
}

func TestService_Attach_DisplacesIntoRoot(t *testing.T) {
	ctx := context.Background()
	s := newFileService(t)
	id, rifle := buildLoadout(t, s)
	oldScope := rifle.Slots().Get("optic").Content()

	newScope, err := s.Attach(ctx, id, rifle.ID(), "optic", 0, typeScope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, _ := s.Tree(id)
	testutil.AssertEqual(t, "plugged", rifle.Slots().Get("optic").Content() == newScope, true)
	testutil.AssertEqual(t, "stowed", root.Inventory().At(1) == oldScope, true)
	testutil.AssertEqual(t, "alive", oldScope.IsDestroyed(), false)
}

func TestService_Attach_MergesStacks(t *testing.T) {
	ctx := context.Background()
	s := newFileService(t)
	id, rifle := buildLoadout(t, s)
	mag := rifle.Slots().Get("magazine").Content()

	resident, err := s.Attach(ctx, id, rifle.ID(), "magazine", 0, typeAmmo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "resident kept", resident == mag, true)
	testutil.AssertEqual(t, "topped up", mag.StackCount(), 30)
	root, _ := s.Tree(id)
	testutil.AssertEqual(t, "nothing stowed", root.Inventory().Positions(), []int{0, 3})
}

func TestService_EffectsTick(t *testing.T) {
	ctx := context.Background()
	s := newFileService(t)
	id, rifle := buildLoadout(t, s)

	_, err := s.ApplyEffect(id, rifle.ID(), "damage", stat.KindPercentageAdd, 0.5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	damage, _ := rifle.Stats().Value("damage")
	testutil.AssertEqual(t, "buffed", damage, 15.0)

	_ = s.Tick(ctx)
	_ = s.Tick(ctx)

	damage, _ = rifle.Stats().Value("damage")
	testutil.AssertEqual(t, "expired", damage, 10.0)

	_, err = s.ApplyEffect(id, 0, "damage", stat.KindAdd, 1, 1)
	if !errors.Is(err, effects.ErrUnknownStat) {
		t.Errorf("expected unknown stat on backpack, got %v", err)
	}
}

func TestService_Events(t *testing.T) {
	ctx := context.Background()
	fake := &fakePublisher{}
	s := newFileService(t, WithEvents(messaging.NewEventPublisher(fake, "events")))

	id, err := s.Create(ctx, typeBackpack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Attach(ctx, id, 0, "", 2, typeScope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.subjects) == 0 {
		t.Fatal("expected events")
	}
	testutil.AssertEqual(t, "subject", fake.subjects[0], "events."+id)

	n := len(fake.subjects)
	s.Release(id)
	testutil.AssertEqual(t, "no events after release", len(fake.subjects), n)
}

type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(subject string, _ []byte) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func TestService_Shutdown(t *testing.T) {
	s := newFileService(t)
	id, _ := buildLoadout(t, s)
	root, _ := s.Tree(id)

	s.Shutdown()

	testutil.AssertEqual(t, "scene", s.Scene().Loaded(), false)
	testutil.AssertEqual(t, "root destroyed", root.IsDestroyed(), true)
	testutil.AssertEqual(t, "live trees", len(s.IDs()), 0)
}
