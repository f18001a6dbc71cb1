package vault

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/pixil98/go-itemtree/internal/effects"
	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/messaging"
	"github.com/pixil98/go-itemtree/internal/scene"
	"github.com/pixil98/go-itemtree/internal/snapshot"
	"github.com/pixil98/go-itemtree/internal/stat"
)

type liveTree struct {
	root        *item.Item
	unsubscribe func()
}

// Service owns the live item trees of one scene and moves them to and from
// a Store. Tree mutation is serialized by the service; restores run outside
// the lock since they only touch items nobody else can see yet.
type Service struct {
	catalog snapshot.Instantiator
	store   Store
	scene   *scene.Scene
	modes   *scene.Modes
	effects *effects.Manager
	events  *messaging.EventPublisher
	server  *messaging.NatsServer
	prefix  string

	trees map[string]*liveTree
	mu    sync.Mutex
}

func NewService(catalog snapshot.Instantiator, store Store, sc *scene.Scene, opts ...ServiceOpt) *Service {
	s := &Service{
		catalog: catalog,
		store:   store,
		scene:   sc,
		modes:   scene.NewModes(DefaultPlayMode),
		effects: effects.NewManager(),
		prefix:  DefaultSubjectPrefix,
		trees:   map[string]*liveTree{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Scene() *scene.Scene { return s.scene }
func (s *Service) Modes() *scene.Modes { return s.modes }

// Create instantiates a new tree rooted at an item of typeID and returns its
// id.
func (s *Service) Create(ctx context.Context, typeID item.TypeID) (string, error) {
	root, err := s.catalog.Instantiate(ctx, typeID)
	if err != nil {
		return "", fmt.Errorf("instantiating type %d: %w", typeID, err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.register(id, root)
	s.mu.Unlock()

	slog.InfoContext(ctx, "tree created", "tree_id", id, "type_id", typeID)
	return id, nil
}

// Tree returns the root of a live tree.
func (s *Service) Tree(id string) (*item.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lt, ok := s.trees[id]
	if !ok {
		return nil, false
	}
	return lt.root, true
}

// IDs returns the ids of every live tree in sorted order.
func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.trees))
}

// Snapshot flattens the live tree id.
func (s *Service) Snapshot(id string) (*snapshot.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lt, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTree, id)
	}
	return snapshot.Take(lt.root), nil
}

// Save snapshots the live tree id and stores it under the same id.
func (s *Service) Save(ctx context.Context, id string) error {
	t, err := s.Snapshot(id)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, id, t); err != nil {
		return fmt.Errorf("storing %s: %w", id, err)
	}

	slog.InfoContext(ctx, "tree saved", "tree_id", id, "entries", len(t.Entries))
	return nil
}

// Load restores the stored record id into a live tree with the same id,
// replacing any live tree already using it. The restore is abandoned if the
// scene unloads or the play mode changes before it completes.
func (s *Service) Load(ctx context.Context, id string) (*item.Item, error) {
	t, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	guard := scene.NewGuard(s.scene, s.modes)
	root, err := snapshot.Restore(ctx, t, s.catalog, guard)
	if err != nil {
		return nil, fmt.Errorf("restoring %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The guard may have gone stale while waiting for the lock.
	if !guard.Valid() {
		root.Destroy()
		return nil, fmt.Errorf("restoring %s: %w", id, snapshot.ErrAborted)
	}

	s.release(id)
	s.register(id, root)

	slog.InfoContext(ctx, "tree loaded", "tree_id", id, "entries", len(t.Entries), "mode", guard.Mode())
	return root, nil
}

// Delete removes the stored record id. The live tree, if any, is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// List returns the stored record ids.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Release destroys the live tree id.
func (s *Service) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release(id)
}

// Attach instantiates an item of typeID and places it under the item
// parentID of tree id: into the named slot when slot is non-empty, otherwise
// into the inventory at position. A parentID of zero selects the root. It
// returns the item that ends up occupying the slot or position, which is the
// resident stack when the new item merged into it.
//
// Whatever a slot plug displaces is stowed in the root's inventory, or
// destroyed if there is no room. A merge remainder is discarded.
func (s *Service) Attach(ctx context.Context, id string, parentID item.InstanceID, slot string, position int, typeID item.TypeID) (*item.Item, error) {
	child, err := s.catalog.Instantiate(ctx, typeID)
	if err != nil {
		return nil, fmt.Errorf("instantiating type %d: %w", typeID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, err := s.find(id, parentID)
	if err != nil {
		child.Destroy()
		return nil, err
	}

	var resident *item.Item
	if slot != "" {
		resident, err = s.plugInto(ctx, parent, slot, child)
	} else {
		resident, err = placeInto(parent, position, child)
	}
	if err != nil {
		child.Destroy()
		return nil, err
	}

	if !child.IsAttached() && !child.IsDestroyed() {
		slog.WarnContext(ctx, "discarding merge remainder",
			"tree_id", id, "type_id", typeID, "count", child.StackCount())
		child.Destroy()
	}

	return resident, nil
}

func (s *Service) plugInto(ctx context.Context, parent *item.Item, key string, child *item.Item) (*item.Item, error) {
	var sl *item.Slot
	if sc := parent.Slots(); sc != nil {
		sl = sc.Get(key)
	}
	if sl == nil {
		return nil, fmt.Errorf("%w: %v has no slot %q", ErrRejected, parent, key)
	}
	if err := sl.CheckPlug(child); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	_, displaced := sl.Plug(child)
	if displaced != nil {
		stow(ctx, parent.Root(), displaced)
	}
	return sl.Content(), nil
}

func placeInto(parent *item.Item, pos int, child *item.Item) (*item.Item, error) {
	inv := parent.Inventory()
	if inv == nil {
		return nil, fmt.Errorf("%w: %v has no inventory", ErrRejected, parent)
	}
	if err := inv.CheckAdd(child, pos); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	inv.AddAt(child, pos)
	return inv.At(pos), nil
}

// stow moves it into the first free position of root's inventory.
func stow(ctx context.Context, root, it *item.Item) {
	if inv := root.Inventory(); inv != nil {
		if pos := inv.FirstFree(); pos >= 0 && inv.AddAt(it, pos) {
			return
		}
	}
	slog.WarnContext(ctx, "no room for displaced item", "item", it.ID(), "type_id", it.TypeID())
	it.Destroy()
}

// ApplyEffect adds a timed modifier to the stat of item instanceID in tree
// id. An instanceID of zero selects the root.
func (s *Service) ApplyEffect(id string, instanceID item.InstanceID, statName string, kind stat.Kind, value float64, ticks int) (*effects.Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.find(id, instanceID)
	if err != nil {
		return nil, err
	}
	return s.effects.Apply(target, statName, kind, value, ticks)
}

// Tick advances the effects of every live tree by one tick.
func (s *Service) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effects.Tick(ctx)
}

// Shutdown unloads the scene, invalidating in-flight restores, and destroys
// every live tree.
func (s *Service) Shutdown() {
	s.scene.Unload()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.trees {
		s.release(id)
	}
}

func (s *Service) find(id string, instanceID item.InstanceID) (*item.Item, error) {
	lt, ok := s.trees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTree, id)
	}
	if instanceID == 0 {
		return lt.root, nil
	}

	var found *item.Item
	lt.root.Walk(func(it *item.Item) bool {
		if it.ID() == instanceID {
			found = it
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoInstance, instanceID)
	}
	return found, nil
}

func (s *Service) register(id string, root *item.Item) {
	lt := &liveTree{root: root, unsubscribe: func() {}}
	if s.events != nil {
		lt.unsubscribe = root.Subscribe(s.events.Observer(id))
	}
	s.trees[id] = lt
}

func (s *Service) release(id string) bool {
	lt, ok := s.trees[id]
	if !ok {
		return false
	}
	lt.unsubscribe()
	lt.root.Destroy()
	delete(s.trees, id)
	return true
}
