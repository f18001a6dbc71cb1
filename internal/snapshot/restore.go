package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-itemtree/internal/item"
)

// Instantiator creates a fresh live item for a type id. Implementations may
// block while template content loads.
type Instantiator interface {
	Instantiate(ctx context.Context, typeID item.TypeID) (*item.Item, error)
}

// Guard reports whether the environment that started a restore is still
// valid. It is checked before each entry and again whenever instantiation
// returns.
type Guard interface {
	Valid() bool
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func() bool

func (f GuardFunc) Valid() bool {
	return f()
}

// Restore rebuilds a live item tree from t. Entries are instantiated in
// snapshot order, then slot and inventory references are wired in a second
// pass once every referenced item exists. Variables are taken from the entry
// alone; template defaults missing from it are cleared.
//
// An entry whose type fails to instantiate is skipped along with any wiring
// that references it. If the guard becomes invalid (or ctx is done) every
// item created so far is destroyed and ErrAborted is returned. If the root
// entry itself could not be created a *RootUnresolvedError is returned.
func Restore(ctx context.Context, t *Tree, inst Instantiator, guard Guard) (*item.Item, error) {
	if t == nil {
		return nil, ErrNilTree
	}

	valid := func() bool {
		return ctx.Err() == nil && (guard == nil || guard.Valid())
	}

	live := make(map[int64]*item.Item, len(t.Entries))
	created := make([]*item.Item, 0, len(t.Entries))
	aborted := false

	for _, e := range t.Entries {
		if !valid() {
			aborted = true
			break
		}

		it, err := inst.Instantiate(ctx, e.TypeID)
		if err != nil && it != nil {
			it.Destroy()
			it = nil
		}
		if it != nil {
			created = append(created, it)
		}

		if !valid() {
			aborted = true
			break
		}

		if it == nil {
			slog.WarnContext(ctx, "skipping snapshot entry",
				"instance_id", e.InstanceID, "type_id", e.TypeID, "error", err)
			continue
		}

		live[e.InstanceID] = it
		for _, k := range it.Variables().Keys() {
			if _, ok := e.Variables[k]; !ok {
				it.DeleteVar(k)
			}
		}
		for k, v := range e.Variables {
			it.SetVar(k, v.Clone())
		}
	}

	if aborted {
		destroyAll(created)
		slog.WarnContext(ctx, "restore aborted",
			"instantiated", len(created), "entries", len(t.Entries))
		return nil, fmt.Errorf("%w after %d of %d entries", ErrAborted, len(created), len(t.Entries))
	}

	wire(ctx, t, live)

	root, ok := live[t.Root]
	if !ok {
		destroyAll(created)
		dump := Dump(t)
		slog.WarnContext(ctx, "restore root unresolved",
			"root_instance_id", t.Root, "tree", dump)
		return nil, &RootUnresolvedError{RootID: t.Root, Dump: dump}
	}

	prune(ctx, root, created)
	return root, nil
}

// wire resolves every slot and inventory reference against live. Missing
// parents, children, slots or rejected placements are logged and skipped, as
// is any reference that would place the root inside its own tree.
func wire(ctx context.Context, t *Tree, live map[int64]*item.Item) {
	for _, e := range t.Entries {
		parent, ok := live[e.InstanceID]
		if !ok {
			continue
		}

		for _, ref := range e.Slots {
			if ref.Child == t.Root {
				slog.WarnContext(ctx, "snapshot root referenced as slot content",
					"instance_id", e.InstanceID, "slot", ref.Key)
				continue
			}
			child, ok := live[ref.Child]
			if !ok {
				slog.WarnContext(ctx, "dangling slot reference",
					"instance_id", e.InstanceID, "slot", ref.Key, "child_instance_id", ref.Child)
				continue
			}

			var slot *item.Slot
			if sc := parent.Slots(); sc != nil {
				slot = sc.Get(ref.Key)
			}
			if slot == nil {
				slog.WarnContext(ctx, "snapshot slot missing on template",
					"instance_id", e.InstanceID, "type_id", e.TypeID, "slot", ref.Key)
				continue
			}

			if err := slot.CheckPlug(child); err != nil {
				slog.WarnContext(ctx, "snapshot slot content rejected",
					"instance_id", e.InstanceID, "slot", ref.Key, "child_instance_id", ref.Child, "error", err)
				continue
			}
			slot.Plug(child)
		}

		inv := parent.Inventory()
		for _, ref := range e.Inventory {
			if ref.Child == t.Root {
				slog.WarnContext(ctx, "snapshot root referenced as inventory content",
					"instance_id", e.InstanceID, "position", ref.Position)
				continue
			}
			child, ok := live[ref.Child]
			if !ok {
				slog.WarnContext(ctx, "dangling inventory reference",
					"instance_id", e.InstanceID, "position", ref.Position, "child_instance_id", ref.Child)
				continue
			}
			if inv == nil {
				slog.WarnContext(ctx, "snapshot inventory missing on template",
					"instance_id", e.InstanceID, "type_id", e.TypeID)
				break
			}
			if err := inv.CheckAdd(child, ref.Position); err != nil {
				slog.WarnContext(ctx, "snapshot inventory content rejected",
					"instance_id", e.InstanceID, "position", ref.Position, "child_instance_id", ref.Child, "error", err)
				continue
			}
			inv.AddAt(child, ref.Position)
		}

		if inv != nil {
			inv.SetLocked(e.Locked)
		}
	}
}

// prune destroys created items that did not end up in root's tree, such as
// the children of a skipped entry.
func prune(ctx context.Context, root *item.Item, created []*item.Item) {
	reachable := map[*item.Item]struct{}{}
	root.Walk(func(it *item.Item) bool {
		reachable[it] = struct{}{}
		return true
	})

	for _, it := range created {
		if _, ok := reachable[it]; ok || it.IsDestroyed() {
			continue
		}
		slog.WarnContext(ctx, "discarding orphaned item", "type_id", it.TypeID())
		it.Destroy()
	}
}

func destroyAll(items []*item.Item) {
	for _, it := range items {
		it.Destroy()
	}
}
