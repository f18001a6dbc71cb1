package effects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-itemtree/internal/item"
	"github.com/pixil98/go-itemtree/internal/stat"
)

// Effect is a modifier that expires after a number of ticks. The effect is
// the source of its modifier.
type Effect struct {
	target    *item.Item
	stat      string
	mod       *stat.Modifier
	remaining int
}

func (e *Effect) Target() *item.Item       { return e.target }
func (e *Effect) StatName() string         { return e.stat }
func (e *Effect) Modifier() *stat.Modifier { return e.mod }
func (e *Effect) Remaining() int           { return e.remaining }
func (e *Effect) Expired() bool            { return e.remaining <= 0 }

// Manager owns active effects. It is not safe for concurrent use; callers
// serialize access together with the items it modifies.
type Manager struct {
	active []*Effect
}

func NewManager() *Manager {
	return &Manager{}
}

// Apply attaches a modifier to target's stat for the given number of ticks.
func (m *Manager) Apply(target *item.Item, statName string, kind stat.Kind, value float64, ticks int) (*Effect, error) {
	if target == nil || target.IsDestroyed() {
		return nil, ErrNoTarget
	}
	if ticks <= 0 {
		return nil, ErrInvalidDuration
	}
	s := target.Stats().Get(statName)
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStat, statName)
	}

	e := &Effect{
		target:    target,
		stat:      statName,
		remaining: ticks,
	}
	e.mod = stat.NewModifier(kind, value, e)
	s.AddModifier(e.mod)

	m.active = append(m.active, e)
	return e, nil
}

// Remove ends an effect early.
func (m *Manager) Remove(e *Effect) bool {
	for i, a := range m.active {
		if a == e {
			m.active = append(m.active[:i], m.active[i+1:]...)
			m.expire(e)
			return true
		}
	}
	return false
}

// Active returns the effects that have not expired yet.
func (m *Manager) Active() []*Effect {
	out := make([]*Effect, len(m.active))
	copy(out, m.active)
	return out
}

// On returns the active effects targeting it.
func (m *Manager) On(it *item.Item) []*Effect {
	var out []*Effect
	for _, e := range m.active {
		if e.target == it {
			out = append(out, e)
		}
	}
	return out
}

// Tick counts every effect down by one and removes the expired ones along
// with effects whose target has been destroyed.
func (m *Manager) Tick(ctx context.Context) error {
	kept := m.active[:0]
	for _, e := range m.active {
		if e.target.IsDestroyed() {
			e.remaining = 0
			continue
		}

		e.remaining--
		if e.remaining > 0 {
			kept = append(kept, e)
			continue
		}

		m.expire(e)
		slog.DebugContext(ctx, "effect expired",
			"item", e.target.ID(), "stat", e.stat, "kind", e.mod.Kind())
	}

	clear(m.active[len(kept):])
	m.active = kept
	return nil
}

func (m *Manager) expire(e *Effect) {
	e.remaining = 0
	e.target.RemoveAllModifiersFrom(e)
}
