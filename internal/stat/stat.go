package stat

import (
	"cmp"
	"math"
	"reflect"
	"slices"
)

// Stat is a named numeric value computed from a base value and an ordered
// stack of modifiers. The computed value is cached until the stat is dirtied.
type Stat struct {
	base  float64
	value float64
	dirty bool
	mods  []*Modifier
}

func New(base float64) *Stat {
	return &Stat{
		base:  base,
		dirty: true,
	}
}

func (s *Stat) Base() float64 {
	return s.base
}

func (s *Stat) SetBase(v float64) {
	s.base = v
	s.MarkDirty()
}

// Value returns the computed value, recomputing only if the stat is dirty.
func (s *Stat) Value() float64 {
	s.recomputeIfDirty()
	return s.value
}

func (s *Stat) MarkDirty() {
	s.dirty = true
}

func (s *Stat) IsDirty() bool {
	return s.dirty
}

// Modifiers returns the attached modifiers in insertion order.
func (s *Stat) Modifiers() []*Modifier {
	return slices.Clone(s.mods)
}

// AddModifier attaches m to this stat, detaching it from its previous stat first.
func (s *Stat) AddModifier(m *Modifier) {
	if m == nil || m.stat == s {
		return
	}
	if m.stat != nil {
		m.stat.RemoveModifier(m)
	}

	m.stat = s
	s.mods = append(s.mods, m)
	s.MarkDirty()
}

// RemoveModifier detaches m. Returns false if m was not attached to this stat.
func (s *Stat) RemoveModifier(m *Modifier) bool {
	i := slices.Index(s.mods, m)
	if i < 0 {
		return false
	}

	s.mods = slices.Delete(s.mods, i, i+1)
	m.stat = nil
	s.MarkDirty()
	return true
}

// RemoveModifiersFrom detaches every modifier contributed by source and
// returns how many were removed. A source that cannot be compared with ==
// matches nothing.
func (s *Stat) RemoveModifiersFrom(source any) int {
	removed := 0
	kept := s.mods[:0]
	for _, m := range s.mods {
		if sameSource(m.source, source) {
			m.stat = nil
			removed++
			continue
		}
		kept = append(kept, m)
	}
	clear(s.mods[len(kept):])
	s.mods = kept

	if removed > 0 {
		s.MarkDirty()
	}
	return removed
}

func (s *Stat) recomputeIfDirty() {
	if !s.dirty {
		return
	}
	s.value = s.compute()
	s.dirty = false
}

// compute folds the modifiers in ascending order key. The stable sort keeps
// insertion order for equal keys. Consecutive percentage adds are summed and
// applied once.
func (s *Stat) compute() float64 {
	ordered := slices.Clone(s.mods)
	slices.SortStableFunc(ordered, func(a, b *Modifier) int {
		return cmp.Compare(a.order, b.order)
	})

	v := s.base
	pct := 0.0
	for i, m := range ordered {
		switch m.kind {
		case KindAdd:
			v += m.value
		case KindPercentageAdd:
			pct += m.value
			if i+1 >= len(ordered) || ordered[i+1].kind != KindPercentageAdd {
				v *= 1 + pct
				pct = 0
			}
		case KindPercentageMultiply:
			v *= 1 + m.value
		}
	}

	return math.Round(v*10000) / 10000
}

func sameSource(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return a == b
}
