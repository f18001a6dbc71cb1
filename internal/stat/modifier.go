package stat

import "fmt"

// Kind selects how a modifier contributes to a stat. The numeric value of a
// kind is also the default order key of modifiers of that kind.
type Kind int

const (
	KindAdd                Kind = 100
	KindPercentageAdd      Kind = 200
	KindPercentageMultiply Kind = 300
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindPercentageAdd:
		return "percentage_add"
	case KindPercentageMultiply:
		return "percentage_multiply"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindAdd, KindPercentageAdd, KindPercentageMultiply:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown modifier kind: %d", int(k))
	}
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "add":
		*k = KindAdd
	case "percentage_add":
		*k = KindPercentageAdd
	case "percentage_multiply":
		*k = KindPercentageMultiply
	default:
		return fmt.Errorf("unknown modifier kind: %s", text)
	}
	return nil
}

// Modifier is a single contribution to a Stat. A modifier is attached to at
// most one stat at a time.
type Modifier struct {
	kind   Kind
	value  float64
	order  int
	source any
	stat   *Stat
}

type ModifierOpt func(*Modifier)

// WithOrder overrides the kind-derived order key.
func WithOrder(order int) ModifierOpt {
	return func(m *Modifier) {
		m.order = order
	}
}

// NewModifier creates a detached modifier. Source is an opaque handle used by
// RemoveModifiersFrom and must be a comparable value (or nil).
func NewModifier(kind Kind, value float64, source any, opts ...ModifierOpt) *Modifier {
	m := &Modifier{
		kind:   kind,
		value:  value,
		order:  int(kind),
		source: source,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Modifier) Kind() Kind       { return m.kind }
func (m *Modifier) Value() float64   { return m.value }
func (m *Modifier) Order() int       { return m.order }
func (m *Modifier) Source() any      { return m.source }
func (m *Modifier) Stat() *Stat      { return m.stat }
func (m *Modifier) IsAttached() bool { return m.stat != nil }

// SetValue changes the modifier's contribution and dirties the owning stat.
func (m *Modifier) SetValue(v float64) {
	if m.value == v {
		return
	}
	m.value = v
	if m.stat != nil {
		m.stat.MarkDirty()
	}
}

// Detach removes the modifier from whatever stat currently holds it.
func (m *Modifier) Detach() {
	if m.stat != nil {
		m.stat.RemoveModifier(m)
	}
}
