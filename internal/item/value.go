package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Kind is the declared type of a variable value.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

func parseKind(s string) Kind {
	switch s {
	case "int":
		return KindInt
	case "float":
		return KindFloat
	case "string":
		return KindString
	case "bool":
		return KindBool
	default:
		return KindUnknown
	}
}

// Value is a tagged union holding exactly one payload of its kind. Values
// read with an unrecognized type tag keep the tag and raw payload so they
// survive a round trip, but every typed accessor reports false for them.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool

	tag string
	raw json.RawMessage
}

func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func Bool(v bool) Value     { return Value{kind: KindBool, b: v} }

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	default:
		return v.tag == o.tag && bytes.Equal(v.raw, o.raw)
	}
}

// Clone returns a value that shares no memory with v.
func (v Value) Clone() Value {
	v.raw = bytes.Clone(v.raw)
	return v
}

func (v Value) GoString() string {
	switch v.kind {
	case KindInt:
		return fmt.Sprintf("int(%d)", v.i)
	case KindFloat:
		return fmt.Sprintf("float(%g)", v.f)
	case KindString:
		return fmt.Sprintf("string(%q)", v.s)
	case KindBool:
		return fmt.Sprintf("bool(%t)", v.b)
	default:
		return fmt.Sprintf("%s(%s)", v.tag, v.raw)
	}
}

func (v Value) payload() (string, json.RawMessage, error) {
	var data any
	switch v.kind {
	case KindInt:
		data = v.i
	case KindFloat:
		data = v.f
	case KindString:
		data = v.s
	case KindBool:
		data = v.b
	default:
		return v.tag, v.raw, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return "", nil, err
	}
	return v.kind.String(), b, nil
}

func decodeValue(tag string, raw json.RawMessage) (Value, error) {
	var err error
	v := Value{kind: parseKind(tag)}
	switch v.kind {
	case KindInt:
		err = json.Unmarshal(raw, &v.i)
	case KindFloat:
		err = json.Unmarshal(raw, &v.f)
	case KindString:
		err = json.Unmarshal(raw, &v.s)
	case KindBool:
		err = json.Unmarshal(raw, &v.b)
	default:
		v.tag = tag
		v.raw = bytes.Clone(raw)
	}
	if err != nil {
		return Value{}, fmt.Errorf("decoding %s value: %w", tag, err)
	}
	return v, nil
}

type valueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	tag, raw, err := v.payload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: tag, Value: raw})
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var vj valueJSON
	if err := json.Unmarshal(b, &vj); err != nil {
		return err
	}
	decoded, err := decodeValue(vj.Type, vj.Value)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// Variables is the per-instance variable bag of an item. It serializes as a
// list of {key, type, value} entries sorted by key.
type Variables map[string]Value

// Set stores val under key, allocating the bag if needed.
func (vs *Variables) Set(key string, val Value) {
	if *vs == nil {
		*vs = Variables{}
	}
	(*vs)[key] = val
}

func (vs Variables) Get(key string) (Value, bool) {
	v, ok := vs[key]
	return v, ok
}

func (vs Variables) Delete(key string) {
	delete(vs, key)
}

// Keys returns the variable keys in sorted order.
func (vs Variables) Keys() []string {
	return slices.Sorted(maps.Keys(vs))
}

// Clone returns a deep copy of the bag.
func (vs Variables) Clone() Variables {
	if vs == nil {
		return nil
	}
	out := make(Variables, len(vs))
	for k, v := range vs {
		out[k] = v.Clone()
	}
	return out
}

type variableJSON struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (vs Variables) MarshalJSON() ([]byte, error) {
	entries := make([]variableJSON, 0, len(vs))
	for _, k := range vs.Keys() {
		tag, raw, err := vs[k].payload()
		if err != nil {
			return nil, fmt.Errorf("encoding variable %q: %w", k, err)
		}
		entries = append(entries, variableJSON{Key: k, Type: tag, Value: raw})
	}
	return json.Marshal(entries)
}

func (vs *Variables) UnmarshalJSON(b []byte) error {
	var entries []variableJSON
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}

	out := make(Variables, len(entries))
	for _, e := range entries {
		v, err := decodeValue(e.Type, e.Value)
		if err != nil {
			return fmt.Errorf("variable %q: %w", e.Key, err)
		}
		out[e.Key] = v
	}
	*vs = out
	return nil
}
