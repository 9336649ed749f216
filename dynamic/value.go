// Package dynamic implements the immutable tree value that migrations operate on.
//
// A Value is one of Null, Bool, Number, String, List or Map. Values are never
// mutated in place: Set, Remove, Rename and friends return a new Value and
// leave the receiver untouched. Unchanged children are shared between the old
// and the new tree.
//
// Accessors never fail. Reading a missing key or coercing a value of the wrong
// kind yields the caller-supplied default, because legacy documents routinely
// omit or mistype fields.
package dynamic

import (
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable tree node. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	float bool
	s     string
	list  []Value
	m     *object
}

// object keeps insertion order so that encoders produce stable output.
type object struct {
	keys []string
	vals map[string]Value
}

func (o *object) clone(extra int) *object {
	c := &object{
		keys: make([]string, len(o.keys), len(o.keys)+extra),
		vals: make(map[string]Value, len(o.vals)+extra),
	}
	copy(c.keys, o.keys)
	for k, v := range o.vals {
		c.vals[k] = v
	}
	return c
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integral number.
func Int(i int64) Value { return Value{kind: KindNumber, i: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: KindNumber, f: f, float: true} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List builds a list from the given elements. The slice is copied.
func List(elems ...Value) Value {
	l := make([]Value, len(elems))
	copy(l, elems)
	return Value{kind: KindList, list: l}
}

// EmptyMap returns a map with no entries.
func EmptyMap() Value {
	return Value{kind: KindMap, m: &object{vals: map[string]Value{}}}
}

// Map builds a map from alternating key/value arguments. Keys must be
// strings; later duplicates win. It is mostly a convenience for tests and
// fixes that build small literals.
func Map(kv ...any) Value {
	out := EmptyMap()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = out.Set(k, FromAny(kv[i+1]))
	}
	return out
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsMap reports whether v is a map.
func (v Value) IsMap() bool { return v.kind == KindMap }

// IsList reports whether v is a list.
func (v Value) IsList() bool { return v.kind == KindList }

// IsFloat reports whether v is a number stored with floating point identity.
func (v Value) IsFloat() bool { return v.kind == KindNumber && v.float }

// Len returns the number of entries of a map or list, or zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m.keys)
	}
	return 0
}

// Keys returns the keys of a map in insertion order. It returns nil for
// non-map values.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	out := make([]string, len(v.m.keys))
	copy(out, v.m.keys)
	return out
}

// String renders v in a compact JSON-like form for diagnostics.
func (v Value) String() string {
	var b []byte
	b = v.appendDebug(b)
	return string(b)
}

func (v Value) appendDebug(b []byte) []byte {
	switch v.kind {
	case KindNull:
		return append(b, "null"...)
	case KindBool:
		return strconv.AppendBool(b, v.b)
	case KindNumber:
		if v.float {
			return strconv.AppendFloat(b, v.f, 'g', -1, 64)
		}
		return strconv.AppendInt(b, v.i, 10)
	case KindString:
		return strconv.AppendQuote(b, v.s)
	case KindList:
		b = append(b, '[')
		for i, e := range v.list {
			if i > 0 {
				b = append(b, ',')
			}
			b = e.appendDebug(b)
		}
		return append(b, ']')
	case KindMap:
		b = append(b, '{')
		for i, k := range v.m.keys {
			if i > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendQuote(b, k)
			b = append(b, ':')
			b = v.m.vals[k].appendDebug(b)
		}
		return append(b, '}')
	}
	return b
}
