package dynamic

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// FromAny converts a decoded Go tree (as produced by encoding/json, go-json
// or yaml.v3) into a Value. Maps with non-string keys are converted through
// their fmt-independent string form; unsupported leaf types become Null.
// Keys of plain Go maps are sorted since their iteration order is random.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint:
		if uint64(t) > math.MaxInt64 {
			return Float(float64(t))
		}
		return Int(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t))
		}
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		return Number(string(t))
	case []any:
		l := make([]Value, len(t))
		for i, e := range t {
			l[i] = FromAny(e)
		}
		return Value{kind: KindList, list: l}
	case []Value:
		return List(t...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := &object{keys: keys, vals: make(map[string]Value, len(t))}
		for _, k := range keys {
			o.vals[k] = FromAny(t[k])
		}
		return Value{kind: KindMap, m: o}
	case map[any]any:
		keys := make([]string, 0, len(t))
		vals := make(map[string]Value, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				ks = FromAny(k).String()
			}
			keys = append(keys, ks)
			vals[ks] = FromAny(e)
		}
		sort.Strings(keys)
		return Value{kind: KindMap, m: &object{keys: keys, vals: vals}}
	}
	return Null()
}

// Number parses a textual number. Integral text becomes an Int, anything
// else a Float. Unparseable text yields Null.
func Number(text string) Value {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Float(f)
	}
	return Null()
}

// Builder assembles a map in a given key order. It is used by decoders that
// must preserve the order keys appear in the input.
type Builder struct {
	o *object
}

// NewBuilder returns an empty map builder.
func NewBuilder() *Builder {
	return &Builder{o: &object{vals: map[string]Value{}}}
}

// Put binds key to val. Repeated keys keep their first position and the last
// value.
func (b *Builder) Put(key string, val Value) {
	if _, ok := b.o.vals[key]; !ok {
		b.o.keys = append(b.o.keys, key)
	}
	b.o.vals[key] = val
}

// Value returns the built map. The builder must not be used afterwards.
func (b *Builder) Value() Value {
	o := b.o
	b.o = nil
	return Value{kind: KindMap, m: o}
}

// Any converts v back into plain Go values: map[string]any, []any, bool,
// string, int64, float64 or nil.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.float {
			return v.f
		}
		return v.i
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m.keys))
		for _, k := range v.m.keys {
			out[k] = v.m.vals[k].Any()
		}
		return out
	}
	return nil
}

// Range calls fn for each map entry in insertion order until fn returns
// false. Non-map values are ignored.
func (v Value) Range(fn func(key string, val Value) bool) {
	if v.kind != KindMap {
		return
	}
	for _, k := range v.m.keys {
		if !fn(k, v.m.vals[k]) {
			return
		}
	}
}
