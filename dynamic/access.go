package dynamic

import (
	"math"
	"strconv"
	"strings"
)

// Get returns the value bound to key. The second result is false when v is
// not a map or the key is missing.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	e, ok := v.m.vals[key]
	return e, ok
}

// Has reports whether v is a map containing key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// At returns the value bound to key or Null when absent.
func (v Value) At(key string) Value {
	e, _ := v.Get(key)
	return e
}

// Set returns a copy of the map with key bound to val. Setting on Null
// creates a new map. Setting on any other non-map value returns v unchanged.
func (v Value) Set(key string, val Value) Value {
	switch v.kind {
	case KindNull:
		v = EmptyMap()
	case KindMap:
	default:
		return v
	}
	_, exists := v.m.vals[key]
	o := v.m.clone(1)
	if !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = val
	return Value{kind: KindMap, m: o}
}

// Remove returns a copy of the map without key. It is a no-op when key is
// absent or v is not a map.
func (v Value) Remove(key string) Value {
	if v.kind != KindMap {
		return v
	}
	if _, ok := v.m.vals[key]; !ok {
		return v
	}
	o := v.m.clone(0)
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return Value{kind: KindMap, m: o}
}

// Rename moves the value bound to oldKey under newKey. When oldKey is absent
// v is returned unchanged, so a map that already uses newKey is left alone.
func (v Value) Rename(oldKey, newKey string) Value {
	return v.RenameAndFix(oldKey, newKey, nil)
}

// RenameAndFix moves oldKey to newKey and applies fn to the moved value. A
// nil fn moves the value as is.
func (v Value) RenameAndFix(oldKey, newKey string, fn func(Value) Value) Value {
	e, ok := v.Get(oldKey)
	if !ok {
		return v
	}
	if fn != nil {
		e = fn(e)
	}
	if oldKey == newKey {
		return v.Set(newKey, e)
	}
	return v.Remove(oldKey).Set(newKey, e)
}

// Update replaces the value bound to key with fn applied to it. Absent keys
// leave v unchanged.
func (v Value) Update(key string, fn func(Value) Value) Value {
	e, ok := v.Get(key)
	if !ok {
		return v
	}
	return v.Set(key, fn(e))
}

// SetDefault binds key to def only when key is absent.
func (v Value) SetDefault(key string, def Value) Value {
	if v.Has(key) {
		return v
	}
	return v.Set(key, def)
}

// Merge returns v with every entry of other set on top of it. Non-map
// arguments leave v unchanged.
func (v Value) Merge(other Value) Value {
	if other.kind != KindMap {
		return v
	}
	out := v
	for _, k := range other.m.keys {
		out = out.Set(k, other.m.vals[k])
	}
	return out
}

// Index returns the i-th element of a list.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// SetIndex returns a copy of the list with element i replaced. Out of range
// indexes and non-list receivers return v unchanged.
func (v Value) SetIndex(i int, val Value) Value {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return v
	}
	l := make([]Value, len(v.list))
	copy(l, v.list)
	l[i] = val
	return Value{kind: KindList, list: l}
}

// Append returns a copy of the list with elems added. Appending to Null
// creates a list.
func (v Value) Append(elems ...Value) Value {
	switch v.kind {
	case KindNull:
		return List(elems...)
	case KindList:
	default:
		return v
	}
	l := make([]Value, len(v.list), len(v.list)+len(elems))
	copy(l, v.list)
	return Value{kind: KindList, list: append(l, elems...)}
}

// MapElems returns a list with fn applied to every element. Non-list values
// are returned unchanged.
func (v Value) MapElems(fn func(Value) Value) Value {
	if v.kind != KindList {
		return v
	}
	l := make([]Value, len(v.list))
	for i, e := range v.list {
		l[i] = fn(e)
	}
	return Value{kind: KindList, list: l}
}

// AsList returns the elements of a list. The returned slice must not be
// modified. Non-list values yield nil.
func (v Value) AsList() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// AsInt coerces v to an integer. Floats are truncated, booleans map to 0/1,
// numeric strings are parsed. Anything else yields def.
func (v Value) AsInt(def int64) int64 {
	switch v.kind {
	case KindNumber:
		if v.float {
			if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
				return def
			}
			return int64(v.f)
		}
		return v.i
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f)
		}
	}
	return def
}

// AsFloat coerces v to a float64, falling back to def.
func (v Value) AsFloat(def float64) float64 {
	switch v.kind {
	case KindNumber:
		if v.float {
			return v.f
		}
		return float64(v.i)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
			return f
		}
	}
	return def
}

// AsBool coerces v to a boolean. Numbers follow the byte convention of the
// legacy format: non-zero is true.
func (v Value) AsBool(def bool) bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.float {
			return v.f != 0
		}
		return v.i != 0
	case KindString:
		if b, err := strconv.ParseBool(strings.TrimSpace(v.s)); err == nil {
			return b
		}
	}
	return def
}

// AsString returns the string held by v, or def for any other kind.
func (v Value) AsString(def string) string {
	if v.kind != KindString {
		return def
	}
	return v.s
}

// GetInt is shorthand for v.At(key).AsInt(def).
func (v Value) GetInt(key string, def int64) int64 { return v.At(key).AsInt(def) }

// GetBool is shorthand for v.At(key).AsBool(def).
func (v Value) GetBool(key string, def bool) bool { return v.At(key).AsBool(def) }

// GetString is shorthand for v.At(key).AsString(def).
func (v Value) GetString(key string, def string) string { return v.At(key).AsString(def) }

// GetFloat is shorthand for v.At(key).AsFloat(def).
func (v Value) GetFloat(key string, def float64) float64 { return v.At(key).AsFloat(def) }
