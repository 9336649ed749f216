package dynamic

import "math"

// Equal reports whether a and b hold the same content. Maps compare without
// regard to key order and numbers compare by numeric value, so Int(1) equals
// Float(1).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if !a.float && !b.float {
			return a.i == b.i
		}
		return a.AsFloat(0) == b.AsFloat(0)
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.m == b.m {
			return true
		}
		if len(a.m.keys) != len(b.m.keys) {
			return false
		}
		for k, av := range a.m.vals {
			bv, ok := b.m.vals[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal is the method form of the package level Equal. It lets go-cmp
// compare Values without reaching into unexported fields.
func (v Value) Equal(o Value) bool { return Equal(v, o) }

// Same reports whether a and b share representation. It is cheaper than
// Equal and is used to detect that a transform returned its input untouched.
func Same(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindMap:
		return a.m == b.m
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		if len(a.list) == 0 {
			return true
		}
		return &a.list[0] == &b.list[0]
	case KindNumber:
		// Int(10) and Float(10) are Equal but not the same representation.
		if a.float != b.float {
			return false
		}
		if a.float {
			return a.f == b.f || (math.IsNaN(a.f) && math.IsNaN(b.f))
		}
		return a.i == b.i
	}
	return Equal(a, b)
}
