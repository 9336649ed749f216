package datafixer

import (
	"strings"

	"github.com/reoring/datafixer/dynamic"
)

// ModifyFunc transforms a focused value.
type ModifyFunc func(dynamic.Value) (dynamic.Value, error)

// Optic focuses a transformation on part of a value. Modify applies fn to
// every focus and rebuilds the surrounding value; anything outside the focus
// is carried over unchanged. When there is no focus, v is returned as is and
// fn is not called.
type Optic interface {
	Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error)
	String() string
}

// Lens is an optic with exactly zero or one focus that can also be read and
// written directly.
type Lens interface {
	Optic
	Get(v dynamic.Value) (dynamic.Value, bool)
	Set(v, x dynamic.Value) dynamic.Value
}

// FieldLens focuses the named field of a map.
func FieldLens(name string) Lens { return fieldLens{name: name} }

type fieldLens struct{ name string }

func (l fieldLens) Get(v dynamic.Value) (dynamic.Value, bool) { return v.Get(l.name) }
func (l fieldLens) Set(v, x dynamic.Value) dynamic.Value      { return v.Set(l.name, x) }
func (l fieldLens) String() string                            { return "." + l.name }

func (l fieldLens) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	cur, ok := v.Get(l.name)
	if !ok {
		return v, nil
	}
	next, err := fn(cur)
	if err != nil {
		return v, err
	}
	if dynamic.Same(cur, next) {
		return v, nil
	}
	return v.Set(l.name, next), nil
}

// PathLens focuses a nested field. Set creates missing intermediate maps.
func PathLens(names ...string) Lens { return pathLens{names: names} }

type pathLens struct{ names []string }

func (l pathLens) String() string { return "." + strings.Join(l.names, ".") }

func (l pathLens) Get(v dynamic.Value) (dynamic.Value, bool) {
	cur := v
	for _, n := range l.names {
		next, ok := cur.Get(n)
		if !ok {
			return dynamic.Value{}, false
		}
		cur = next
	}
	return cur, true
}

func (l pathLens) Set(v, x dynamic.Value) dynamic.Value {
	if len(l.names) == 0 {
		return x
	}
	head := l.names[0]
	child := pathLens{names: l.names[1:]}.Set(v.At(head), x)
	return v.Set(head, child)
}

func (l pathLens) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	if len(l.names) == 0 {
		return fn(v)
	}
	return FieldLens(l.names[0]).Modify(v, func(child dynamic.Value) (dynamic.Value, error) {
		return pathLens{names: l.names[1:]}.Modify(child, fn)
	})
}

// RemainderLens focuses the entries of a map that rec does not declare. Get
// returns them as a map; Set replaces all of them at once, leaving declared
// fields alone.
func RemainderLens(rec *RecordType) Lens { return remainderLens{rec: rec} }

type remainderLens struct{ rec *RecordType }

func (remainderLens) String() string { return ".<remainder>" }

func (l remainderLens) Get(v dynamic.Value) (dynamic.Value, bool) {
	if !v.IsMap() {
		return dynamic.Value{}, false
	}
	b := dynamic.NewBuilder()
	v.Range(func(k string, e dynamic.Value) bool {
		if !l.rec.Declares(k) {
			b.Put(k, e)
		}
		return true
	})
	return b.Value(), true
}

func (l remainderLens) Set(v, x dynamic.Value) dynamic.Value {
	if !v.IsMap() {
		return v
	}
	out := v
	for _, k := range v.Keys() {
		if !l.rec.Declares(k) {
			out = out.Remove(k)
		}
	}
	x.Range(func(k string, e dynamic.Value) bool {
		if !l.rec.Declares(k) {
			out = out.Set(k, e)
		}
		return true
	})
	return out
}

func (l remainderLens) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	cur, ok := l.Get(v)
	if !ok {
		return v, nil
	}
	next, err := fn(cur)
	if err != nil {
		return v, err
	}
	if dynamic.Equal(cur, next) {
		return v, nil
	}
	return l.Set(v, next), nil
}

// BranchPrism focuses a value only when it is the tag variant of choice.
// Sibling variants are returned untouched.
func BranchPrism(choice *ChoiceType, tag string) Optic {
	return branchPrism{choice: choice, tag: choice.Normalize(tag)}
}

type branchPrism struct {
	choice *ChoiceType
	tag    string
}

func (p branchPrism) String() string { return "[" + p.choice.Key() + "=" + p.tag + "]" }

func (p branchPrism) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	if tag, ok := p.choice.TagOf(v); !ok || tag != p.tag {
		return v, nil
	}
	return fn(v)
}

// Each focuses every element of a list.
func Each() Optic { return each{} }

type each struct{}

func (each) String() string { return "[*]" }

func (each) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	elems := v.AsList()
	if elems == nil {
		return v, nil
	}
	var out []dynamic.Value
	for i, e := range elems {
		next, err := fn(e)
		if err != nil {
			return v, err
		}
		if out == nil && !dynamic.Same(e, next) {
			out = make([]dynamic.Value, len(elems))
			copy(out, elems[:i])
		}
		if out != nil {
			out[i] = next
		}
	}
	if out == nil {
		return v, nil
	}
	return dynamic.List(out...), nil
}

// Compose chains optics from outermost to innermost.
func Compose(optics ...Optic) Optic { return composed(optics) }

type composed []Optic

func (c composed) String() string {
	b := &strings.Builder{}
	for _, o := range c {
		b.WriteString(o.String())
	}
	return b.String()
}

func (c composed) Modify(v dynamic.Value, fn ModifyFunc) (dynamic.Value, error) {
	if len(c) == 0 {
		return fn(v)
	}
	return c[0].Modify(v, func(inner dynamic.Value) (dynamic.Value, error) {
		return c[1:].Modify(inner, fn)
	})
}
