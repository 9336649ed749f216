package datafixer

import (
	"sort"
	"strings"

	"github.com/reoring/datafixer/dynamic"
)

// TypeRef is the stable, version independent name of a kind of record, for
// example ENTITY or ITEM_STACK.
type TypeRef string

func (r TypeRef) String() string { return string(r) }

// TypeKind enumerates the variants of Type.
type TypeKind int

const (
	KindPassthrough TypeKind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindRecord
	KindChoice
	KindRef
)

// Type is the closed set of shapes a schema can bind a TypeRef to. The only
// implementations are the ones in this file.
type Type interface {
	Kind() TypeKind
	String() string
	sealed()
}

type scalarType struct {
	kind TypeKind
	name string
}

func (t *scalarType) Kind() TypeKind { return t.kind }
func (t *scalarType) String() string { return t.name }
func (*scalarType) sealed()          {}

var (
	anyType    = &scalarType{kind: KindPassthrough, name: "any"}
	boolType   = &scalarType{kind: KindBool, name: "bool"}
	numberType = &scalarType{kind: KindNumber, name: "number"}
	stringType = &scalarType{kind: KindString, name: "string"}
)

// AnyType accepts any value and is never descended into.
func AnyType() Type { return anyType }

// BoolType is a boolean leaf. Legacy bytes are tolerated on input.
func BoolType() Type { return boolType }

// NumberType is a numeric leaf.
func NumberType() Type { return numberType }

// StringType is a string leaf.
func StringType() Type { return stringType }

// ListType is a homogeneous list.
type ListType struct{ Elem Type }

func (*ListType) Kind() TypeKind    { return KindList }
func (t *ListType) String() string { return "list<" + t.Elem.String() + ">" }
func (*ListType) sealed()           {}

// ListOf returns a list type of elem.
func ListOf(elem Type) *ListType { return &ListType{Elem: elem} }

// MapType is a map with arbitrary keys and homogeneous values.
type MapType struct{ Elem Type }

func (*MapType) Kind() TypeKind    { return KindMap }
func (t *MapType) String() string { return "map<" + t.Elem.String() + ">" }
func (*MapType) sealed()           {}

// MapOf returns a map type whose values are elem.
func MapOf(elem Type) *MapType { return &MapType{Elem: elem} }

// Field is a named, typed member of a record. Fields are always optional:
// legacy documents may omit any of them.
type Field struct {
	Name string
	Type Type
}

// RecordType is a map with named, typed fields. Keys it does not declare form
// the remainder and pass through untouched.
type RecordType struct {
	fields []Field
	index  map[string]int
}

// RecordOf builds a record type. A repeated field name replaces the earlier
// declaration.
func RecordOf(fields ...Field) *RecordType {
	r := &RecordType{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if i, ok := r.index[f.Name]; ok {
			r.fields[i] = f
			continue
		}
		r.index[f.Name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

func (*RecordType) Kind() TypeKind { return KindRecord }
func (*RecordType) sealed()        {}

func (t *RecordType) String() string {
	parts := make([]string, len(t.fields))
	for i, f := range t.fields {
		parts[i] = f.Name + ":" + f.Type.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Fields returns the declared fields in declaration order.
func (t *RecordType) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// FieldType returns the type of a declared field.
func (t *RecordType) FieldType(name string) (Type, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.fields[i].Type, true
}

// Declares reports whether name is a declared field.
func (t *RecordType) Declares(name string) bool {
	_, ok := t.index[name]
	return ok
}

// With returns a copy of the record with the given fields added or
// replaced.
func (t *RecordType) With(fields ...Field) *RecordType {
	return RecordOf(append(t.Fields(), fields...)...)
}

// Without returns a copy of the record without the named fields.
func (t *RecordType) Without(names ...string) *RecordType {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := make([]Field, 0, len(t.fields))
	for _, f := range t.fields {
		if _, ok := drop[f.Name]; !ok {
			kept = append(kept, f)
		}
	}
	return RecordOf(kept...)
}

// ChoiceType is a polymorphic record whose shape is selected by the string
// found under Key.
type ChoiceType struct {
	key       string
	namespace string
	branches  map[string]Type
	tags      []string
}

// ChoiceOf builds a choice type keyed by key. When namespace is not empty,
// tags are normalized with NormalizeID before registration and lookup.
func ChoiceOf(key, namespace string, branches map[string]Type) *ChoiceType {
	c := &ChoiceType{key: key, namespace: namespace, branches: make(map[string]Type, len(branches))}
	for tag, t := range branches {
		c.branches[c.Normalize(tag)] = t
	}
	c.sortTags()
	return c
}

func (c *ChoiceType) sortTags() {
	c.tags = c.tags[:0]
	for tag := range c.branches {
		c.tags = append(c.tags, tag)
	}
	sort.Strings(c.tags)
}

func (*ChoiceType) Kind() TypeKind { return KindChoice }
func (*ChoiceType) sealed()        {}

func (c *ChoiceType) String() string {
	return "choice<" + c.key + ":" + strings.Join(c.tags, "|") + ">"
}

// Key returns the discriminator field name.
func (c *ChoiceType) Key() string { return c.key }

// Namespace returns the default namespace applied to bare tags, or "" when
// tags are not namespaced.
func (c *ChoiceType) Namespace() string { return c.namespace }

// Tags returns the registered tags in sorted order.
func (c *ChoiceType) Tags() []string {
	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out
}

// Normalize returns the canonical form of tag for this choice.
func (c *ChoiceType) Normalize(tag string) string {
	if c.namespace == "" {
		return tag
	}
	return NormalizeID(c.namespace, tag)
}

// Branch resolves a tag to its branch type. The tag is normalized first.
func (c *ChoiceType) Branch(tag string) (Type, bool) {
	t, ok := c.branches[c.Normalize(tag)]
	return t, ok
}

// TagOf reads and normalizes the discriminator of v. The second result is
// false when v carries no string discriminator.
func (c *ChoiceType) TagOf(v dynamic.Value) (string, bool) {
	tag := v.GetString(c.key, "")
	if tag == "" {
		return "", false
	}
	return c.Normalize(tag), true
}

// withBranches returns a copy with branches added or replaced and the named
// tags removed.
func (c *ChoiceType) withBranches(add map[string]Type, remove []string) *ChoiceType {
	n := &ChoiceType{key: c.key, namespace: c.namespace, branches: make(map[string]Type, len(c.branches)+len(add))}
	for tag, t := range c.branches {
		n.branches[tag] = t
	}
	for _, tag := range remove {
		delete(n.branches, n.Normalize(tag))
	}
	for tag, t := range add {
		n.branches[n.Normalize(tag)] = t
	}
	n.sortTags()
	return n
}

// RefType points at whatever the schema in use binds Ref to. It is how
// recursive and shared shapes are expressed, and how the engine recognises
// instances of a TypeRef regardless of their position.
type RefType struct{ Ref TypeRef }

func (*RefType) Kind() TypeKind    { return KindRef }
func (t *RefType) String() string { return "@" + string(t.Ref) }
func (*RefType) sealed()           {}

// RefTo returns a reference to ref.
func RefTo(ref TypeRef) *RefType { return &RefType{Ref: ref} }

// refsOf reports every TypeRef mentioned directly inside t, without
// following references.
func refsOf(t Type, visit func(TypeRef)) {
	switch tt := t.(type) {
	case *RefType:
		visit(tt.Ref)
	case *ListType:
		refsOf(tt.Elem, visit)
	case *MapType:
		refsOf(tt.Elem, visit)
	case *RecordType:
		for _, f := range tt.fields {
			refsOf(f.Type, visit)
		}
	case *ChoiceType:
		for _, tag := range tt.tags {
			refsOf(tt.branches[tag], visit)
		}
	}
}
