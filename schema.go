package datafixer

import (
	"fmt"
	"sort"
)

// Schema binds TypeRefs to Types for one data version. A schema that does not
// define a reference inherits the definition of its parent, so most versions
// only declare what changed. Schemas are immutable once built.
type Schema struct {
	version int
	parent  *Schema
	types   map[TypeRef]Type
}

// Version returns the data version this schema describes.
func (s *Schema) Version() int { return s.version }

// Parent returns the schema this one inherits from, or nil.
func (s *Schema) Parent() *Schema { return s.parent }

// Resolve returns the type bound to ref by this schema or its nearest
// ancestor.
func (s *Schema) Resolve(ref TypeRef) (Type, bool) {
	if d := s.definer(ref); d != nil {
		return d.types[ref], true
	}
	return nil, false
}

// Defines reports whether this schema itself (not an ancestor) binds ref.
func (s *Schema) Defines(ref TypeRef) bool {
	_, ok := s.types[ref]
	return ok
}

// definer returns the schema in the ancestry that provides ref.
func (s *Schema) definer(ref TypeRef) *Schema {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.types[ref]; ok {
			return cur
		}
	}
	return nil
}

// Refs lists every reference resolvable in this schema, sorted.
func (s *Schema) Refs() []TypeRef {
	seen := map[TypeRef]struct{}{}
	for cur := s; cur != nil; cur = cur.parent {
		for ref := range cur.types {
			seen[ref] = struct{}{}
		}
	}
	out := make([]TypeRef, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Choice returns the choice type bound to ref, if ref resolves to one.
func (s *Schema) Choice(ref TypeRef) (*ChoiceType, bool) {
	t, ok := s.Resolve(ref)
	if !ok {
		return nil, false
	}
	c, ok := t.(*ChoiceType)
	return c, ok
}

// Branch resolves tag within the choice bound to ref. An unregistered tag is
// reported as a discriminator_unknown issue.
func (s *Schema) Branch(ref TypeRef, tag string) (Type, error) {
	c, ok := s.Choice(ref)
	if !ok {
		it := newIssue(CodeSchemaMismatch, map[string]string{"detail": "not a choice type"})
		it.Ref, it.Version = ref, s.version
		return nil, it
	}
	t, ok := c.Branch(tag)
	if !ok {
		it := newIssue(CodeDiscriminatorUnknown, nil)
		it.Ref, it.Version, it.Tag = ref, s.version, c.Normalize(tag)
		return nil, it
	}
	return t, nil
}

func (s *Schema) String() string { return fmt.Sprintf("schema@%d", s.version) }

// SchemaBuilder accumulates the definitions of one schema version.
type SchemaBuilder struct {
	version int
	parent  *Schema
	types   map[TypeRef]Type
	issues  Issues
}

// NewSchema starts a schema for version inheriting from parent, which may be
// nil for the oldest version.
func NewSchema(version int, parent *Schema) *SchemaBuilder {
	return &SchemaBuilder{version: version, parent: parent, types: map[TypeRef]Type{}}
}

// Define binds ref to t, replacing any inherited definition.
func (b *SchemaBuilder) Define(ref TypeRef, t Type) *SchemaBuilder {
	if t == nil {
		b.fail(ref, "nil type")
		return b
	}
	b.types[ref] = t
	return b
}

// AddBranches registers new or replacement branches on the choice bound to
// ref. The choice may be inherited; the result is defined by this schema.
func (b *SchemaBuilder) AddBranches(ref TypeRef, branches map[string]Type) *SchemaBuilder {
	c, ok := b.currentChoice(ref)
	if !ok {
		return b
	}
	b.types[ref] = c.withBranches(branches, nil)
	return b
}

// RemoveBranches drops tags from the choice bound to ref.
func (b *SchemaBuilder) RemoveBranches(ref TypeRef, tags ...string) *SchemaBuilder {
	c, ok := b.currentChoice(ref)
	if !ok {
		return b
	}
	b.types[ref] = c.withBranches(nil, tags)
	return b
}

func (b *SchemaBuilder) currentChoice(ref TypeRef) (*ChoiceType, bool) {
	t, ok := b.types[ref]
	if !ok && b.parent != nil {
		t, ok = b.parent.Resolve(ref)
	}
	if !ok {
		b.fail(ref, "no choice to extend")
		return nil, false
	}
	c, ok := t.(*ChoiceType)
	if !ok {
		b.fail(ref, "not a choice type: "+t.String())
		return nil, false
	}
	return c, true
}

func (b *SchemaBuilder) fail(ref TypeRef, detail string) {
	it := newIssue(CodeSchemaMismatch, map[string]string{"detail": detail})
	it.Ref, it.Version = ref, b.version
	b.issues = AppendIssues(b.issues, it)
}

// Build validates and freezes the schema. Every reference mentioned by a
// definition must resolve, and the version must be above the parent's.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := &Schema{version: b.version, parent: b.parent, types: make(map[TypeRef]Type, len(b.types))}
	for ref, t := range b.types {
		s.types[ref] = t
	}
	issues := append(Issues(nil), b.issues...)
	if b.parent != nil && b.parent.version >= b.version {
		it := newIssue(CodeInvalidVersion, map[string]string{"detail": fmt.Sprintf("parent version %d is not below %d", b.parent.version, b.version)})
		it.Version = b.version
		issues = AppendIssues(issues, it)
	}
	refs := make([]TypeRef, 0, len(s.types))
	for ref := range s.types {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	for _, ref := range refs {
		refsOf(s.types[ref], func(dep TypeRef) {
			if _, ok := s.Resolve(dep); !ok {
				it := newIssue(CodeSchemaMismatch, map[string]string{"detail": "unresolved reference " + string(dep)})
				it.Ref, it.Version = ref, b.version
				issues = AppendIssues(issues, it)
			}
		})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return s, nil
}

// MustBuild is Build that panics on error. It suits package level schema
// tables that are assembled once at startup.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
