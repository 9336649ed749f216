package datafixer

import (
	"errors"

	"github.com/reoring/datafixer/dynamic"
)

// plan is a rule compiled against the schemas on either side of its fix.
// It is immutable and shared by every migration.
type plan struct {
	fix     *DataFix
	rule    Rule
	in, out *Schema
	later   *Schema // target schema; its tags mark instances already migrated
	outType Type
	choice  *ChoiceType // input choice for rule.Ref, nil unless a choice

	// reach holds the references from which an instance of rule.Ref can be
	// reached; hits caches the same answer per composite type.
	reach map[TypeRef]bool
	hits  map[Type]bool
}

func compile(fix *DataFix, rule Rule, in, out, later *Schema) (*plan, Issues) {
	var issues Issues
	fail := func(detail string) {
		it := newIssue(CodeSchemaMismatch, map[string]string{"detail": detail})
		it.Fix, it.Ref, it.Version, it.Tag = fix.name, rule.Ref, fix.version, rule.Tag
		issues = AppendIssues(issues, it)
	}

	inType, ok := in.Resolve(rule.Ref)
	if !ok {
		fail("reference unknown to input " + in.String())
		return nil, issues
	}
	outType, ok := out.Resolve(rule.Ref)
	if !ok {
		fail("reference unknown to output " + out.String())
		return nil, issues
	}
	if !fix.changesShape && in.definer(rule.Ref) != out.definer(rule.Ref) {
		fail("output " + out.String() + " redefines the type but the fix does not declare a shape change")
	}
	p := &plan{fix: fix, rule: rule, in: in, out: out, later: later, outType: outType}
	if c, ok := inType.(*ChoiceType); ok {
		p.choice = c
	}
	if rule.Tag != "" {
		switch {
		case p.choice == nil:
			fail("branch rule on non-choice type " + inType.String())
		default:
			if _, ok := p.choice.Branch(rule.Tag); !ok {
				fail("branch " + p.choice.Normalize(rule.Tag) + " unknown to input " + in.String())
			}
			p.rule.Tag = p.choice.Normalize(rule.Tag)
		}
	}
	if len(issues) > 0 {
		return nil, issues
	}
	p.computeReach()
	return p, nil
}

// computeReach finds, by fixpoint over the reference graph of the input
// schema, every reference whose definition can contain the target.
func (p *plan) computeReach() {
	target := p.rule.Ref
	refs := p.in.Refs()
	deps := make(map[TypeRef][]TypeRef, len(refs))
	for _, ref := range refs {
		t, _ := p.in.Resolve(ref)
		refsOf(t, func(dep TypeRef) { deps[ref] = append(deps[ref], dep) })
	}
	p.reach = map[TypeRef]bool{}
	for changed := true; changed; {
		changed = false
		for _, ref := range refs {
			if p.reach[ref] {
				continue
			}
			for _, dep := range deps[ref] {
				if dep == target || p.reach[dep] {
					p.reach[ref] = true
					changed = true
					break
				}
			}
		}
	}
	p.hits = map[Type]bool{}
	for _, s := range []*Schema{p.in, p.out, p.later} {
		if s == nil {
			continue
		}
		for _, ref := range s.Refs() {
			t, _ := s.Resolve(ref)
			p.fillHits(t)
		}
	}
}

func (p *plan) fillHits(t Type) bool {
	if h, ok := p.hits[t]; ok {
		return h
	}
	var h bool
	switch tt := t.(type) {
	case *RefType:
		h = p.hitsRef(tt.Ref)
	case *ListType:
		h = p.fillHits(tt.Elem)
	case *MapType:
		h = p.fillHits(tt.Elem)
	case *RecordType:
		for _, f := range tt.fields {
			if p.fillHits(f.Type) {
				h = true
			}
		}
	case *ChoiceType:
		for _, tag := range tt.tags {
			if p.fillHits(tt.branches[tag]) {
				h = true
			}
		}
	}
	p.hits[t] = h
	return h
}

func (p *plan) hitsRef(ref TypeRef) bool { return ref == p.rule.Ref || p.reach[ref] }

func (p *plan) hitsType(t Type) bool {
	if r, ok := t.(*RefType); ok {
		return p.hitsRef(r.Ref)
	}
	return p.hits[t]
}

// run applies the rule to a document whose root is an instance of root.
func (p *plan) run(root TypeRef, doc dynamic.Value) (dynamic.Value, error) {
	if p.rule.Scope == ScopeRoot {
		if root != p.rule.Ref {
			return doc, nil
		}
		return p.apply(doc, rootPath)
	}
	if !p.hitsRef(root) {
		return doc, nil
	}
	return p.walkRef(root, doc, rootPath)
}

func (p *plan) walkRef(ref TypeRef, v dynamic.Value, path *pathRef) (dynamic.Value, error) {
	inner, _ := p.in.Resolve(ref)
	next, err := p.walk(inner, v, path, ref)
	if err != nil {
		return v, err
	}
	if ref == p.rule.Ref {
		return p.apply(next, path)
	}
	return next, nil
}

// walk descends v alongside t, children first, and returns v unchanged in
// representation when nothing below it was touched. owner is the reference t
// was resolved from, if any.
func (p *plan) walk(t Type, v dynamic.Value, path *pathRef, owner TypeRef) (dynamic.Value, error) {
	if v.IsNull() || !p.hitsType(t) {
		return v, nil
	}
	switch tt := t.(type) {
	case *RefType:
		return p.walkRef(tt.Ref, v, path)
	case *ListType:
		elems := v.AsList()
		var out []dynamic.Value
		for i, e := range elems {
			next, err := p.walk(tt.Elem, e, path.Index(i), "")
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
	case *MapType:
		out := v
		var err error
		v.Range(func(k string, e dynamic.Value) bool {
			var next dynamic.Value
			next, err = p.walk(tt.Elem, e, path.Field(k), "")
			if err != nil {
				return false
			}
			if !dynamic.Same(e, next) {
				out = out.Set(k, next)
			}
			return true
		})
		if err != nil {
			return v, err
		}
		return out, nil
	case *RecordType:
		if !v.IsMap() {
			return v, nil
		}
		out := v
		for _, f := range tt.fields {
			e, ok := v.Get(f.Name)
			if !ok {
				continue
			}
			next, err := p.walk(f.Type, e, path.Field(f.Name), "")
			if err != nil {
				return v, err
			}
			if !dynamic.Same(e, next) {
				out = out.Set(f.Name, next)
			}
		}
		return out, nil
	case *ChoiceType:
		tag, ok := tt.TagOf(v)
		if !ok {
			return v, nil
		}
		branch, ok := tt.Branch(tag)
		if !ok {
			// An instance an earlier rule or an earlier run already migrated
			// carries a tag of a later schema.
			if branch, ok = laterBranch(owner, tag, p.out, p.later); !ok {
				return v, p.annotate(unknownTag(path, tt, tag, p.in))
			}
		}
		return p.walk(branch, v, path, "")
	}
	return v, nil
}

// apply runs the rule on one instance and checks the output.
func (p *plan) apply(v dynamic.Value, path *pathRef) (dynamic.Value, error) {
	orig := v
	if p.rule.Tag != "" {
		tag, ok := p.choice.TagOf(v)
		if !ok || tag != p.rule.Tag {
			return orig, nil
		}
		// Branch bodies see the canonical tag.
		if v.GetString(p.choice.Key(), "") != tag {
			v = v.Set(p.choice.Key(), dynamic.String(tag))
		}
	}
	out, err := p.rule.Apply(v)
	if err != nil {
		var it Issue
		if !errors.As(err, &it) {
			it = path.issue(CodeFixFailed, "")
			it.Cause = err
		} else if it.Path == "" {
			it.Path = path.Pointer()
		}
		return orig, p.annotate(it)
	}
	if !p.fix.changesShape && p.rule.Mode == ModeValue && dynamic.Same(out, v) {
		return out, nil
	}
	c := checker{s: p.out, later: p.later}
	if p.rule.Mode == ModeRoundTrip {
		err = c.conform(p.outType, out, path, checkStrict, p.rule.Ref)
	} else if err = c.conform(p.outType, out, path, checkOutput, p.rule.Ref); err == nil {
		err = c.conformChanged(p.outType, v, out, path, p.rule.Ref)
	}
	if err != nil {
		it := err.(Issue)
		if it.Code == CodeShapeViolation && p.rule.Mode == ModeRoundTrip {
			it.Code = CodeRoundTripFailure
		}
		return orig, p.annotate(it)
	}
	return out, nil
}

func (p *plan) annotate(it Issue) Issue {
	if it.Fix == "" {
		it.Fix = p.fix.name
	}
	if it.Ref == "" {
		it.Ref = p.rule.Ref
	}
	if it.Version == 0 {
		it.Version = p.fix.version
	}
	return it
}

func unknownTag(path *pathRef, c *ChoiceType, tag string, s *Schema) Issue {
	it := path.Field(c.Key()).issue(CodeDiscriminatorUnknown, "not registered in "+s.String())
	it.Tag = tag
	return it
}

// checkMode selects how strictly conform treats a value.
type checkMode int

const (
	// checkInput tolerates every mismatch except unregistered choice tags.
	checkInput checkMode = iota
	// checkOutput additionally rejects container mismatches and missing
	// discriminators.
	checkOutput
	// checkStrict additionally rejects scalar mismatches. It applies to the
	// instance itself and relaxes to checkOutput across references.
	checkStrict
)

// laterBranch finds tag among the branches owner has in the given schemas.
func laterBranch(owner TypeRef, tag string, schemas ...*Schema) (Type, bool) {
	if owner == "" {
		return nil, false
	}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		t, ok := s.Resolve(owner)
		if !ok {
			continue
		}
		if c, ok := t.(*ChoiceType); ok {
			if b, ok := c.Branch(tag); ok {
				return b, true
			}
		}
	}
	return nil, false
}

// checker validates values against s. A tag unknown to s is still accepted
// when later registers it for the same reference.
type checker struct {
	s, later *Schema
}

// conform checks v against t as resolved in c.s. Null is accepted everywhere
// since every field is optional. owner is the reference t was resolved from.
func (c checker) conform(t Type, v dynamic.Value, path *pathRef, mode checkMode, owner TypeRef) error {
	if v.IsNull() {
		return nil
	}
	mismatch := func(want string) error {
		if mode == checkInput {
			return nil
		}
		return path.issue(CodeShapeViolation, "expected "+want+", got "+v.Kind().String())
	}
	switch tt := t.(type) {
	case *scalarType:
		if mode != checkStrict {
			return nil
		}
		switch tt.kind {
		case KindBool:
			if v.Kind() != dynamic.KindBool && v.Kind() != dynamic.KindNumber {
				return mismatch("bool")
			}
		case KindNumber:
			if v.Kind() != dynamic.KindNumber {
				return mismatch("number")
			}
		case KindString:
			if v.Kind() != dynamic.KindString {
				return mismatch("string")
			}
		}
		return nil
	case *RefType:
		inner, ok := c.s.Resolve(tt.Ref)
		if !ok {
			it := path.issue(CodeSchemaMismatch, "unresolved reference "+string(tt.Ref))
			it.Ref, it.Version = tt.Ref, c.s.version
			return it
		}
		if mode == checkStrict {
			mode = checkOutput
		}
		return c.conform(inner, v, path, mode, tt.Ref)
	case *ListType:
		if !v.IsList() {
			return mismatch("list")
		}
		for i, e := range v.AsList() {
			if err := c.conform(tt.Elem, e, path.Index(i), mode, ""); err != nil {
				return err
			}
		}
		return nil
	case *MapType:
		if !v.IsMap() {
			return mismatch("map")
		}
		var err error
		v.Range(func(k string, e dynamic.Value) bool {
			err = c.conform(tt.Elem, e, path.Field(k), mode, "")
			return err == nil
		})
		return err
	case *RecordType:
		if !v.IsMap() {
			return mismatch("record")
		}
		for _, f := range tt.fields {
			e, ok := v.Get(f.Name)
			if !ok {
				continue
			}
			if err := c.conform(f.Type, e, path.Field(f.Name), mode, ""); err != nil {
				return err
			}
		}
		return nil
	case *ChoiceType:
		if !v.IsMap() {
			return mismatch("record")
		}
		branch, err := c.branch(tt, v, path, mode, owner)
		if branch == nil {
			return err
		}
		return c.conform(branch, v, path, mode, "")
	}
	return nil
}

// branch selects the branch of v. It returns a nil type when there is
// nothing to descend into, along with the error if that is a defect.
func (c checker) branch(tt *ChoiceType, v dynamic.Value, path *pathRef, mode checkMode, owner TypeRef) (Type, error) {
	tag, ok := tt.TagOf(v)
	if !ok {
		if mode == checkInput {
			return nil, nil
		}
		return nil, path.Field(tt.Key()).issue(CodeShapeViolation, "missing discriminator")
	}
	if b, ok := tt.Branch(tag); ok {
		return b, nil
	}
	if b, ok := laterBranch(owner, tag, c.later); ok {
		return b, nil
	}
	return nil, unknownTag(path, tt, tag, c.s)
}

// conformChanged checks the scalars after holds where it differs from
// before as strictly as a round trip would. Untouched legacy values keep the
// tolerance of checkOutput. It stops at references.
func (c checker) conformChanged(t Type, before, after dynamic.Value, path *pathRef, owner TypeRef) error {
	if after.IsNull() || dynamic.Same(before, after) {
		return nil
	}
	switch tt := t.(type) {
	case *scalarType:
		return c.conform(tt, after, path, checkStrict, owner)
	case *ListType:
		prev := before.AsList()
		for i, e := range after.AsList() {
			var b dynamic.Value
			if len(prev) == after.Len() {
				b = prev[i]
			}
			if err := c.conformChanged(tt.Elem, b, e, path.Index(i), ""); err != nil {
				return err
			}
		}
	case *MapType:
		var err error
		after.Range(func(k string, e dynamic.Value) bool {
			err = c.conformChanged(tt.Elem, before.At(k), e, path.Field(k), "")
			return err == nil
		})
		return err
	case *RecordType:
		for _, f := range tt.fields {
			e, ok := after.Get(f.Name)
			if !ok {
				continue
			}
			if err := c.conformChanged(f.Type, before.At(f.Name), e, path.Field(f.Name), ""); err != nil {
				return err
			}
		}
	case *ChoiceType:
		branch, _ := c.branch(tt, after, path, checkOutput, owner)
		if branch != nil {
			return c.conformChanged(branch, before, after, path, "")
		}
	}
	return nil
}
